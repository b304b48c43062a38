package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/event"
	"github.com/razeathletics/storefront/internal/notification"
	"github.com/razeathletics/storefront/internal/repository"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// maxAccessCodeAttempts bounds how often a colliding access code is
// regenerated.
const maxAccessCodeAttempts = 3

// WaitlistService admits customers to a fixed capacity waitlist and issues
// the access codes that unlock the drop.
type WaitlistService struct {
	repo     repository.WaitlistRepository
	notifier Notifier
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewWaitlistService creates a new waitlist service.
func NewWaitlistService(repo repository.WaitlistRepository, notifier Notifier, producer *event.Producer, logger *slog.Logger) *WaitlistService {
	return &WaitlistService{
		repo:     repo,
		notifier: notifier,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Join admits the customer to the waitlist. Joining twice for the same
// product variant returns the first entry unchanged.
func (s *WaitlistService) Join(ctx context.Context, req *domain.JoinWaitlistRequest) (*domain.JoinResult, error) {
	req.Normalize()

	existing, err := s.repo.Find(ctx, req.Email, req.ProductID, req.Variant)
	if err == nil {
		res := domain.AlreadyJoinedResult(existing)
		return &res, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("find waitlist entry: %w", err)
	}

	for attempt := 1; attempt <= maxAccessCodeAttempts; attempt++ {
		code, err := domain.NewAccessCode()
		if err != nil {
			return nil, fmt.Errorf("generate access code: %w", err)
		}

		entry := &domain.WaitlistEntry{
			ID:          uuid.NewString(),
			Email:       req.Email,
			ProductID:   req.ProductID,
			ProductName: req.ProductName,
			Variant:     req.Variant,
			Size:        req.Size,
			AccessCode:  code,
			CreatedAt:   s.now(),
		}

		joined, err := s.repo.Join(ctx, entry)
		switch {
		case err == nil:
			s.afterJoin(ctx, joined)
			res := domain.JoinedResult(joined)
			return &res, nil
		case errors.Is(err, repository.ErrAccessCodeTaken):
			s.logger.WarnContext(ctx, "access code collision, regenerating",
				slog.Int("attempt", attempt),
			)
			continue
		case errors.Is(err, apperrors.ErrAlreadyExists):
			// A concurrent join for the same variant won the insert.
			existing, ferr := s.repo.Find(ctx, req.Email, req.ProductID, req.Variant)
			if ferr != nil {
				return nil, fmt.Errorf("find waitlist entry after duplicate join: %w", ferr)
			}
			res := domain.AlreadyJoinedResult(existing)
			return &res, nil
		case errors.Is(err, apperrors.ErrWaitlistFull):
			return nil, err
		default:
			return nil, fmt.Errorf("join waitlist: %w", err)
		}
	}
	return nil, fmt.Errorf("join waitlist: no unique access code after %d attempts", maxAccessCodeAttempts)
}

func (s *WaitlistService) afterJoin(ctx context.Context, e *domain.WaitlistEntry) {
	s.logger.InfoContext(ctx, "waitlist joined",
		slog.String("entry_id", e.ID),
		slog.Int("product_id", e.ProductID),
		slog.Int("position", e.Position),
	)

	if email, err := notification.WaitlistConfirmation(e); err != nil {
		s.logger.ErrorContext(ctx, "failed to render waitlist email",
			slog.String("entry_id", e.ID),
			slog.String("error", err.Error()),
		)
	} else {
		s.notifier.Enqueue(notification.EmailTask("waitlist_confirmation", email))
	}

	ev := domain.WaitlistJoinedEvent{
		EntryID:     e.ID,
		Email:       e.Email,
		ProductID:   e.ProductID,
		ProductName: e.ProductName,
		Position:    e.Position,
	}
	if err := s.producer.PublishWaitlistJoined(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish waitlist.joined event",
			slog.String("entry_id", e.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Status reports the remaining capacity.
func (s *WaitlistService) Status(ctx context.Context) (*domain.WaitlistStatus, error) {
	capacity, taken, err := s.repo.Counter(ctx)
	if err != nil {
		return nil, fmt.Errorf("waitlist status: %w", err)
	}
	st := domain.NewWaitlistStatus(capacity, taken)
	return &st, nil
}

// Verify checks an access code without consuming it.
func (s *WaitlistService) Verify(ctx context.Context, code string) (*domain.VerifyResult, error) {
	e, err := s.repo.GetByAccessCode(ctx, domain.NormalizeCode(code))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("verify access code: %w", err)
	}
	res := domain.VerifyEntry(e)
	return &res, nil
}

// MarkPurchased consumes an access code after a successful purchase and
// reports whether it was still unused.
func (s *WaitlistService) MarkPurchased(ctx context.Context, code string) (bool, error) {
	ok, err := s.repo.MarkPurchased(ctx, domain.NormalizeCode(code), s.now())
	if err != nil {
		return false, fmt.Errorf("mark access code purchased: %w", err)
	}
	return ok, nil
}

// List returns entries by position.
func (s *WaitlistService) List(ctx context.Context, skip, limit int) ([]domain.WaitlistEntry, int, error) {
	entries, total, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, total, nil
}
