package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/notification"
	"github.com/razeathletics/storefront/internal/repository"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// SubscriptionService manages marketing opt-ins.
type SubscriptionService struct {
	repo        repository.SubscriptionRepository
	notifier    Notifier
	logger      *slog.Logger
	giveawayURL string
	now         func() time.Time
}

// NewSubscriptionService creates a new subscription service. giveawayURL
// receives giveaway popup sign-ups; empty disables the webhook.
func NewSubscriptionService(
	repo repository.SubscriptionRepository,
	notifier Notifier,
	logger *slog.Logger,
	giveawayURL string,
) *SubscriptionService {
	return &SubscriptionService{
		repo:        repo,
		notifier:    notifier,
		logger:      logger,
		giveawayURL: giveawayURL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe records an opt-in. A repeat of the same email and source, and
// product for notify_me, is answered without an error.
func (s *SubscriptionService) Subscribe(ctx context.Context, req *domain.SubscribeRequest) (*domain.SubscribeResult, error) {
	req.Normalize()

	sub := &domain.EmailSubscription{
		ID:          uuid.New().String(),
		Email:       req.Email,
		Source:      req.Source,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Drop:        req.Drop,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return &domain.SubscribeResult{Success: false, Message: req.DuplicateMessage(), Email: req.Email}, nil
		}
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	s.logger.InfoContext(ctx, "email subscribed",
		slog.String("source", sub.Source),
		slog.String("product_id", sub.ProductID),
	)

	if sub.Source == domain.SourceGiveawayPopup {
		s.notifier.Enqueue(notification.WebhookTask("giveaway_webhook", s.giveawayURL,
			notification.NewGiveawayPayload(sub.Email)))
	}

	return &domain.SubscribeResult{Success: true, Message: domain.SubscribedMessage, Email: sub.Email}, nil
}

// Stats counts subscriptions per source.
func (s *SubscriptionService) Stats(ctx context.Context) (*domain.SubscriptionStats, error) {
	counts, err := s.repo.CountBySource(ctx)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	stats := domain.NewSubscriptionStats(counts)
	return &stats, nil
}

// List returns subscriptions newest first, optionally for one source.
func (s *SubscriptionService) List(ctx context.Context, source string, skip, limit int) ([]domain.EmailSubscription, int, error) {
	if source != "" && !domain.IsValidSource(source) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid source %q", source))
	}
	subs, total, err := s.repo.List(ctx, source, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, total, nil
}

// DeleteByEmail removes every subscription of email and returns how many
// went away. Deleting an unknown email is not an error.
func (s *SubscriptionService) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	n, err := s.repo.DeleteByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return 0, fmt.Errorf("delete subscriptions: %w", err)
	}
	s.logger.InfoContext(ctx, "subscriptions deleted", slog.Int64("count", n))
	return n, nil
}
