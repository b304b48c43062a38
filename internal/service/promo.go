package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/repository"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// PromoService validates and manages promo codes.
type PromoService struct {
	repo   repository.PromoRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewPromoService creates a new promo service.
func NewPromoService(repo repository.PromoRepository, logger *slog.Logger) *PromoService {
	return &PromoService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks whether code applies to subtotal and prices the discount.
func (s *PromoService) Validate(ctx context.Context, code string, subtotal int64) (*domain.PromoValidation, error) {
	p, err := s.repo.Get(ctx, domain.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.PromoInvalid(apperrors.PromoNotFound, "Invalid promo code")
		}
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if err := p.CheckEligibility(subtotal, s.now()); err != nil {
		return nil, err
	}
	v := p.Validation(subtotal)
	return &v, nil
}

// Use records one redemption. It reports false once the usage limit is
// reached or the code is unknown.
func (s *PromoService) Use(ctx context.Context, code string) (bool, error) {
	code = domain.NormalizeCode(code)
	ok, err := s.repo.Use(ctx, code)
	if err != nil {
		return false, fmt.Errorf("use promo code: %w", err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "promo code not redeemed",
			slog.String("code", code),
		)
	}
	return ok, nil
}

// List returns every promo code.
func (s *PromoService) List(ctx context.Context) ([]domain.PromoCode, error) {
	promos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	return promos, nil
}

// Create adds a promo code.
func (s *PromoService) Create(ctx context.Context, req *domain.CreatePromoRequest) (*domain.PromoCode, error) {
	p, err := req.ToPromoCode(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.InvalidInput("Promo code already exists")
		}
		return nil, fmt.Errorf("create promo code: %w", err)
	}

	s.logger.InfoContext(ctx, "promo code created",
		slog.String("code", p.Code),
		slog.String("discount_type", p.DiscountType),
		slog.Int64("discount_value", p.DiscountValue),
	)
	return p, nil
}

// SetActive enables or disables a code.
func (s *PromoService) SetActive(ctx context.Context, code string, active bool) error {
	if err := s.repo.SetActive(ctx, domain.NormalizeCode(code), active); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundMessage("Promo code not found")
		}
		return fmt.Errorf("set promo code active: %w", err)
	}
	return nil
}

// Delete removes a code.
func (s *PromoService) Delete(ctx context.Context, code string) error {
	if err := s.repo.Delete(ctx, domain.NormalizeCode(code)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundMessage("Promo code not found")
		}
		return fmt.Errorf("delete promo code: %w", err)
	}
	s.logger.InfoContext(ctx, "promo code deleted", slog.String("code", domain.NormalizeCode(code)))
	return nil
}
