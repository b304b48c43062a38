package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/razeathletics/storefront/internal/domain"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// --- Mock PromoRepository ---

type mockPromoRepository struct {
	mock.Mock
}

func (m *mockPromoRepository) Get(ctx context.Context, code string) (*domain.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromoCode), args.Error(1)
}

func (m *mockPromoRepository) List(ctx context.Context) ([]domain.PromoCode, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PromoCode), args.Error(1)
}

func (m *mockPromoRepository) Create(ctx context.Context, p *domain.PromoCode) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPromoRepository) SetActive(ctx context.Context, code string, active bool) error {
	return m.Called(ctx, code, active).Error(0)
}

func (m *mockPromoRepository) Delete(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func (m *mockPromoRepository) Use(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func newTestPromoService(repo *mockPromoRepository) *PromoService {
	svc := NewPromoService(repo, newTestLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestPromo_Validate(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	limit := 5

	tests := []struct {
		name       string
		promo      *domain.PromoCode
		subtotal   int64
		wantAmount int64
		wantCode   string
		wantStatus int
	}{
		{
			name:       "percentage",
			promo:      &domain.PromoCode{Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountValue: 10, Active: true},
			subtotal:   10000,
			wantAmount: 1000,
		},
		{
			name:       "fixed capped at subtotal",
			promo:      &domain.PromoCode{Code: "SAVE10", DiscountType: domain.DiscountFixed, DiscountValue: 1500, Active: true},
			subtotal:   1000,
			wantAmount: 1000,
		},
		{
			name:       "inactive",
			promo:      &domain.PromoCode{Code: "SAVE10", DiscountType: domain.DiscountFixed, DiscountValue: 1500},
			subtotal:   5000,
			wantCode:   apperrors.PromoInactive,
			wantStatus: 400,
		},
		{
			name:       "expired",
			promo:      &domain.PromoCode{Code: "SAVE10", DiscountType: domain.DiscountFixed, DiscountValue: 1500, Active: true, ExpiresAt: &past},
			subtotal:   5000,
			wantCode:   apperrors.PromoExpired,
			wantStatus: 400,
		},
		{
			name:       "usage limit",
			promo:      &domain.PromoCode{Code: "SAVE10", DiscountType: domain.DiscountFixed, DiscountValue: 1500, Active: true, MaxUses: &limit, Uses: 5},
			subtotal:   5000,
			wantCode:   apperrors.PromoUsageLimitReached,
			wantStatus: 400,
		},
		{
			name:       "below minimum",
			promo:      &domain.PromoCode{Code: "SAVE10", DiscountType: domain.DiscountFixed, DiscountValue: 1500, Active: true, MinOrder: 7500},
			subtotal:   5000,
			wantCode:   apperrors.PromoBelowMinimum,
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockPromoRepository)
			svc := newTestPromoService(repo)
			repo.On("Get", mock.Anything, "SAVE10").Return(tt.promo, nil)

			v, err := svc.Validate(context.Background(), " save10 ", tt.subtotal)
			if tt.wantCode != "" {
				var appErr *apperrors.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, tt.wantCode, appErr.Code)
				assert.Equal(t, tt.wantStatus, appErr.Status)
				assert.ErrorIs(t, err, apperrors.ErrPromoInvalid)
				return
			}
			require.NoError(t, err)
			assert.True(t, v.Valid)
			assert.Equal(t, tt.wantAmount, v.DiscountAmount)
		})
	}
}

func TestPromo_Validate_UnknownCode(t *testing.T) {
	repo := new(mockPromoRepository)
	svc := newTestPromoService(repo)
	repo.On("Get", mock.Anything, "NOPE").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Validate(context.Background(), "nope", 5000)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.PromoNotFound, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestPromo_Create_Duplicate(t *testing.T) {
	repo := new(mockPromoRepository)
	svc := newTestPromoService(repo)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PromoCode")).
		Return(apperrors.AlreadyExists("promo code", "code", "RAZE15"))

	_, err := svc.Create(context.Background(), &domain.CreatePromoRequest{
		Code: "raze15", DiscountType: domain.DiscountFixed, DiscountValue: 1500,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPromo_Create(t *testing.T) {
	repo := new(mockPromoRepository)
	svc := newTestPromoService(repo)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.PromoCode) bool {
		return p.Code == "RAZE15" && p.Active
	})).Return(nil)

	p, err := svc.Create(context.Background(), &domain.CreatePromoRequest{
		Code: "raze15", DiscountType: domain.DiscountFixed, DiscountValue: 1500,
	})
	require.NoError(t, err)
	assert.Equal(t, "RAZE15", p.Code)
	repo.AssertExpectations(t)
}

func TestPromo_SetActiveAndDelete_NotFound(t *testing.T) {
	repo := new(mockPromoRepository)
	svc := newTestPromoService(repo)
	repo.On("SetActive", mock.Anything, "GHOST", false).Return(apperrors.ErrNotFound)
	repo.On("Delete", mock.Anything, "GHOST").Return(apperrors.ErrNotFound)

	assert.ErrorIs(t, svc.SetActive(context.Background(), "ghost", false), apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "ghost"), apperrors.ErrNotFound)
}

func TestPromo_Use(t *testing.T) {
	repo := new(mockPromoRepository)
	svc := newTestPromoService(repo)
	repo.On("Use", mock.Anything, "SAVE20").Return(true, nil).Once()
	repo.On("Use", mock.Anything, "SAVE20").Return(false, nil).Once()

	ok, err := svc.Use(context.Background(), "save20")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Use(context.Background(), "SAVE20")
	require.NoError(t, err)
	assert.False(t, ok)
}
