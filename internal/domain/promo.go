package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// Promo discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// PromoCode is a store wide discount code. DiscountValue is a whole percent
// for percentage codes and cents for fixed codes.
type PromoCode struct {
	Code          string     `json:"code"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue int64      `json:"discount_value"`
	MinOrder      int64      `json:"min_order"`
	MaxUses       *int       `json:"max_uses,omitempty"`
	Uses          int        `json:"uses"`
	Active        bool       `json:"active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NormalizeCode upper-cases and trims a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidDiscountType checks the discount type string.
func IsValidDiscountType(t string) bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// CheckEligibility returns nil when the code can be applied to subtotal at
// now. Rejections are checked in a fixed order: inactive, expired, usage
// limit, then minimum order.
func (p *PromoCode) CheckEligibility(subtotal int64, now time.Time) error {
	switch {
	case !p.Active:
		return apperrors.PromoInvalid(apperrors.PromoInactive, "This promo code is no longer active")
	case p.ExpiresAt != nil && p.ExpiresAt.Before(now):
		return apperrors.PromoInvalid(apperrors.PromoExpired, "This promo code has expired")
	case p.MaxUses != nil && p.Uses >= *p.MaxUses:
		return apperrors.PromoInvalid(apperrors.PromoUsageLimitReached, "This promo code has reached its usage limit")
	case subtotal < p.MinOrder:
		return apperrors.PromoInvalid(apperrors.PromoBelowMinimum,
			fmt.Sprintf("Minimum order of %s required for this code", FormatCents(p.MinOrder)))
	}
	return nil
}

// DiscountFor returns the discount in cents for subtotal. Percentages round
// half up to the cent; fixed amounts never exceed the subtotal.
func (p *PromoCode) DiscountFor(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	switch p.DiscountType {
	case DiscountPercentage:
		return decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(p.DiscountValue)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	case DiscountFixed:
		return min(p.DiscountValue, subtotal)
	}
	return 0
}

// Display renders the discount for customers, e.g. "10% off" or
// "$15.00 off".
func (p *PromoCode) Display() string {
	if p.DiscountType == DiscountPercentage {
		return fmt.Sprintf("%d%% off", p.DiscountValue)
	}
	return FormatCents(p.DiscountValue) + " off"
}

// FormatCents renders cents as dollars, e.g. 5000 as "$50.00".
func FormatCents(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

// PromoValidation is the answer to a successful validation.
type PromoValidation struct {
	Valid           bool   `json:"valid"`
	Code            string `json:"code"`
	DiscountType    string `json:"discount_type"`
	DiscountValue   int64  `json:"discount_value"`
	DiscountAmount  int64  `json:"discount_amount"`
	DiscountDisplay string `json:"discount_display"`
	MinOrder        int64  `json:"min_order"`
}

// Validation builds the validation answer for subtotal.
func (p *PromoCode) Validation(subtotal int64) PromoValidation {
	return PromoValidation{
		Valid:           true,
		Code:            p.Code,
		DiscountType:    p.DiscountType,
		DiscountValue:   p.DiscountValue,
		DiscountAmount:  p.DiscountFor(subtotal),
		DiscountDisplay: p.Display(),
		MinOrder:        p.MinOrder,
	}
}

// ValidatePromoRequest asks whether a code applies to a subtotal.
type ValidatePromoRequest struct {
	Code     string `json:"code" validate:"required"`
	Subtotal int64  `json:"subtotal" validate:"gte=0"`
}

// CreatePromoRequest is an admin request for a new code.
type CreatePromoRequest struct {
	Code          string     `json:"code" validate:"required,max=32"`
	DiscountType  string     `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue int64      `json:"discount_value" validate:"required,gt=0"`
	MinOrder      int64      `json:"min_order" validate:"gte=0"`
	MaxUses       *int       `json:"max_uses,omitempty" validate:"omitempty,gt=0"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Description   string     `json:"description,omitempty"`
}

// ToPromoCode builds an active code from the request.
func (r *CreatePromoRequest) ToPromoCode(now time.Time) (*PromoCode, error) {
	if !IsValidDiscountType(r.DiscountType) {
		return nil, apperrors.InvalidInput("discount_type must be percentage or fixed")
	}
	if r.DiscountType == DiscountPercentage && r.DiscountValue > 100 {
		return nil, apperrors.InvalidInput("percentage discount cannot exceed 100")
	}
	return &PromoCode{
		Code:          NormalizeCode(r.Code),
		DiscountType:  r.DiscountType,
		DiscountValue: r.DiscountValue,
		MinOrder:      r.MinOrder,
		MaxUses:       r.MaxUses,
		Active:        true,
		ExpiresAt:     r.ExpiresAt,
		Description:   r.Description,
		CreatedAt:     now,
	}, nil
}
