package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/database"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

const promoColumns = `code, discount_type, discount_value, min_order, max_uses, uses, active, expires_at,
	COALESCE(description, ''), created_at`

// PromoRepository implements repository.PromoRepository using PostgreSQL.
type PromoRepository struct {
	pool database.DBTX
}

// NewPromoRepository creates a new PostgreSQL-backed promo code repository.
func NewPromoRepository(pool database.DBTX) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// Get returns a promo code. The lookup is case-insensitive.
func (r *PromoRepository) Get(ctx context.Context, code string) (*domain.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1`

	p, err := scanPromo(r.pool.QueryRow(ctx, query, domain.NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("promo code", code)
		}
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	return p, nil
}

// List returns every promo code, newest first.
func (r *PromoRepository) List(ctx context.Context) ([]domain.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()

	promos := []domain.PromoCode{}
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promo code row: %w", err)
		}
		promos = append(promos, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promo code rows: %w", err)
	}
	return promos, nil
}

// Create inserts a new promo code.
func (r *PromoRepository) Create(ctx context.Context, p *domain.PromoCode) error {
	query := `
		INSERT INTO promo_codes (code, discount_type, discount_value, min_order, max_uses, uses, active,
			expires_at, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)`

	_, err := r.pool.Exec(ctx, query,
		p.Code,
		p.DiscountType,
		p.DiscountValue,
		p.MinOrder,
		p.MaxUses,
		p.Uses,
		p.Active,
		p.ExpiresAt,
		p.Description,
		p.CreatedAt,
	)
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return apperrors.AlreadyExists("promo code", "code", p.Code)
	case database.IsCheckViolation(err):
		return apperrors.InvalidInput("invalid promo code values")
	default:
		return fmt.Errorf("insert promo code: %w", err)
	}
}

// SetActive enables or disables a code.
func (r *PromoRepository) SetActive(ctx context.Context, code string, active bool) error {
	ct, err := r.pool.Exec(ctx, `UPDATE promo_codes SET active = $2 WHERE code = $1`, domain.NormalizeCode(code), active)
	if err != nil {
		return fmt.Errorf("update promo code: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promo code", code)
	}
	return nil
}

// Delete removes a code.
func (r *PromoRepository) Delete(ctx context.Context, code string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM promo_codes WHERE code = $1`, domain.NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("delete promo code: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promo code", code)
	}
	return nil
}

// Use counts one redemption. It reports false once max_uses is reached.
func (r *PromoRepository) Use(ctx context.Context, code string) (bool, error) {
	query := `
		UPDATE promo_codes
		SET uses = uses + 1
		WHERE code = $1 AND (max_uses IS NULL OR uses < max_uses)`

	ct, err := r.pool.Exec(ctx, query, domain.NormalizeCode(code))
	if err != nil {
		return false, fmt.Errorf("use promo code: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func scanPromo(row pgx.Row) (*domain.PromoCode, error) {
	var p domain.PromoCode
	if err := row.Scan(
		&p.Code,
		&p.DiscountType,
		&p.DiscountValue,
		&p.MinOrder,
		&p.MaxUses,
		&p.Uses,
		&p.Active,
		&p.ExpiresAt,
		&p.Description,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
