package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/repository"
	"github.com/razeathletics/storefront/pkg/database"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

const pendingColumns = `session_id, items, shipping, subtotal, discount, COALESCE(discount_description, ''),
	shipping_cost, total, COALESCE(promo_code, ''), COALESCE(access_code, ''), COALESCE(user_id, ''),
	reserved, created_at`

const transactionColumns = `id::text, session_id, COALESCE(order_id::text, ''), amount, currency, status,
	payment_status, metadata, created_at, updated_at`

// CheckoutRepository implements repository.CheckoutRepository using PostgreSQL.
type CheckoutRepository struct {
	pool database.DBTX
}

// NewCheckoutRepository creates a new PostgreSQL-backed checkout repository.
func NewCheckoutRepository(pool database.DBTX) *CheckoutRepository {
	return &CheckoutRepository{pool: pool}
}

// Stage inserts the pending order and its payment transaction atomically.
func (r *CheckoutRepository) Stage(ctx context.Context, p *domain.PendingOrder, t *domain.PaymentTransaction) error {
	itemsJSON, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("marshal pending items: %w", err)
	}
	shippingJSON, err := json.Marshal(p.Shipping)
	if err != nil {
		return fmt.Errorf("marshal pending shipping: %w", err)
	}
	metadataJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal transaction metadata: %w", err)
	}

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		pendingQuery := `
			INSERT INTO pending_orders (session_id, items, shipping, subtotal, discount, discount_description,
				shipping_cost, total, promo_code, access_code, user_id, reserved, created_at)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, $13)`

		if _, err := tx.Exec(ctx, pendingQuery,
			p.SessionID,
			itemsJSON,
			shippingJSON,
			p.Subtotal,
			p.Discount,
			p.DiscountDescription,
			p.ShippingCost,
			p.Total,
			p.PromoCode,
			p.AccessCode,
			p.UserID,
			p.Reserved,
			p.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert pending order: %w", err)
		}

		txQuery := `
			INSERT INTO payment_transactions (id, session_id, amount, currency, status, payment_status, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		if _, err := tx.Exec(ctx, txQuery,
			t.ID,
			t.SessionID,
			t.Amount,
			t.Currency,
			t.Status,
			t.PaymentStatus,
			metadataJSON,
			t.CreatedAt,
			t.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert payment transaction: %w", err)
		}
		return nil
	})
}

// GetPending returns the pending order of a session.
func (r *CheckoutRepository) GetPending(ctx context.Context, sessionID string) (*domain.PendingOrder, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_orders WHERE session_id = $1`

	p, err := scanPending(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get pending order: %w", err)
	}
	return p, nil
}

// ClaimPending deletes and returns the pending order of a session.
func (r *CheckoutRepository) ClaimPending(ctx context.Context, sessionID string) (*domain.PendingOrder, error) {
	p, err := claimPending(ctx, r.pool, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("claim pending order: %w", err)
	}
	return p, nil
}

// ListStale returns pending orders created before cutoff, oldest first.
func (r *CheckoutRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.PendingOrder, error) {
	query := `
		SELECT ` + pendingColumns + `
		FROM pending_orders
		WHERE created_at < $1
		ORDER BY created_at
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending orders: %w", err)
	}
	defer rows.Close()

	pending := []domain.PendingOrder{}
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending order row: %w", err)
		}
		pending = append(pending, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending order rows: %w", err)
	}
	return pending, nil
}

// GetTransaction returns the payment transaction of a session.
func (r *CheckoutRepository) GetTransaction(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE session_id = $1`

	var (
		t            domain.PaymentTransaction
		metadataJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&t.ID,
		&t.SessionID,
		&t.OrderID,
		&t.Amount,
		&t.Currency,
		&t.Status,
		&t.PaymentStatus,
		&metadataJSON,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get payment transaction: %w", err)
	}
	if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal transaction metadata: %w", err)
	}
	return &t, nil
}

// UpdateTransactionStatus records the latest provider status. A transaction
// that already expired or was paid keeps its status.
func (r *CheckoutRepository) UpdateTransactionStatus(ctx context.Context, sessionID, status, paymentStatus string) error {
	query := `
		UPDATE payment_transactions
		SET status = CASE WHEN status IN ('paid', 'expired') THEN status ELSE $2 END,
		    payment_status = $3,
		    updated_at = NOW()
		WHERE session_id = $1`

	ct, err := r.pool.Exec(ctx, query, sessionID, status, paymentStatus)
	if err != nil {
		return fmt.Errorf("update payment transaction: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ExpireTransaction marks a pending transaction expired.
func (r *CheckoutRepository) ExpireTransaction(ctx context.Context, sessionID string) (bool, error) {
	query := `
		UPDATE payment_transactions
		SET status = 'expired', updated_at = NOW()
		WHERE session_id = $1 AND status = 'pending'`

	ct, err := r.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return false, fmt.Errorf("expire payment transaction: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Materialize turns the staged cart of a paid session into an order. The
// pending row is the claim: whoever deletes it creates the order.
func (r *CheckoutRepository) Materialize(ctx context.Context, sessionID string, now time.Time) (_ *repository.Materialization, err error) {
	ctx, end := database.TraceQuery(ctx, "MaterializeOrder", "DELETE FROM pending_orders RETURNING")
	defer func() { end(err) }()

	var result *repository.Materialization
	err = database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := claimPending(ctx, tx, sessionID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("claim pending order: %w", err)
			}
			existing, err := getOrder(ctx, tx, `payment_session_id = $1`, sessionID)
			if err != nil {
				return err
			}
			result = &repository.Materialization{Order: existing}
			return nil
		}

		order := p.ToOrder(now)
		inserted, err := insertOrder(ctx, tx, order)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if !inserted {
			existing, err := getOrder(ctx, tx, `payment_session_id = $1`, sessionID)
			if err != nil {
				return err
			}
			result = &repository.Materialization{Order: existing}
			return nil
		}

		linkQuery := `
			UPDATE payment_transactions
			SET order_id = $2, status = 'paid', payment_status = 'paid', updated_at = $3
			WHERE session_id = $1`

		if _, err := tx.Exec(ctx, linkQuery, sessionID, order.ID, now); err != nil {
			return fmt.Errorf("link payment transaction: %w", err)
		}

		result = &repository.Materialization{Order: order, Pending: p, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func claimPending(ctx context.Context, db database.DBTX, sessionID string) (*domain.PendingOrder, error) {
	query := `DELETE FROM pending_orders WHERE session_id = $1 RETURNING ` + pendingColumns
	return scanPending(db.QueryRow(ctx, query, sessionID))
}

func scanPending(row pgx.Row) (*domain.PendingOrder, error) {
	var (
		p                       domain.PendingOrder
		itemsJSON, shippingJSON []byte
	)
	if err := row.Scan(
		&p.SessionID,
		&itemsJSON,
		&shippingJSON,
		&p.Subtotal,
		&p.Discount,
		&p.DiscountDescription,
		&p.ShippingCost,
		&p.Total,
		&p.PromoCode,
		&p.AccessCode,
		&p.UserID,
		&p.Reserved,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &p.Items); err != nil {
		return nil, fmt.Errorf("unmarshal pending items: %w", err)
	}
	if err := json.Unmarshal(shippingJSON, &p.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal pending shipping: %w", err)
	}
	return &p, nil
}
