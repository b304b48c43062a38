package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/database"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

const orderColumns = `id::text, order_number, items, shipping, subtotal, discount,
	COALESCE(discount_description, ''), shipping_cost, total, status,
	COALESCE(tracking_number, ''), COALESCE(carrier, ''), COALESCE(label_url, ''),
	COALESCE(estimated_delivery, ''), COALESCE(notes, ''), COALESCE(payment_session_id, ''),
	shipped_at, delivered_at, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	inserted, err := insertOrder(ctx, r.pool, o)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("order", "order_number", o.OrderNumber)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	if !inserted {
		return apperrors.AlreadyExists("order", "payment_session_id", o.PaymentSessionID)
	}
	return nil
}

// GetByID retrieves an order by id. Ids that are not UUIDs are simply not
// found.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotFound
	}
	return getOrder(ctx, r.pool, `id = $1`, id)
}

// GetByNumber retrieves an order by its order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return getOrder(ctx, r.pool, `order_number = $1`, number)
}

// GetBySessionID retrieves the order materialized from a payment session.
func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	return getOrder(ctx, r.pool, `payment_session_id = $1`, sessionID)
}

// List returns orders newest first with the total matching the filter.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter, skip, limit int) ([]domain.Order, int, error) {
	query := `
		SELECT ` + orderColumns + `, count(*) OVER() AS total_count
		FROM orders
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR email = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, filter.Status, filter.Email, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders = []domain.Order{}
		total  int
	)
	for rows.Next() {
		var row orderRow
		if err := rows.Scan(append(row.dest(), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		o, err := row.decode()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, total, nil
}

// Modify locks the order row, applies fn and writes the mutable fields back.
func (r *OrderRepository) Modify(ctx context.Context, id string, fn func(o *domain.Order) error) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotFound
	}

	var order *domain.Order
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		o, err := getOrder(ctx, tx, `id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		o.UpdatedAt = time.Now().UTC()

		query := `
			UPDATE orders
			SET status = $2, tracking_number = NULLIF($3, ''), carrier = NULLIF($4, ''),
			    label_url = NULLIF($5, ''), estimated_delivery = NULLIF($6, ''), notes = NULLIF($7, ''),
			    shipped_at = $8, delivered_at = $9, updated_at = $10
			WHERE id = $1`

		if _, err := tx.Exec(ctx, query,
			o.ID,
			o.Status,
			o.TrackingNumber,
			o.Carrier,
			o.LabelURL,
			o.EstimatedDelivery,
			o.Notes,
			o.ShippedAt,
			o.DeliveredAt,
			o.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Stats returns counts per status and the revenue of non-cancelled orders.
func (r *OrderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	query := `SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM orders GROUP BY status`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.OrderStats{ByStatus: make(map[string]int)}
	for _, s := range domain.ValidStatuses() {
		stats.ByStatus[s] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
			sum    int64
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, fmt.Errorf("scan order stats row: %w", err)
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
		if status != domain.OrderStatusCancelled {
			stats.Revenue += sum
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order stats rows: %w", err)
	}
	return stats, nil
}

// insertOrder inserts o, doing nothing when its payment session already has
// an order. inserted is false in that case.
func insertOrder(ctx context.Context, db database.DBTX, o *domain.Order) (inserted bool, err error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return false, fmt.Errorf("marshal order items: %w", err)
	}
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return false, fmt.Errorf("marshal order shipping: %w", err)
	}

	query := `
		INSERT INTO orders (id, order_number, email, items, shipping, subtotal, discount, discount_description,
			shipping_cost, total, status, tracking_number, carrier, label_url, estimated_delivery, notes,
			payment_session_id, shipped_at, delivered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, NULLIF($12, ''), NULLIF($13, ''),
			NULLIF($14, ''), NULLIF($15, ''), NULLIF($16, ''), NULLIF($17, ''), $18, $19, $20, $21)
		ON CONFLICT (payment_session_id) DO NOTHING
		RETURNING id`

	var id string
	err = db.QueryRow(ctx, query,
		o.ID,
		o.OrderNumber,
		o.Shipping.Email,
		itemsJSON,
		shippingJSON,
		o.Subtotal,
		o.Discount,
		o.DiscountDescription,
		o.ShippingCost,
		o.Total,
		o.Status,
		o.TrackingNumber,
		o.Carrier,
		o.LabelURL,
		o.EstimatedDelivery,
		o.Notes,
		o.PaymentSessionID,
		o.ShippedAt,
		o.DeliveredAt,
		o.CreatedAt,
		o.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func getOrder(ctx context.Context, db database.DBTX, where string, args ...any) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where

	var row orderRow
	if err := db.QueryRow(ctx, query, args...).Scan(row.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return row.decode()
}

// orderRow holds a scanned order with its JSONB columns still encoded.
type orderRow struct {
	o        domain.Order
	items    []byte
	shipping []byte
}

func (r *orderRow) dest() []any {
	o := &r.o
	return []any{
		&o.ID,
		&o.OrderNumber,
		&r.items,
		&r.shipping,
		&o.Subtotal,
		&o.Discount,
		&o.DiscountDescription,
		&o.ShippingCost,
		&o.Total,
		&o.Status,
		&o.TrackingNumber,
		&o.Carrier,
		&o.LabelURL,
		&o.EstimatedDelivery,
		&o.Notes,
		&o.PaymentSessionID,
		&o.ShippedAt,
		&o.DeliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

func (r *orderRow) decode() (*domain.Order, error) {
	if err := json.Unmarshal(r.items, &r.o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(r.shipping, &r.o.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal order shipping: %w", err)
	}
	return &r.o, nil
}
