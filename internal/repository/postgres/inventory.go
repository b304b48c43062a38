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

const inventoryColumns = `product_id, product_name, color, size, quantity, reserved, low_stock_threshold, updated_at`

const variantWhere = `product_id = $1 AND color = $2 AND size = $3`

// InventoryRepository implements repository.InventoryRepository using PostgreSQL.
type InventoryRepository struct {
	pool database.DBTX
}

// NewInventoryRepository creates a new PostgreSQL-backed inventory repository.
func NewInventoryRepository(pool database.DBTX) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// List returns every variant.
func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory ORDER BY product_id, color, size`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return collectItems(rows)
}

// ListByProduct returns the variants of a product, optionally for one color.
func (r *InventoryRepository) ListByProduct(ctx context.Context, productID int, color string) ([]domain.InventoryItem, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE product_id = $1 AND ($2 = '' OR color = $2)
		ORDER BY color, size`

	rows, err := r.pool.Query(ctx, query, productID, color)
	if err != nil {
		return nil, fmt.Errorf("list inventory by product: %w", err)
	}
	return collectItems(rows)
}

// Get returns a single variant.
func (r *InventoryRepository) Get(ctx context.Context, key domain.VariantKey) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE ` + variantWhere

	item, err := scanItem(r.pool.QueryRow(ctx, query, key.ProductID, key.Color, key.Size))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get inventory %s: %w", key, err)
	}
	return item, nil
}

// Reserve holds units if enough are available.
func (r *InventoryRepository) Reserve(ctx context.Context, req domain.StockRequest) (_ *domain.InventoryItem, err error) {
	query := `
		UPDATE inventory
		SET reserved = reserved + $4, updated_at = NOW()
		WHERE ` + variantWhere + ` AND quantity - reserved >= $4
		RETURNING ` + inventoryColumns

	ctx, end := database.TraceQuery(ctx, "ReserveStock", query)
	defer func() { end(err) }()

	item, err := scanItem(r.pool.QueryRow(ctx, query, req.ProductID, req.Color, req.Size, req.Quantity))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserve inventory %s: %w", req.Key(), err)
	}

	current, err := r.Get(ctx, req.Key())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("inventory item", req.Key().String())
		}
		return nil, err
	}
	name := current.ProductName
	if name == "" {
		name = req.ProductName
	}
	return nil, apperrors.InsufficientStock(name, req.Color, req.Size)
}

// Release returns held units, never letting reserved go below zero.
func (r *InventoryRepository) Release(ctx context.Context, req domain.StockRequest) (_ *domain.InventoryItem, _ int, err error) {
	query := `
		UPDATE inventory AS i
		SET reserved = GREATEST(i.reserved - $4, 0), updated_at = NOW()
		FROM (
			SELECT reserved FROM inventory WHERE ` + variantWhere + ` FOR UPDATE
		) AS prev
		WHERE i.product_id = $1 AND i.color = $2 AND i.size = $3
		RETURNING i.product_id, i.product_name, i.color, i.size, i.quantity, i.reserved,
			i.low_stock_threshold, i.updated_at, prev.reserved`

	ctx, end := database.TraceQuery(ctx, "ReleaseStock", query)
	defer func() { end(err) }()

	var (
		item     domain.InventoryItem
		previous int
	)
	err = r.pool.QueryRow(ctx, query, req.ProductID, req.Color, req.Size, req.Quantity).Scan(
		&item.ProductID,
		&item.ProductName,
		&item.Color,
		&item.Size,
		&item.Quantity,
		&item.Reserved,
		&item.LowStockThreshold,
		&item.UpdatedAt,
		&previous,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, apperrors.ErrNotFound
		}
		return nil, 0, fmt.Errorf("release inventory %s: %w", req.Key(), err)
	}
	return &item, previous - item.Reserved, nil
}

// Commit deducts sold units. See repository.InventoryRepository.
func (r *InventoryRepository) Commit(ctx context.Context, req domain.StockRequest, fromHold bool) (_ *domain.InventoryItem, _ domain.CommitMode, err error) {
	ctx, end := database.TraceQuery(ctx, "CommitStock", "UPDATE inventory")
	defer func() { end(err) }()

	args := []any{req.ProductID, req.Color, req.Size, req.Quantity}

	if fromHold {
		query := `
			UPDATE inventory
			SET quantity = quantity - $4, reserved = reserved - $4, updated_at = NOW()
			WHERE ` + variantWhere + ` AND reserved >= $4
			RETURNING ` + inventoryColumns

		item, err := scanItem(r.pool.QueryRow(ctx, query, args...))
		if err == nil {
			return item, domain.CommitFromReserved, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, "", fmt.Errorf("commit held inventory %s: %w", req.Key(), err)
		}
	}

	query := `
		UPDATE inventory
		SET quantity = quantity - $4, updated_at = NOW()
		WHERE ` + variantWhere + ` AND quantity - reserved >= $4
		RETURNING ` + inventoryColumns

	item, err := scanItem(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.CommitShortfall, nil
		}
		return nil, "", fmt.Errorf("commit inventory %s: %w", req.Key(), err)
	}
	return item, domain.CommitFromAvailable, nil
}

// Update applies an admin change to one variant.
func (r *InventoryRepository) Update(ctx context.Context, u domain.InventoryUpdate) (*domain.InventoryItem, error) {
	item, err := updateVariant(ctx, r.pool, u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundMessage("Inventory item not found")
		}
		return nil, err
	}
	return item, nil
}

// BulkUpdate applies admin changes atomically, skipping unknown variants.
func (r *InventoryRepository) BulkUpdate(ctx context.Context, updates []domain.InventoryUpdate) (int, error) {
	updated := 0
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, u := range updates {
			if _, err := updateVariant(ctx, tx, u); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					continue
				}
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func updateVariant(ctx context.Context, db database.DBTX, u domain.InventoryUpdate) (*domain.InventoryItem, error) {
	query := `
		UPDATE inventory
		SET quantity = COALESCE($4, quantity),
		    low_stock_threshold = COALESCE($5, low_stock_threshold),
		    updated_at = NOW()
		WHERE ` + variantWhere + `
		RETURNING ` + inventoryColumns

	item, err := scanItem(db.QueryRow(ctx, query, u.ProductID, u.Color, u.Size, u.Quantity, u.LowStockThreshold))
	if err != nil {
		if database.IsCheckViolation(err) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity for %s cannot be below reserved units", u.Key()))
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update inventory %s: %w", u.Key(), err)
	}
	return item, nil
}

func scanItem(row pgx.Row) (*domain.InventoryItem, error) {
	var it domain.InventoryItem
	if err := row.Scan(
		&it.ProductID,
		&it.ProductName,
		&it.Color,
		&it.Size,
		&it.Quantity,
		&it.Reserved,
		&it.LowStockThreshold,
		&it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]domain.InventoryItem, error) {
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory rows: %w", err)
	}
	return items, nil
}
