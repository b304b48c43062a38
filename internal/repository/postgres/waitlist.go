package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/repository"
	"github.com/razeathletics/storefront/pkg/database"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

const waitlistColumns = `id::text, email, product_id, product_name, variant, size, position, access_code,
	notified, purchased, purchased_at, created_at`

const (
	constraintWaitlistDuplicate  = "waitlist_entries_email_product_variant_key"
	constraintWaitlistAccessCode = "waitlist_entries_access_code_key"
)

// WaitlistRepository implements repository.WaitlistRepository using PostgreSQL.
type WaitlistRepository struct {
	pool database.DBTX
}

// NewWaitlistRepository creates a new PostgreSQL-backed waitlist repository.
func NewWaitlistRepository(pool database.DBTX) *WaitlistRepository {
	return &WaitlistRepository{pool: pool}
}

// Find returns the entry of email for a product variant.
func (r *WaitlistRepository) Find(ctx context.Context, email string, productID int, variant string) (*domain.WaitlistEntry, error) {
	return r.getEntry(ctx, `email = $1 AND product_id = $2 AND variant = $3`, email, productID, variant)
}

// Join takes the next spot and inserts the entry with that position. The
// counter update and the insert share a transaction, so a failed insert
// gives the spot back.
func (r *WaitlistRepository) Join(ctx context.Context, e *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		counterQuery := `
			UPDATE waitlist_counter
			SET taken = taken + 1
			WHERE id = 1 AND taken < capacity
			RETURNING taken`

		var position int
		if err := tx.QueryRow(ctx, counterQuery).Scan(&position); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.WaitlistFull()
			}
			return fmt.Errorf("take waitlist spot: %w", err)
		}
		e.Position = position

		insertQuery := `
			INSERT INTO waitlist_entries (id, email, product_id, product_name, variant, size, position,
				access_code, notified, purchased, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

		_, err := tx.Exec(ctx, insertQuery,
			e.ID,
			e.Email,
			e.ProductID,
			e.ProductName,
			e.Variant,
			e.Size,
			e.Position,
			e.AccessCode,
			e.Notified,
			e.Purchased,
			e.CreatedAt,
		)
		switch {
		case err == nil:
			return nil
		case database.IsUniqueViolation(err, constraintWaitlistDuplicate):
			return apperrors.AlreadyExists("waitlist entry", "email", e.Email)
		case database.IsUniqueViolation(err, constraintWaitlistAccessCode):
			return repository.ErrAccessCodeTaken
		default:
			return fmt.Errorf("insert waitlist entry: %w", err)
		}
	})
	if err != nil {
		e.Position = 0
		return nil, err
	}
	return e, nil
}

// Counter returns the waitlist capacity and the spots taken.
func (r *WaitlistRepository) Counter(ctx context.Context) (int, int, error) {
	var capacity, taken int
	err := r.pool.QueryRow(ctx, `SELECT capacity, taken FROM waitlist_counter WHERE id = 1`).Scan(&capacity, &taken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, apperrors.ErrNotFound
		}
		return 0, 0, fmt.Errorf("get waitlist counter: %w", err)
	}
	return capacity, taken, nil
}

// GetByAccessCode returns the entry owning code.
func (r *WaitlistRepository) GetByAccessCode(ctx context.Context, code string) (*domain.WaitlistEntry, error) {
	return r.getEntry(ctx, `access_code = $1`, code)
}

// MarkPurchased consumes an unused access code.
func (r *WaitlistRepository) MarkPurchased(ctx context.Context, code string, at time.Time) (bool, error) {
	query := `
		UPDATE waitlist_entries
		SET purchased = TRUE, purchased_at = $2
		WHERE access_code = $1 AND NOT purchased`

	ct, err := r.pool.Exec(ctx, query, code, at)
	if err != nil {
		return false, fmt.Errorf("mark access code purchased: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// List returns entries ordered by position.
func (r *WaitlistRepository) List(ctx context.Context, skip, limit int) ([]domain.WaitlistEntry, int, error) {
	query := `
		SELECT ` + waitlistColumns + `, count(*) OVER() AS total_count
		FROM waitlist_entries
		ORDER BY position
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()

	var (
		entries = []domain.WaitlistEntry{}
		total   int
	)
	for rows.Next() {
		var e domain.WaitlistEntry
		if err := rows.Scan(append(entryDest(&e), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan waitlist row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate waitlist rows: %w", err)
	}
	return entries, total, nil
}

// Emails returns the distinct emails on the waitlist.
func (r *WaitlistRepository) Emails(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.pool, `SELECT DISTINCT email FROM waitlist_entries ORDER BY email`)
}

func (r *WaitlistRepository) getEntry(ctx context.Context, where string, args ...any) (*domain.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE ` + where

	var e domain.WaitlistEntry
	if err := r.pool.QueryRow(ctx, query, args...).Scan(entryDest(&e)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get waitlist entry: %w", err)
	}
	return &e, nil
}

func entryDest(e *domain.WaitlistEntry) []any {
	return []any{
		&e.ID,
		&e.Email,
		&e.ProductID,
		&e.ProductName,
		&e.Variant,
		&e.Size,
		&e.Position,
		&e.AccessCode,
		&e.Notified,
		&e.Purchased,
		&e.PurchasedAt,
		&e.CreatedAt,
	}
}

// queryStrings runs a single column query and collects the values.
func queryStrings(ctx context.Context, db database.DBTX, query string, args ...any) ([]string, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query strings: %w", err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect strings: %w", err)
	}
	return values, nil
}
