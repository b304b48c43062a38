package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/database"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

const constraintSubscriptionDedupe = "email_subscriptions_dedupe_idx"

const subscriptionColumns = `id::text, email, source, COALESCE(product_id, ''), COALESCE(product_name, ''),
	COALESCE(drop_name, ''), created_at`

// SubscriptionRepository implements repository.SubscriptionRepository using PostgreSQL.
type SubscriptionRepository struct {
	pool database.DBTX
}

// NewSubscriptionRepository creates a new PostgreSQL-backed subscription repository.
func NewSubscriptionRepository(pool database.DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Create inserts a subscription. The dedupe index makes a repeat of the same
// email, source and product an ErrAlreadyExists.
func (r *SubscriptionRepository) Create(ctx context.Context, s *domain.EmailSubscription) error {
	query := `
		INSERT INTO email_subscriptions (id, email, source, product_id, product_name, drop_name, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Email,
		s.Source,
		s.ProductID,
		s.ProductName,
		s.Drop,
		s.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, constraintSubscriptionDedupe) {
			return apperrors.AlreadyExists("subscription", "email", s.Email)
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// CountBySource counts subscriptions per source.
func (r *SubscriptionRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT source, COUNT(*) FROM email_subscriptions GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan subscription count: %w", err)
		}
		counts[source] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription counts: %w", err)
	}
	return counts, nil
}

// List returns subscriptions newest first, optionally for one source.
func (r *SubscriptionRepository) List(ctx context.Context, source string, skip, limit int) ([]domain.EmailSubscription, int, error) {
	query := `
		SELECT ` + subscriptionColumns + `, count(*) OVER() AS total_count
		FROM email_subscriptions
		WHERE ($1 = '' OR source = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, source, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var (
		subs  = []domain.EmailSubscription{}
		total int
	)
	for rows.Next() {
		var s domain.EmailSubscription
		if err := rows.Scan(&s.ID, &s.Email, &s.Source, &s.ProductID, &s.ProductName, &s.Drop, &s.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan subscription row: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate subscription rows: %w", err)
	}
	return subs, total, nil
}

// DeleteByEmail removes every subscription of email and returns how many
// went away.
func (r *SubscriptionRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM email_subscriptions WHERE email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("delete subscriptions: %w", err)
	}
	return ct.RowsAffected(), nil
}

// CountSince counts subscriptions created at or after since.
func (r *SubscriptionRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_subscriptions WHERE created_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions since: %w", err)
	}
	return n, nil
}

// Emails returns distinct subscriber emails, optionally for one source.
func (r *SubscriptionRepository) Emails(ctx context.Context, source string) ([]string, error) {
	return queryStrings(ctx, r.pool,
		`SELECT DISTINCT email FROM email_subscriptions WHERE ($1 = '' OR source = $1) ORDER BY email`, source)
}
