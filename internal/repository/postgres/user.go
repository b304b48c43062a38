package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/database"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

const userColumns = `user_id, email, name, COALESCE(picture, ''), COALESCE(password_hash, ''), auth_provider,
	COALESCE(first_order_discount_code, ''), has_used_first_order_discount, order_count, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (user_id, email, name, picture, password_hash, auth_provider, first_order_discount_code,
			has_used_first_order_discount, order_count, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		u.UserID,
		u.Email,
		u.Name,
		u.Picture,
		u.PasswordHash,
		u.AuthProvider,
		u.FirstOrderDiscountCode,
		u.HasUsedFirstOrderDiscount,
		u.OrderCount,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getUser(ctx, `user_id = $1`, userID)
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, `email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

// UpsertIdentity inserts a federated user or refreshes the name and picture
// of the account that already owns the email.
func (r *UserRepository) UpsertIdentity(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	query := `
		INSERT INTO users (user_id, email, name, picture, auth_provider, first_order_discount_code, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
		    picture = COALESCE(EXCLUDED.picture, users.picture),
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted`

	var (
		out     domain.User
		created bool
	)
	err := r.pool.QueryRow(ctx, query,
		u.UserID,
		u.Email,
		u.Name,
		u.Picture,
		u.AuthProvider,
		u.FirstOrderDiscountCode,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(append(userDest(&out), &created)...)
	if err != nil {
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}
	return &out, created, nil
}

// UseFirstOrderDiscount flips the welcome code flag once.
func (r *UserRepository) UseFirstOrderDiscount(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE users
		SET has_used_first_order_discount = TRUE, order_count = order_count + 1, updated_at = NOW()
		WHERE user_id = $1 AND NOT has_used_first_order_discount`

	ct, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("use first order discount: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Delete removes a user. Sessions go with it through the foreign key.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}
	return nil
}

// List returns users newest first with the total count.
func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]domain.User, int, error) {
	query := `
		SELECT ` + userColumns + `, count(*) OVER() AS total_count
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var (
		users = []domain.User{}
		total int
	)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(append(userDest(&u), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, total, nil
}

// CountSince counts users created at or after since.
func (r *UserRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Emails returns every account email.
func (r *UserRepository) Emails(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.pool, `SELECT email FROM users ORDER BY email`)
}

func (r *UserRepository) getUser(ctx context.Context, where string, args ...any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var u domain.User
	if err := r.pool.QueryRow(ctx, query, args...).Scan(userDest(&u)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func userDest(u *domain.User) []any {
	return []any{
		&u.UserID,
		&u.Email,
		&u.Name,
		&u.Picture,
		&u.PasswordHash,
		&u.AuthProvider,
		&u.FirstOrderDiscountCode,
		&u.HasUsedFirstOrderDiscount,
		&u.OrderCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}

// --- Session Repository ---

// SessionRepository implements repository.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool database.DBTX
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(pool database.DBTX) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession stores a login session.
func (r *SessionRepository) CreateSession(ctx context.Context, s *domain.UserSession) error {
	query := `
		INSERT INTO user_sessions (session_token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, query, s.SessionToken, s.UserID, s.ExpiresAt, s.CreatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session for token. Expiry is left to the caller.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (*domain.UserSession, error) {
	query := `SELECT session_token, user_id, expires_at, created_at FROM user_sessions WHERE session_token = $1`

	var s domain.UserSession
	if err := r.pool.QueryRow(ctx, query, token).Scan(&s.SessionToken, &s.UserID, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session. Deleting an unknown token is not an error.
func (r *SessionRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE session_token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
