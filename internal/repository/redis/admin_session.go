package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const adminSessionPrefix = "admin:session:"

// AdminSessionStore implements repository.AdminSessionStore using Redis.
type AdminSessionStore struct {
	client *redis.Client
}

// NewAdminSessionStore creates a new Redis-backed admin session store.
func NewAdminSessionStore(client *redis.Client) *AdminSessionStore {
	return &AdminSessionStore{client: client}
}

// Create stores token for ttl.
func (s *AdminSessionStore) Create(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, adminSessionPrefix+token, time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("redis set admin session: %w", err)
	}
	return nil
}

// Exists reports whether token is a live session.
func (s *AdminSessionStore) Exists(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, adminSessionPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists admin session: %w", err)
	}
	return n > 0, nil
}

// Delete ends a session.
func (s *AdminSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, adminSessionPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis del admin session: %w", err)
	}
	return nil
}
