package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:"

// unlockScript deletes the lock only when it still holds our token, so an
// expired lease taken over by another replica is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements repository.Locker with SET NX PX leases.
type Locker struct {
	client *redis.Client
}

// NewLocker creates a new Redis-backed locker.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// TryLock acquires key for ttl without waiting.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, l.client, []string{lockPrefix + key}, token).Err(); err != nil {
			return fmt.Errorf("redis release lock %s: %w", key, err)
		}
		return nil
	}
	return unlock, true, nil
}
