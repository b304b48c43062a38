package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeathletics/storefront/pkg/logger"
)

func TestMemoryIdempotencyStore(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, _ = store.Contains(ctx, "evt-1")
	assert.True(t, seen)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(5 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, "evt-1"))

	time.Sleep(15 * time.Millisecond)
	seen, _ := store.Contains(ctx, "evt-1")
	assert.False(t, seen)
	assert.Equal(t, 0, store.Len())
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStore(client, "storefront-notifier", time.Hour)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	assert.True(t, mr.Exists("kafka:processed:storefront-notifier:evt-1"))
	mr.FastForward(2 * time.Hour)
	seen, _ = store.Contains(ctx, "evt-1")
	assert.False(t, seen)
}

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingStore) Add(context.Context, string) error { return errors.New("redis down") }

func TestIdempotentHandler(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, logger.Discard())

	evt := &Event{EventID: "evt-1", EventType: "order.status_changed"}
	require.NoError(t, h(context.Background(), evt))
	require.NoError(t, h(context.Background(), evt))
	assert.Equal(t, 1, calls)

	require.NoError(t, h(context.Background(), &Event{}))
	require.NoError(t, h(context.Background(), &Event{}))
	assert.Equal(t, 3, calls, "events without id always pass through")
}

func TestIdempotentHandler_FailureNotRecorded(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		return errors.New("boom")
	}, logger.Discard())

	assert.Error(t, h(context.Background(), &Event{EventID: "evt-2"}))
	seen, _ := store.Contains(context.Background(), "evt-2")
	assert.False(t, seen)
}

func TestIdempotentHandler_StoreErrorProcessesAnyway(t *testing.T) {
	calls := 0
	h := IdempotentHandler(failingStore{}, func(context.Context, *Event) error {
		calls++
		return nil
	}, logger.Discard())

	require.NoError(t, h(context.Background(), &Event{EventID: "evt-3"}))
	assert.Equal(t, 1, calls)
}
