package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore()
	store.now = clock.Now
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_Remember(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	t.Run("stores a new key", func(t *testing.T) {
		stored, err := store.Remember(ctx, "req-1", "settlement-a", time.Hour)
		require.NoError(t, err)
		assert.True(t, stored)
	})

	t.Run("keeps the first value for a used key", func(t *testing.T) {
		stored, err := store.Remember(ctx, "req-2", "settlement-a", time.Hour)
		require.NoError(t, err)
		assert.True(t, stored)

		stored, err = store.Remember(ctx, "req-2", "settlement-b", time.Hour)
		require.NoError(t, err)
		assert.False(t, stored)

		value, ok, err := store.Lookup(ctx, "req-2")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "settlement-a", value)
	})

	t.Run("reuses a key after expiration", func(t *testing.T) {
		_, err := store.Remember(ctx, "req-3", "old", time.Minute)
		require.NoError(t, err)
		clock.Advance(time.Minute)

		stored, err := store.Remember(ctx, "req-3", "new", time.Minute)
		require.NoError(t, err)
		assert.True(t, stored)

		value, _, err := store.Lookup(ctx, "req-3")
		require.NoError(t, err)
		assert.Equal(t, "new", value)
	})
}

func TestInMemoryIdempotencyStore_Lookup(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Lookup(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Remember(ctx, "req", "value", time.Minute)
	require.NoError(t, err)
	value, ok, err := store.Lookup(ctx, "req")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	clock.Advance(2 * time.Minute)
	_, ok, err = store.Lookup(ctx, "req")
	require.NoError(t, err)
	assert.False(t, ok, "expired keys are not returned")
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Remember(ctx, "short-1", "a", time.Millisecond)
	_, _ = store.Remember(ctx, "short-2", "b", time.Millisecond)
	_, _ = store.Remember(ctx, "long", "c", time.Hour)
	assert.Equal(t, 3, store.Size())

	clock.Advance(time.Second)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	_, ok, err := store.Lookup(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	const numGoroutines = 100

	results := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			stored, err := store.Remember(ctx, "same-key", "v", time.Hour)
			results <- err == nil && stored
		}()
	}

	winners := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one caller stores the key")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
