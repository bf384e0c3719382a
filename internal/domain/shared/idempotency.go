package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of a client request keyed by an
// idempotency key, so a retried request can be answered with the first result.
type IdempotencyStore interface {
	// Remember stores value under key if the key is unused.
	// Returns true if the value was stored, false if the key already held a value.
	Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Lookup returns the value stored under key and whether it exists
	Lookup(ctx context.Context, key string) (string, bool, error)

	// Close closes the store and releases resources
	Close() error
}
