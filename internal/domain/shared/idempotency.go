package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys (event IDs, Idempotency-Key headers)
// that were already processed.
type IdempotencyStore interface {
	// MarkProcessed returns true if the key was newly marked and false if
	// it had been seen within its TTL.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets a key so a failed request can be retried.
	Release(ctx context.Context, key string) error

	Close() error
}

// DefaultIdempotencyTTL is used when no TTL is configured.
const DefaultIdempotencyTTL = 24 * time.Hour
