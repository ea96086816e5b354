// Package cache provides the shared key-value store contract used by the
// read path, with a Redis-backed implementation, an in-process ristretto
// layer, and an in-memory implementation for tests.
package cache

import (
	"context"
	"time"
)

// Store is the caching contract consumed by the read path. Implementations
// fail open: a store outage is reported as a miss, never as a request
// failure.
type Store interface {
	// Get retrieves a value by key. The boolean indicates a cache hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL. A zero TTL means the
	// entry has no automatic expiration.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error

	// Invalidate removes every key matching the glob pattern.
	Invalidate(ctx context.Context, pattern string) error
}
