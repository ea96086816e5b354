package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "webhook:event:"

// RedisStore records event reservations in the shared Redis store, so
// multiple service instances deduplicate against one logical window.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed reservation store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Reserve records eventID with SET NX so the check and the write are one
// atomic operation. Unlike the cache path, a store outage surfaces as an
// error here: guessing "first seen" on a failed reservation would break the
// at-most-once contract.
func (s *RedisStore) Reserve(ctx context.Context, eventID string, retention time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, keyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), retention).Result()
	if err != nil {
		return false, fmt.Errorf("reserve event %s: %w", eventID, err)
	}
	return ok, nil
}
