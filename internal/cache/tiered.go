package cache

import (
	"context"
	"time"
)

// Tiered combines a local (in-process) and a shared (Redis) store. Reads
// check the local layer first; on a shared hit the value is promoted locally.
// Writes and invalidations go to both layers.
type Tiered struct {
	local  Store
	shared Store
}

// NewTiered creates a two-level store.
func NewTiered(local, shared Store) *Tiered {
	return &Tiered{local: local, shared: shared}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := t.local.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}
	v, ok, err := t.shared.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	// Promote to the local layer. The original TTL is unknown here, so the
	// promoted copy rides on the local default eviction.
	_ = t.local.Set(ctx, key, v, 0)
	return v, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = t.shared.Set(ctx, key, val, ttl)
	return t.local.Set(ctx, key, val, ttl)
}

func (t *Tiered) Delete(ctx context.Context, keys ...string) error {
	_ = t.local.Delete(ctx, keys...)
	return t.shared.Delete(ctx, keys...)
}

func (t *Tiered) Invalidate(ctx context.Context, pattern string) error {
	_ = t.local.Invalidate(ctx, pattern)
	return t.shared.Invalidate(ctx, pattern)
}
