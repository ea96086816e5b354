package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Local is an in-process hot cache backed by ristretto. It sits in front of
// the shared Redis store to absorb repeated point lookups.
type Local struct {
	rc *ristretto.Cache[string, []byte]
}

// NewLocal creates a Local cache. maxEntries bounds the number of cached
// values (each entry has a cost of 1).
func NewLocal(maxEntries int64) (*Local, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Local{rc: rc}, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.rc.Get(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (l *Local) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	l.rc.SetWithTTL(key, bytes.Clone(val), 1, ttl)
	l.rc.Wait()
	return nil
}

func (l *Local) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		l.rc.Del(key)
	}
	return nil
}

// Invalidate drops the whole local layer. Ristretto has no key iteration, so
// pattern invalidation degrades to a full clear; the shared store still does
// precise pattern deletes.
func (l *Local) Invalidate(_ context.Context, _ string) error {
	l.rc.Clear()
	return nil
}
