package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory reservation store used in tests and local
// development.
type MemoryStore struct {
	mu      sync.Mutex
	seen    map[string]time.Time // eventID -> reservation expiry
	nowFunc func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen:    make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

func (s *MemoryStore) Reserve(_ context.Context, eventID string, retention time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if expiry, ok := s.seen[eventID]; ok && now.Before(expiry) {
		return false, nil
	}
	s.seen[eventID] = now.Add(retention)
	return true, nil
}
