package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count     int
	startedAt time.Time
}

// MemoryLimiter is a single-process fixed-window limiter used in tests and
// local development.
type MemoryLimiter struct {
	mu      sync.Mutex
	cfg     Config
	windows map[string]*window
	blocked map[string]time.Time
	nowFunc func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
		blocked: make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, clientKey string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	if until, ok := l.blocked[clientKey]; ok {
		if now.Before(until) {
			return false, nil
		}
		delete(l.blocked, clientKey)
	}

	w, ok := l.windows[clientKey]
	if !ok || now.Sub(w.startedAt) >= l.cfg.Window {
		w = &window{startedAt: now}
		l.windows[clientKey] = w
	}

	w.count++
	if w.count > l.cfg.Points {
		if l.cfg.BlockDuration > 0 {
			l.blocked[clientKey] = now.Add(l.cfg.BlockDuration)
		}
		return false, nil
	}
	return true, nil
}
