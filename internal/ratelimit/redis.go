package ratelimit

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	counterPrefix = "ratelimit:"
	blockPrefix   = "ratelimit:block:"
)

// RedisLimiter is a fixed-window limiter on a shared Redis counter. When
// Redis is unreachable it fails open onto a per-client in-process token
// bucket, so requests stay bounded instead of being dropped or unlimited.
type RedisLimiter struct {
	rdb      *redis.Client
	cfg      Config
	fallback *localFallback
}

// NewRedisLimiter creates a limiter from an existing Redis client.
func NewRedisLimiter(rdb *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		rdb:      rdb,
		cfg:      cfg,
		fallback: newLocalFallback(cfg),
	}
}

// Allow consumes one point for clientKey. The first consumption in a window
// arms the window expiry; exceeding the budget rejects for the rest of the
// window and, when configured, for an additional block duration.
func (l *RedisLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	if l.cfg.BlockDuration > 0 {
		blocked, err := l.rdb.Exists(ctx, blockPrefix+clientKey).Result()
		if err != nil {
			return l.fallback.Allow(clientKey), nil
		}
		if blocked > 0 {
			return false, nil
		}
	}

	key := counterPrefix + clientKey
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return l.fallback.Allow(clientKey), nil
	}
	if count == 1 {
		_ = l.rdb.Expire(ctx, key, l.cfg.Window).Err()
	}

	if count > int64(l.cfg.Points) {
		if l.cfg.BlockDuration > 0 {
			_ = l.rdb.Set(ctx, blockPrefix+clientKey, 1, l.cfg.BlockDuration).Err()
		}
		return false, nil
	}
	return true, nil
}

// localFallback approximates the shared budget with per-client token buckets
// when Redis is down. Buckets refill at Points per Window.
type localFallback struct {
	mu      sync.Mutex
	cfg     Config
	buckets map[string]*rate.Limiter
}

func newLocalFallback(cfg Config) *localFallback {
	return &localFallback{
		cfg:     cfg,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (f *localFallback) Allow(clientKey string) bool {
	f.mu.Lock()
	lim, ok := f.buckets[clientKey]
	if !ok {
		perSecond := float64(f.cfg.Points) / f.cfg.Window.Seconds()
		lim = rate.NewLimiter(rate.Limit(perSecond), f.cfg.Points)
		f.buckets[clientKey] = lim
	}
	f.mu.Unlock()
	return lim.Allow()
}
