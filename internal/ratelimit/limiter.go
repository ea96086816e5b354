// Package ratelimit provides per-client admission control backed by a shared
// Redis counter, so multiple service instances enforce one logical budget.
package ratelimit

import (
	"context"
	"time"
)

// Config holds the admission budget parameters.
type Config struct {
	// Points is the number of admissions granted per client per window.
	Points int

	// Window is the fixed window length over which points are counted.
	Window time.Duration

	// BlockDuration, when positive, keeps a client rejected for this long
	// after it exhausts its budget, beyond the normal window expiry.
	BlockDuration time.Duration
}

// Limiter decides whether a request from the given client identity may
// proceed. Each call consumes one point on admission.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) (bool, error)
}
