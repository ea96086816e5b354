// Package breaker provides a thread-safe circuit breaker guarding the
// upstream feed.
//
// States:
//   - Closed: requests flow normally; outcomes are counted over a rolling
//     window and the breaker trips when the failure percentage exceeds the
//     configured threshold.
//   - Open: requests are rejected; after OpenTimeout the breaker transitions
//     to HalfOpen.
//   - HalfOpen: a single probe request is allowed through; success closes the
//     breaker, failure reopens it and restarts the cool-down.
package breaker

import (
	"sync"
	"time"
)

// State represents the current circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns the status label reported to the metrics registry.
func (s State) String() string {
	switch s {
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// Config holds the circuit breaker parameters.
type Config struct {
	// ErrorThresholdPct is the failure percentage over the rolling window
	// that trips the breaker from Closed to Open.
	ErrorThresholdPct int

	// MinRequests is the minimum number of requests that must be observed in
	// the current window before the failure percentage is evaluated.
	MinRequests int

	// WindowInterval is the length of the rolling window over which the
	// failure percentage is computed. Counts reset when the window rolls over.
	WindowInterval time.Duration

	// OpenTimeout is how long the breaker stays Open before allowing a
	// HalfOpen probe.
	OpenTimeout time.Duration

	// OnStateChange, when set, is invoked synchronously on every transition
	// with the previous and new state. It must not call back into the breaker.
	OnStateChange func(from, to State)
}

// Breaker is a rolling-ratio circuit breaker. All methods are safe for
// concurrent use.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state       State
	requests    int
	failures    int
	windowStart time.Time
	openedAt    time.Time
	probing     bool

	nowFunc func() time.Time // for testing; defaults to time.Now
}

// New creates a Breaker with the given configuration.
func New(cfg Config) *Breaker {
	b := &Breaker{
		cfg:     cfg,
		state:   Closed,
		nowFunc: time.Now,
	}
	b.windowStart = b.now()
	return b
}

// State returns the current state. In Open state it may auto-transition to
// HalfOpen when the cool-down has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpenTimeout()
	return b.state
}

// Allow reports whether a call may proceed. It returns true when the breaker
// is Closed, or HalfOpen with the single probe slot still free. A rejection
// must not be retried by the caller.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkOpenTimeout()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default: // Open
		return false
	}
}

// OnSuccess records a successful call.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.rotateWindow()
		b.requests++
	case HalfOpen:
		b.probing = false
		b.transition(Closed)
		b.resetWindow()
	}
}

// OnFailure records a failed call.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.rotateWindow()
		b.requests++
		b.failures++
		if b.requests >= b.cfg.MinRequests && b.failures*100 >= b.cfg.ErrorThresholdPct*b.requests {
			b.transition(Open)
			b.openedAt = b.now()
		}
	case HalfOpen:
		b.probing = false
		b.transition(Open)
		b.openedAt = b.now()
	}
}

// checkOpenTimeout transitions Open to HalfOpen when the cool-down has
// elapsed. Must be called with b.mu held.
func (b *Breaker) checkOpenTimeout() {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.transition(HalfOpen)
		b.probing = false
	}
}

// rotateWindow discards counts once the window interval has passed. Must be
// called with b.mu held.
func (b *Breaker) rotateWindow() {
	if now := b.now(); now.Sub(b.windowStart) >= b.cfg.WindowInterval {
		b.windowStart = now
		b.requests = 0
		b.failures = 0
	}
}

func (b *Breaker) resetWindow() {
	b.windowStart = b.now()
	b.requests = 0
	b.failures = 0
}

// transition changes state and fires the notification callback. Must be
// called with b.mu held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

func (b *Breaker) now() time.Time {
	if b.nowFunc != nil {
		return b.nowFunc()
	}
	return time.Now()
}
