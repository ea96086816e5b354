package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(cfg Config) (*MemoryLimiter, *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(cfg)
	l.nowFunc = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiterBudget(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(Config{Points: 100, Window: time.Minute})

	for i := range 100 {
		allowed, err := l.Allow(ctx, "client-a")
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("expected request %d admitted", i+1)
		}
	}

	allowed, err := l.Allow(ctx, "client-a")
	if err != nil {
		t.Fatalf("allow 101: %v", err)
	}
	if allowed {
		t.Fatal("expected request 101 rejected")
	}
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	ctx := context.Background()
	l, now := newTestLimiter(Config{Points: 2, Window: time.Minute})

	l.Allow(ctx, "c")
	l.Allow(ctx, "c")
	if allowed, _ := l.Allow(ctx, "c"); allowed {
		t.Fatal("expected rejection once budget exhausted")
	}

	*now = now.Add(61 * time.Second)
	if allowed, _ := l.Allow(ctx, "c"); !allowed {
		t.Fatal("expected admission after window reset")
	}
}

func TestMemoryLimiterBlockDuration(t *testing.T) {
	ctx := context.Background()
	l, now := newTestLimiter(Config{Points: 1, Window: time.Minute, BlockDuration: 5 * time.Minute})

	l.Allow(ctx, "c")
	if allowed, _ := l.Allow(ctx, "c"); allowed {
		t.Fatal("expected rejection")
	}

	// Window has reset but the block is still active.
	*now = now.Add(2 * time.Minute)
	if allowed, _ := l.Allow(ctx, "c"); allowed {
		t.Fatal("expected rejection while blocked")
	}

	*now = now.Add(4 * time.Minute)
	if allowed, _ := l.Allow(ctx, "c"); !allowed {
		t.Fatal("expected admission after block expires")
	}
}

func TestMemoryLimiterIsolatesClients(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(Config{Points: 1, Window: time.Minute})

	l.Allow(ctx, "a")
	if allowed, _ := l.Allow(ctx, "a"); allowed {
		t.Fatal("expected client a exhausted")
	}
	if allowed, _ := l.Allow(ctx, "b"); !allowed {
		t.Fatal("expected client b unaffected")
	}
}

func TestLocalFallbackBoundsAdmissions(t *testing.T) {
	f := newLocalFallback(Config{Points: 5, Window: time.Minute})

	admitted := 0
	for range 10 {
		if f.Allow("c") {
			admitted++
		}
	}
	if admitted != 5 {
		t.Fatalf("expected 5 admissions from fallback burst, got %d", admitted)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr host", "10.0.0.1:52114", "", "10.0.0.1"},
		{"forwarded single", "10.0.0.1:52114", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain", "10.0.0.1:52114", "203.0.113.7, 70.41.3.18", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientKey(r); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
