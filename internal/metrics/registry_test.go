package metrics_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dejobratic/catalog/internal/metrics"
)

func TestRegistryCounters(t *testing.T) {
	r := metrics.NewRegistry()

	r.RecordRequest()
	r.RecordRequest()
	r.RecordSuccess(10 * time.Millisecond)
	r.RecordFailure()
	r.RecordRateLimited()

	r.RecordQuery(true)
	r.RecordQuery(false)
	r.RecordQuery(false)

	r.RecordTokenFetch()
	r.RecordTokenCacheHit()
	r.RecordTokenRefresh()

	r.RecordWebhookReceived()
	r.RecordWebhookDuplicate()
	r.RecordWebhookProcessed()

	r.RecordUpstreamCall(20*time.Millisecond, false)
	r.RecordUpstreamCall(40*time.Millisecond, true)

	s := r.Snapshot()

	if s.Requests.Total != 2 {
		t.Errorf("expected 2 total requests, got %d", s.Requests.Total)
	}
	if s.Requests.Successful != 1 || s.Requests.Failed != 1 || s.Requests.RateLimited != 1 {
		t.Errorf("unexpected request counters: %+v", s.Requests)
	}
	if s.Catalog.QueriesTotal != 3 || s.Catalog.CacheHits != 1 || s.Catalog.CacheMisses != 2 {
		t.Errorf("unexpected catalog counters: %+v", s.Catalog)
	}
	if s.OAuth.TokenFetches != 1 || s.OAuth.TokenCacheHits != 1 || s.OAuth.Refreshes != 1 {
		t.Errorf("unexpected oauth counters: %+v", s.OAuth)
	}
	if s.Webhooks.Received != 1 || s.Webhooks.Duplicate != 1 || s.Webhooks.Processed != 1 {
		t.Errorf("unexpected webhook counters: %+v", s.Webhooks)
	}
	if s.Upstream.Calls != 2 || s.Upstream.Errors != 1 {
		t.Errorf("unexpected upstream counters: %+v", s.Upstream)
	}
	if s.Upstream.AvgCallTimeMs != 30 {
		t.Errorf("expected upstream avg 30ms, got %v", s.Upstream.AvgCallTimeMs)
	}
	if s.Upstream.CircuitBreakerStatus != metrics.StatusClosed {
		t.Errorf("expected default circuit status CLOSED, got %s", s.Upstream.CircuitBreakerStatus)
	}
}

func TestRegistryCircuitStatus(t *testing.T) {
	r := metrics.NewRegistry()

	r.SetCircuitStatus(metrics.StatusOpen)
	if got := r.Snapshot().Upstream.CircuitBreakerStatus; got != metrics.StatusOpen {
		t.Errorf("expected OPEN, got %s", got)
	}

	r.SetCircuitStatus(metrics.StatusHalfOpen)
	if got := r.Snapshot().Upstream.CircuitBreakerStatus; got != metrics.StatusHalfOpen {
		t.Errorf("expected HALF_OPEN, got %s", got)
	}
}

func TestRegistryReset(t *testing.T) {
	r := metrics.NewRegistry()

	r.RecordRequest()
	r.RecordSuccess(100 * time.Millisecond)
	r.RecordQuery(true)
	r.SetCircuitStatus(metrics.StatusOpen)

	r.Reset()
	s := r.Snapshot()

	if s.Requests.Total != 0 || s.Requests.Successful != 0 {
		t.Errorf("expected request counters cleared, got %+v", s.Requests)
	}
	if s.Catalog.QueriesTotal != 0 || s.Catalog.CacheHits != 0 {
		t.Errorf("expected catalog counters cleared, got %+v", s.Catalog)
	}
	if s.Catalog.AvgResponseTimeMs != 0 {
		t.Errorf("expected response window cleared, got %v", s.Catalog.AvgResponseTimeMs)
	}
	if s.Upstream.CircuitBreakerStatus != metrics.StatusClosed {
		t.Errorf("expected circuit status reset to CLOSED, got %s", s.Upstream.CircuitBreakerStatus)
	}
}

func TestMovingAverageEvictsOldSamples(t *testing.T) {
	r := metrics.NewRegistry()

	// The upstream window holds 100 samples; push 150 and verify only the
	// most recent 100 contribute.
	for range 50 {
		r.RecordUpstreamCall(1000*time.Millisecond, false)
	}
	for range 100 {
		r.RecordUpstreamCall(10*time.Millisecond, false)
	}

	if avg := r.Snapshot().Upstream.AvgCallTimeMs; avg != 10 {
		t.Errorf("expected avg 10ms after eviction, got %v", avg)
	}
}

func TestMetricsHandler(t *testing.T) {
	r := metrics.NewRegistry()
	r.RecordRequest()

	mux := http.NewServeMux()
	metrics.NewHandler(r).Register(mux)

	t.Run("snapshot", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body struct {
			Metrics metrics.Snapshot `json:"metrics"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Metrics.Requests.Total != 1 {
			t.Errorf("expected 1 request in snapshot, got %d", body.Metrics.Requests.Total)
		}
	})

	t.Run("reset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/metrics/reset", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := r.Snapshot().Requests.Total; got != 0 {
			t.Errorf("expected counters cleared after reset, got %d", got)
		}
	})

	t.Run("reset rejects GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics/reset", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}
