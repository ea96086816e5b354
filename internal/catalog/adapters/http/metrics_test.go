package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appmetrics "github.com/dejobratic/catalog/internal/metrics"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func TestRecordRequest(t *testing.T) {
	t.Run("records request count and duration with method, path, and status labels", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordRequest(ctx, "GET", "/v1/products", 200, 500*time.Millisecond)
		metrics.RecordRequest(ctx, "GET", "/v1/products/prod-1", 404, 700*time.Millisecond)

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			t.Fatalf("Failed to collect metrics: %v", err)
		}

		foundCounter := false
		foundHistogram := false

		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name == "catalog_http_requests_total" {
					foundCounter = true
					sum, ok := m.Data.(metricdata.Sum[int64])
					if !ok {
						t.Fatal("Expected Sum[int64] data type")
					}
					if len(sum.DataPoints) != 2 {
						t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
					}
				}
				if m.Name == "catalog_http_request_duration_seconds" {
					foundHistogram = true
					histogram, ok := m.Data.(metricdata.Histogram[float64])
					if !ok {
						t.Fatal("Expected Histogram[float64] data type")
					}
					if len(histogram.DataPoints) != 2 {
						t.Errorf("Expected 2 data points, got %d", len(histogram.DataPoints))
					}
				}
			}
		}

		if !foundCounter {
			t.Error("catalog_http_requests_total metric not found")
		}
		if !foundHistogram {
			t.Error("catalog_http_request_duration_seconds metric not found")
		}
	})
}

func TestWithMetrics(t *testing.T) {
	metrics, _ := newTestMetrics(t)
	registry := appmetrics.NewRegistry()

	statuses := []int{200, 200, 500, 429}
	var i int
	handler := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statuses[i])
		i++
	}), metrics, registry)

	for range statuses {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/products", nil))
	}

	snap := registry.Snapshot()
	if snap.Requests.Total != 4 {
		t.Errorf("expected 4 total requests, got %d", snap.Requests.Total)
	}
	if snap.Requests.Successful != 2 {
		t.Errorf("expected 2 successful requests, got %d", snap.Requests.Successful)
	}
	if snap.Requests.Failed != 1 {
		t.Errorf("expected 1 failed request, got %d", snap.Requests.Failed)
	}
	// 429 rejections are counted by the rate limiter, not here.
	if snap.Requests.RateLimited != 0 {
		t.Errorf("expected 0 rate limited here, got %d", snap.Requests.RateLimited)
	}
}
