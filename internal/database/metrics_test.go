package database

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*sdkmetric.ManualReader, *Metrics) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return reader, metrics
}

func TestRecordQuery(t *testing.T) {
	reader, metrics := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordQuery(ctx, "get_product_by_id", 0.05)
	metrics.RecordQuery(ctx, "list_products_page", 0.12)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() failed: %v", err)
	}

	var hist metricdata.Histogram[float64]
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "catalog_db_query_duration_seconds" {
				var ok bool
				hist, ok = m.Data.(metricdata.Histogram[float64])
				if !ok {
					t.Fatalf("expected Histogram[float64], got %T", m.Data)
				}
				found = true
			}
		}
	}
	if !found {
		t.Fatal("catalog_db_query_duration_seconds not collected")
	}

	// One data point per distinct operation label.
	if len(hist.DataPoints) != 2 {
		t.Errorf("expected 2 data points, got %d", len(hist.DataPoints))
	}
}
