package http

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the OTel instruments for the HTTP surface.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
}

// NewMetrics registers the HTTP instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestDuration, err := meter.Float64Histogram(
		"catalog_http_request_duration_seconds",
		metric.WithDescription("Catalog HTTP request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("register request duration histogram: %w", err)
	}

	requestsTotal, err := meter.Int64Counter(
		"catalog_http_requests_total",
		metric.WithDescription("Total catalog HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("register requests counter: %w", err)
	}

	return &Metrics{requestDuration: requestDuration, requestsTotal: requestsTotal}, nil
}

// RecordRequest records one completed request. Duration is labeled without
// the status code to keep histogram cardinality bounded.
func (m *Metrics) RecordRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	routeAttrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
	}
	m.requestsTotal.Add(ctx, 1,
		metric.WithAttributes(append(routeAttrs, attribute.Int("status_code", statusCode))...))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(routeAttrs...))
}
