package events

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics tracks event publishing latency per event type.
type Metrics struct {
	publishLatency metric.Float64Histogram
}

// NewMetrics registers the event bus instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	publishLatency, err := meter.Float64Histogram(
		"catalog_event_publish_latency_seconds",
		metric.WithDescription("Latency of product event publishes"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("register publish latency histogram: %w", err)
	}
	return &Metrics{publishLatency: publishLatency}, nil
}

func (m *Metrics) RecordPublish(ctx context.Context, eventType string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.publishLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", status),
	))
}
