package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the OpenTelemetry instruments for repository query timing.
type Metrics struct {
	queryDuration metric.Float64Histogram
}

// NewMetrics registers the database instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	queryDuration, err := meter.Float64Histogram(
		"catalog_db_query_duration_seconds",
		metric.WithDescription("Duration of catalog repository queries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("register query duration histogram: %w", err)
	}
	return &Metrics{queryDuration: queryDuration}, nil
}

// RecordQuery records one repository call labeled by its operation name.
func (m *Metrics) RecordQuery(ctx context.Context, operation string, durationSeconds float64) {
	m.queryDuration.Record(ctx, durationSeconds,
		metric.WithAttributes(attribute.String("operation", operation)))
}
