package events

import (
	"context"
	"time"

	"github.com/dejobratic/catalog/internal/telemetry"
	"github.com/dejobratic/catalog/internal/webhooks"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableEventBus wraps a bus with tracing and publish latency metrics.
type ObservableEventBus struct {
	bus     webhooks.EventBus
	metrics *Metrics
}

func NewObservableEventBus(bus webhooks.EventBus, metrics *Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishProductEvent(ctx context.Context, eventID, eventType string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishProductEvent")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("event.id", eventID),
		attribute.String("event.type", eventType),
	)

	start := time.Now()
	err := e.bus.PublishProductEvent(ctx, eventID, eventType)
	duration := time.Since(start)

	e.metrics.RecordPublish(ctx, eventType, duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
