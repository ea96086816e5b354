package events

import (
	"context"
	"log/slog"
)

// NoopEventBus logs accepted webhook events without forwarding them to a
// broker. Useful until a downstream consumer exists.
type NoopEventBus struct{}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishProductEvent(_ context.Context, eventID, eventType string) error {
	slog.Debug("event::product", "event_id", eventID, "event_type", eventType)
	return nil
}
