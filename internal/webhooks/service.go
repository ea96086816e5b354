package webhooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/catalog/internal/idempotency"
	"github.com/dejobratic/catalog/internal/metrics"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidEvent marks a delivery that failed validation. It never reaches
// the idempotency store, so a corrected redelivery with the same id is still
// treated as first-seen.
var ErrInvalidEvent = errors.New("invalid webhook event")

// EventBus publishes accepted events for downstream consumers.
type EventBus interface {
	PublishProductEvent(ctx context.Context, eventID, eventType string) error
}

// CacheInvalidator drops cached catalog entries after a change notification.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context, pattern string) error
}

// Service deduplicates and processes inbound webhook deliveries.
type Service struct {
	store       idempotency.Store
	bus         EventBus
	invalidator CacheInvalidator
	registry    *metrics.Registry
	logger      *slog.Logger
	validate    *validator.Validate
	retention   time.Duration
}

// NewService wires required dependencies. Retention bounds how long a
// processed event id blocks redeliveries.
func NewService(
	store idempotency.Store,
	bus EventBus,
	invalidator CacheInvalidator,
	registry *metrics.Registry,
	logger *slog.Logger,
	retention time.Duration,
) *Service {
	return &Service{
		store:       store,
		bus:         bus,
		invalidator: invalidator,
		registry:    registry,
		logger:      logger,
		validate:    validator.New(),
		retention:   retention,
	}
}

// Process validates a delivery, reserves its id, and runs business logic
// exactly once per retention window. Duplicates are acknowledged without
// re-processing.
func (s *Service) Process(ctx context.Context, event Event) (Outcome, error) {
	if err := s.validate.Struct(event); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	s.registry.RecordWebhookReceived()

	first, err := s.store.Reserve(ctx, event.EventID, s.retention)
	if err != nil {
		return "", fmt.Errorf("reserve event %s: %w", event.EventID, err)
	}

	if !first {
		s.registry.RecordWebhookDuplicate()
		s.logger.Info("duplicate webhook delivery acknowledged",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		return OutcomeDuplicate, nil
	}

	s.handle(ctx, event)
	s.registry.RecordWebhookProcessed()

	s.logger.Info("webhook event processed",
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return OutcomeProcessed, nil
}

// handle runs the side effects of an accepted event. Failures here are
// logged but do not fail the ack: the event id is already reserved and the
// sender must not redeliver.
func (s *Service) handle(ctx context.Context, event Event) {
	if strings.HasPrefix(event.EventType, "product.") {
		if err := s.invalidator.InvalidateCache(ctx, "products:*"); err != nil {
			s.logger.Warn("cache invalidation failed after product event",
				"event_id", event.EventID,
				"error", err,
			)
		}
	}

	if err := s.bus.PublishProductEvent(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Warn("event publish failed",
			"event_id", event.EventID,
			"error", err,
		)
	}
}
