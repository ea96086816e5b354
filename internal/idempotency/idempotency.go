// Package idempotency deduplicates inbound webhook events by id within a
// fixed retention window.
package idempotency

import (
	"context"
	"time"
)

// Store reserves event ids so each event is processed at most once per
// retention window. Reservation is atomic: two concurrent deliveries of the
// same id see exactly one true result.
//
// The reservation is recorded before the caller runs its business logic, so
// a crash in between leaves the event marked seen without its side effects
// (at-least-once effective semantics under crash).
type Store interface {
	// Reserve records eventID for the given retention window. It returns
	// true when the id was first seen (the caller should process the event)
	// and false when the id is a duplicate.
	Reserve(ctx context.Context, eventID string, retention time.Duration) (bool, error)
}
