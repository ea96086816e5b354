package webhooks

import (
	"encoding/json"
	"time"
)

// Event is an inbound provider notification. EventID is the global
// deduplication key.
type Event struct {
	EventID   string          `json:"event_id" validate:"required"`
	EventType string          `json:"event_type" validate:"required"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Outcome reports what happened to a delivery. Both outcomes are
// acknowledged to the sender; only first-seen events run business logic.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
)
