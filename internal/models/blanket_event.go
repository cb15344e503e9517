package models

import "time"

// Event types written to the log.
const (
	EventZonesSet    = "ZONES_SET"
	EventDurationSet = "DURATION_SET"
	EventStop        = "STOP"
	EventError       = "ERROR"
	EventRecovered   = "RECOVERED"
)

// BlanketEvent is a single log entry.
type BlanketEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	DeviceID    string    `json:"device_id"`
	Type        string    `json:"type"`        // ZONES_SET | DURATION_SET | STOP | ERROR | RECOVERED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
