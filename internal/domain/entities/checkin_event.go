package entities

import (
	"time"
)

// CheckInEventType identifies the kind of pipeline event
type CheckInEventType string

const (
	CheckInEventProcessed CheckInEventType = "checkin.processed"
)

// CheckInEvent is published on the event bus after a call has been processed
// into a check-in. Consumers (dashboards, notifiers) subscribe to these;
// publishing is best-effort and never blocks the pipeline.
type CheckInEvent struct {
	ID        string           `json:"id"`
	Type      CheckInEventType `json:"type"`
	CheckinID string           `json:"checkin_id"`
	CallID    string           `json:"call_id"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
