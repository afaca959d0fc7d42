package entities

import (
	"time"
)

// CallDirection indicates who initiated the call
type CallDirection string

const (
	CallDirectionInbound  CallDirection = "inbound"
	CallDirectionOutbound CallDirection = "outbound"
)

// CallRecord represents one raw voice call as reported by the telephony
// provider. The provider-assigned CallID is the natural key; a record is
// written once by the sync stage and never updated apart from the
// processed flag.
type CallRecord struct {
	ID              string        `json:"id" db:"id"`
	CallID          string        `json:"call_id" db:"call_id"`
	UserID          *string       `json:"user_id,omitempty" db:"user_id"`
	Phone           string        `json:"phone" db:"phone"`
	Direction       CallDirection `json:"direction" db:"direction"`
	DurationSeconds int           `json:"duration_seconds" db:"duration_seconds"`
	StartedAt       time.Time     `json:"started_at" db:"started_at"`
	Processed       bool          `json:"processed" db:"processed"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
}

// CallTranscript holds the full transcript text for a call. Owned 1:1 by a
// CallRecord and immutable once stored.
type CallTranscript struct {
	ID           string    `json:"id" db:"id"`
	CallRecordID string    `json:"call_record_id" db:"call_record_id"`
	Content      string    `json:"content" db:"content"`
	Summary      string    `json:"summary" db:"summary"`
	Language     string    `json:"language" db:"language"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
