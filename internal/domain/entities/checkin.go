package entities

import (
	"time"
)

// CheckInType identifies how a check-in was captured
type CheckInType string

const (
	CheckInTypeCall  CheckInType = "call"
	CheckInTypeVoice CheckInType = "voice"
	CheckInTypeText  CheckInType = "text"
)

// CheckInStatus tracks the review workflow state of a check-in
type CheckInStatus string

const (
	CheckInStatusPending  CheckInStatus = "pending"
	CheckInStatusReviewed CheckInStatus = "reviewed"
	CheckInStatusFlagged  CheckInStatus = "flagged"
	CheckInStatusArchived CheckInStatus = "archived"
)

// CheckIn represents one clinical check-in derived from a call transcript or
// submitted manually. CallRecordID is nullable: manual check-ins have no call
// behind them. At most one check-in may exist per call record.
type CheckIn struct {
	ID           string        `json:"id" db:"id"`
	CheckinID    string        `json:"checkin_id" db:"checkin_id"`
	CallRecordID *string       `json:"call_record_id,omitempty" db:"call_record_id"`
	UserID       *string       `json:"user_id,omitempty" db:"user_id"`
	Type         CheckInType   `json:"checkin_type" db:"checkin_type"`
	Summary      string        `json:"summary" db:"summary"`
	RawContent   string        `json:"raw_content" db:"raw_content"`
	Sentiment    string        `json:"sentiment" db:"sentiment"`
	Topics       []string      `json:"topics" db:"topics"`

	HasMedications bool `json:"has_medications" db:"has_medications"`
	HasNutrition   bool `json:"has_nutrition" db:"has_nutrition"`
	HasSymptoms    bool `json:"has_symptoms" db:"has_symptoms"`

	IsProcessed bool       `json:"is_processed" db:"is_processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	ModelUsed   string     `json:"model_used" db:"model_used"`

	Status    CheckInStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}
