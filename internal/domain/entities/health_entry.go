package entities

import (
	"time"
)

// MedicationEntry is one medication mention extracted from a check-in.
// Entries are owned by their check-in but carry a direct user and call
// reference for query convenience.
type MedicationEntry struct {
	ID           string    `json:"id" db:"id"`
	CheckinID    string    `json:"checkin_id" db:"checkin_id"`
	UserID       *string   `json:"user_id,omitempty" db:"user_id"`
	CallRecordID *string   `json:"call_record_id,omitempty" db:"call_record_id"`
	Name         string    `json:"name" db:"name"`
	Dosage       string    `json:"dosage" db:"dosage"`
	Frequency    string    `json:"frequency" db:"frequency"`
	Timing       string    `json:"timing" db:"timing"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// FoodLogEntry is one food or drink mention extracted from a check-in.
type FoodLogEntry struct {
	ID           string    `json:"id" db:"id"`
	CheckinID    string    `json:"checkin_id" db:"checkin_id"`
	UserID       *string   `json:"user_id,omitempty" db:"user_id"`
	CallRecordID *string   `json:"call_record_id,omitempty" db:"call_record_id"`
	Name         string    `json:"name" db:"name"`
	Quantity     string    `json:"quantity" db:"quantity"`
	Calories     int       `json:"calories" db:"calories"`
	MealType     string    `json:"meal_type" db:"meal_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SymptomEntry is one symptom mention extracted from a check-in.
type SymptomEntry struct {
	ID           string    `json:"id" db:"id"`
	CheckinID    string    `json:"checkin_id" db:"checkin_id"`
	UserID       *string   `json:"user_id,omitempty" db:"user_id"`
	CallRecordID *string   `json:"call_record_id,omitempty" db:"call_record_id"`
	Name         string    `json:"name" db:"name"`
	Severity     string    `json:"severity" db:"severity"`
	Duration     string    `json:"duration" db:"duration"`
	Notes        string    `json:"notes" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
