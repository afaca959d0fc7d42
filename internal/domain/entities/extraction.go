package entities

import (
	"strings"
)

// CheckInSummary is the model-produced summary of one check-in. The pipeline
// overwrites ID, Type, Timestamp and PatientName after extraction; the model
// is never trusted to set them.
type CheckInSummary struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Summary     string   `json:"summary"`
	Timestamp   string   `json:"timestamp"`
	Sentiment   string   `json:"sentiment"`
	Topics      []string `json:"topics"`
	PatientName string   `json:"patient_name"`
}

// MedicationMention is one medication as it appears in a transcript.
type MedicationMention struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Timing    string `json:"timing"`
}

// FoodMention is one food or drink item as it appears in a transcript.
type FoodMention struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Calories int    `json:"calories"`
	MealType string `json:"meal_type"`
}

// SymptomMention is one symptom as it appears in a transcript.
type SymptomMention struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Duration string `json:"duration"`
	Notes    string `json:"notes"`
}

// ExtractionResult is the typed output of structured extraction over one
// transcript. A nil CheckinSummary marks the result as unusable and callers
// fall back to an empty result.
type ExtractionResult struct {
	CheckinSummary *CheckInSummary     `json:"checkin_summary"`
	Medications    []MedicationMention `json:"medications"`
	Foods          []FoodMention       `json:"foods"`
	Symptoms       []SymptomMention    `json:"symptoms"`
}

// HasStructuredData reports whether any named entity was extracted.
func (r *ExtractionResult) HasStructuredData() bool {
	if r == nil {
		return false
	}
	for _, m := range r.Medications {
		if strings.TrimSpace(m.Name) != "" {
			return true
		}
	}
	for _, f := range r.Foods {
		if strings.TrimSpace(f.Name) != "" {
			return true
		}
	}
	for _, s := range r.Symptoms {
		if strings.TrimSpace(s.Name) != "" {
			return true
		}
	}
	return false
}
