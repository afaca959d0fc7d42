package openai

import (
	"encoding/json"
	"fmt"

	"github.com/carevoice/backend/internal/domain/entities"
)

const extractionSystemPrompt = `You are a clinical data extraction assistant for a patient-health application. You receive the transcript of a patient's voice call and return ONLY valid JSON with this schema:
{
  "checkin_summary": {
    "summary": string (2-3 sentences describing how the patient is doing),
    "sentiment": string (one of: positive, neutral, negative, mixed),
    "topics": string[] (1-6 short lowercase topics mentioned in the call)
  },
  "medications": [{"name": string, "dosage": string, "frequency": string, "timing": string}],
  "foods": [{"name": string, "quantity": string, "calories": integer, "meal_type": string}],
  "symptoms": [{"name": string, "severity": string, "duration": string, "notes": string}]
}
Extract ONLY what is explicitly stated in the transcript. Do not infer medications, foods or symptoms that are not mentioned. Leave dosage, quantity, severity and similar fields as empty strings when the transcript does not state them, and calories as 0 when not stated. Do not include timestamps unless the patient states one explicitly. Use an empty array when nothing of a kind is mentioned. Do not include medical advice or diagnosis.`

func buildTranscriptPrompt(transcript string) string {
	return fmt.Sprintf("Call transcript:\n%s\n", transcript)
}

// extractionPayload is the wire shape of the model's answer.
type extractionPayload struct {
	CheckinSummary *struct {
		Summary   string   `json:"summary"`
		Sentiment string   `json:"sentiment"`
		Topics    []string `json:"topics"`
	} `json:"checkin_summary"`
	Medications []entities.MedicationMention `json:"medications"`
	Foods       []entities.FoodMention       `json:"foods"`
	Symptoms    []entities.SymptomMention    `json:"symptoms"`
}

func parseExtractionPayload(data []byte) (*extractionPayload, error) {
	var payload extractionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse extraction payload: %w", err)
	}
	if payload.CheckinSummary == nil {
		return nil, fmt.Errorf("extraction payload missing checkin_summary")
	}
	return &payload, nil
}

func (p *extractionPayload) toResult() *entities.ExtractionResult {
	result := &entities.ExtractionResult{
		CheckinSummary: &entities.CheckInSummary{
			Summary:   p.CheckinSummary.Summary,
			Sentiment: p.CheckinSummary.Sentiment,
			Topics:    p.CheckinSummary.Topics,
		},
		Medications: p.Medications,
		Foods:       p.Foods,
		Symptoms:    p.Symptoms,
	}
	if result.CheckinSummary.Topics == nil {
		result.CheckinSummary.Topics = []string{}
	}
	if result.Medications == nil {
		result.Medications = []entities.MedicationMention{}
	}
	if result.Foods == nil {
		result.Foods = []entities.FoodMention{}
	}
	if result.Symptoms == nil {
		result.Symptoms = []entities.SymptomMention{}
	}
	return result
}
