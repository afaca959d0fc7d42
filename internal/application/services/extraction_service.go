package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/domain/providers"
	"github.com/carevoice/backend/internal/domain/repositories"
	apperrors "github.com/carevoice/backend/pkg/errors"
)

const (
	// Transcripts shorter than this carry no extractable content and skip
	// the model call entirely.
	minTranscriptLength = 10

	// Transcripts are cut to this many characters before extraction to keep
	// prompts bounded.
	maxTranscriptLength = 4000
)

// ExtractionService turns a call transcript into a structured extraction
// result. It never fails: any problem with the extractor, its output, or the
// transcript itself degrades to a fallback result so the pipeline can still
// record the call as processed.
type ExtractionService struct {
	extractor providers.TranscriptExtractor
	userRepo  repositories.UserRepository
	modelName string
}

// NewExtractionService creates a new extraction service. A nil extractor is
// allowed; every call then produces the fallback result.
func NewExtractionService(
	extractor providers.TranscriptExtractor,
	userRepo repositories.UserRepository,
	modelName string,
) *ExtractionService {
	return &ExtractionService{
		extractor: extractor,
		userRepo:  userRepo,
		modelName: modelName,
	}
}

// ModelName returns the configured extraction model identifier.
func (s *ExtractionService) ModelName() string {
	return s.modelName
}

// ExtractFromCall runs structured extraction over a call's transcript and
// stamps the system-owned summary fields. The model's values for id, type,
// timestamp and patient name are always overwritten.
func (s *ExtractionService) ExtractFromCall(ctx context.Context, call *entities.CallRecord, transcript *entities.CallTranscript) *entities.ExtractionResult {
	content := ""
	if transcript != nil {
		content = strings.TrimSpace(transcript.Content)
	}

	result := s.extract(ctx, call.CallID, content)
	s.stampSystemFields(ctx, call, result)
	return result
}

func (s *ExtractionService) extract(ctx context.Context, callID, content string) *entities.ExtractionResult {
	if len(content) < minTranscriptLength {
		log.Printf("Transcript for call %s too short (%d chars), skipping extraction", callID, len(content))
		return fallbackResult()
	}

	if s.extractor == nil {
		log.Printf("No extractor configured, using fallback for call %s", callID)
		return fallbackResult()
	}

	if len(content) > maxTranscriptLength {
		content = truncateTranscript(content, maxTranscriptLength)
	}

	result, err := s.extractor.Extract(ctx, content)
	if err != nil {
		log.Printf("Extraction failed for call %s: %v", callID, err)
		return fallbackResult()
	}
	if result == nil || result.CheckinSummary == nil {
		log.Printf("Extraction returned no summary for call %s, using fallback", callID)
		return fallbackResult()
	}

	return result
}

// stampSystemFields overwrites the fields the model is never trusted to set.
func (s *ExtractionService) stampSystemFields(ctx context.Context, call *entities.CallRecord, result *entities.ExtractionResult) {
	summary := result.CheckinSummary
	summary.ID = fmt.Sprintf("call_%s", call.CallID)
	summary.Type = string(entities.CheckInTypeCall)
	summary.Timestamp = call.StartedAt.Format(time.RFC3339)

	summary.PatientName = ""
	if call.Phone != "" && s.userRepo != nil {
		user, err := s.userRepo.GetByPhone(ctx, call.Phone)
		if err == nil {
			summary.PatientName = user.FullName()
		} else if !apperrors.IsNotFound(err) {
			log.Printf("Failed to resolve patient for call %s: %v", call.CallID, err)
		}
	}
}

// truncateTranscript cuts content to at most max bytes without splitting a
// rune, so the prompt stays valid UTF-8.
func truncateTranscript(content string, max int) string {
	if len(content) <= max {
		return content
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// fallbackResult is the empty-but-valid result recorded when extraction
// cannot run or fails.
func fallbackResult() *entities.ExtractionResult {
	return &entities.ExtractionResult{
		CheckinSummary: &entities.CheckInSummary{
			Summary:   "Check-in call completed. Transcript processing unavailable.",
			Sentiment: "neutral",
			Topics:    []string{},
		},
		Medications: []entities.MedicationMention{},
		Foods:       []entities.FoodMention{},
		Symptoms:    []entities.SymptomMention{},
	}
}
