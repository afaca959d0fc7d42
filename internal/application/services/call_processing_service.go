package services

import (
	"context"
	"log"
	"time"

	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/domain/providers"
	"github.com/carevoice/backend/internal/domain/repositories"
	"github.com/carevoice/backend/internal/infrastructure/observability"
	"github.com/google/uuid"
)

// DefaultProcessInterval is how often the background loop looks for
// unprocessed calls when no interval is configured.
const DefaultProcessInterval = 30 * time.Second

// ProcessSummary reports the outcome of one processing pass.
type ProcessSummary struct {
	Candidates int `json:"candidates"`
	Processed  int `json:"processed"`
	Failed     int `json:"failed"`
}

// CallProcessingService drives unprocessed calls through extraction and
// persistence, one call at a time.
type CallProcessingService struct {
	callRepo    repositories.CallRepository
	checkinRepo repositories.CheckInRepository
	extraction  *ExtractionService
	eventBus    providers.EventBus
	metrics     *observability.Metrics
	batchLimit  int
}

// NewCallProcessingService creates a new call processing service. The event
// bus and metrics are optional.
func NewCallProcessingService(
	callRepo repositories.CallRepository,
	checkinRepo repositories.CheckInRepository,
	extraction *ExtractionService,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	batchLimit int,
) *CallProcessingService {
	return &CallProcessingService{
		callRepo:    callRepo,
		checkinRepo: checkinRepo,
		extraction:  extraction,
		eventBus:    eventBus,
		metrics:     metrics,
		batchLimit:  batchLimit,
	}
}

// ProcessUnprocessed runs extraction and persistence for every call whose
// processed flag is still false, oldest first. One failing call is logged and
// skipped; the pass continues. Cancellation is checked between calls so a
// shutdown never interrupts a call mid-write.
func (s *CallProcessingService) ProcessUnprocessed(ctx context.Context) (*ProcessSummary, error) {
	calls, err := s.callRepo.ListUnprocessed(ctx, s.batchLimit)
	if err != nil {
		return nil, err
	}

	summary := &ProcessSummary{Candidates: len(calls)}

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			observability.RecordPipelineCounts(ctx, s.metrics, 0, int64(summary.Processed), int64(summary.Failed))
			return summary, err
		}

		if err := s.processCall(ctx, call); err != nil {
			summary.Failed++
			log.Printf("Failed to process call %s: %v", call.CallID, err)
			continue
		}
		summary.Processed++
	}

	observability.RecordPipelineCounts(ctx, s.metrics, 0, int64(summary.Processed), int64(summary.Failed))

	if summary.Candidates > 0 {
		log.Printf("Processing pass complete: candidates=%d processed=%d failed=%d",
			summary.Candidates, summary.Processed, summary.Failed)
	}
	return summary, nil
}

func (s *CallProcessingService) processCall(ctx context.Context, call *entities.CallRecord) error {
	transcript, err := s.callRepo.GetTranscript(ctx, call.ID)
	if err != nil {
		return err
	}

	result := s.extraction.ExtractFromCall(ctx, call, transcript)

	checkin, err := s.checkinRepo.SaveCallResult(ctx, &repositories.SaveCallResultInput{
		Call:        call,
		Transcript:  transcript,
		Result:      result,
		ModelUsed:   s.extraction.ModelName(),
		ProcessedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	s.publishProcessed(ctx, call, checkin)
	return nil
}

// publishProcessed announces a finished check-in on the event bus. Best
// effort only; a publish failure never fails the call.
func (s *CallProcessingService) publishProcessed(ctx context.Context, call *entities.CallRecord, checkin *entities.CheckIn) {
	if s.eventBus == nil {
		return
	}

	event := &entities.CheckInEvent{
		ID:        uuid.NewString(),
		Type:      entities.CheckInEventProcessed,
		CheckinID: checkin.CheckinID,
		CallID:    call.CallID,
		Timestamp: time.Now(),
	}
	if call.UserID != nil {
		event.UserID = *call.UserID
	}

	if err := s.eventBus.Publish(ctx, providers.EventChannelCheckins, event); err != nil {
		log.Printf("Failed to publish checkin event for call %s: %v", call.CallID, err)
	}
	if event.UserID != "" {
		if err := s.eventBus.Publish(ctx, providers.GetUserChannel(event.UserID), event); err != nil {
			log.Printf("Failed to publish user checkin event for call %s: %v", call.CallID, err)
		}
	}
}

// ResetProcessed clears the processed flag so calls run through extraction
// again. An empty callID resets every processed call. Existing check-ins are
// kept and updated in place on the next pass.
func (s *CallProcessingService) ResetProcessed(ctx context.Context, callID string) (int64, error) {
	return s.callRepo.ResetProcessed(ctx, callID)
}

// StartPeriodicProcessing runs processing passes on a fixed interval until
// the context is cancelled. Call it in a goroutine.
func (s *CallProcessingService) StartPeriodicProcessing(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultProcessInterval
	}

	log.Printf("Starting periodic call processing every %v", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping periodic call processing")
			return
		case <-ticker.C:
			if _, err := s.ProcessUnprocessed(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Periodic processing pass failed: %v", err)
			}
		}
	}
}
