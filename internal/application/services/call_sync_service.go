package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/domain/repositories"
	"github.com/carevoice/backend/internal/infrastructure/clients/calllogapi"
	"github.com/carevoice/backend/internal/infrastructure/observability"
	apperrors "github.com/carevoice/backend/pkg/errors"
	"github.com/google/uuid"
)

// SyncSummary reports the outcome of one raw-sync run.
type SyncSummary struct {
	Fetched  int      `json:"fetched"`
	Synced   int      `json:"synced"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Failures []string `json:"failures,omitempty"`
}

// CallSyncService pulls raw call logs from the telephony provider and lands
// them in local storage without interpretation.
type CallSyncService struct {
	client   calllogapi.Client
	callRepo repositories.CallRepository
	userRepo repositories.UserRepository
	metrics  *observability.Metrics
	pageSize int
}

// NewCallSyncService creates a new call sync service. Metrics are optional.
func NewCallSyncService(
	client calllogapi.Client,
	callRepo repositories.CallRepository,
	userRepo repositories.UserRepository,
	metrics *observability.Metrics,
	pageSize int,
) *CallSyncService {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &CallSyncService{
		client:   client,
		callRepo: callRepo,
		userRepo: userRepo,
		metrics:  metrics,
		pageSize: pageSize,
	}
}

// FetchAndSync pages through the provider's call log and syncs every record.
// Phone is optional; when set, only that caller's history is fetched.
// Transport failures abort the run; per-record storage failures are counted
// and the run continues, so one bad record never blocks the batch.
func (s *CallSyncService) FetchAndSync(ctx context.Context, phone string) (*SyncSummary, error) {
	if s.client == nil {
		return nil, fmt.Errorf("call log api client not configured")
	}

	summary := &SyncSummary{}
	offset := 0

	for {
		resp, err := s.client.FetchCallLogs(ctx, calllogapi.FetchRequest{
			Phone:  phone,
			Limit:  s.pageSize,
			Offset: offset,
		})
		if err != nil {
			return summary, fmt.Errorf("failed to fetch call logs: %w", err)
		}

		if len(resp.Data) == 0 {
			break
		}

		for _, record := range resp.Data {
			summary.Fetched++

			created, err := s.SyncRaw(ctx, record)
			if err != nil {
				summary.Failed++
				summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", record.CallID, err))
				log.Printf("Failed to sync call %s: %v", record.CallID, err)
				continue
			}
			if created {
				summary.Synced++
			} else {
				summary.Skipped++
			}
		}

		if len(resp.Data) < s.pageSize {
			break
		}
		offset += s.pageSize
	}

	observability.RecordPipelineCounts(ctx, s.metrics, int64(summary.Synced), 0, 0)

	log.Printf("Call sync complete: fetched=%d synced=%d skipped=%d failed=%d",
		summary.Fetched, summary.Synced, summary.Skipped, summary.Failed)
	return summary, nil
}

// SyncRaw stores one provider record as a call record plus transcript.
// Records are keyed by the provider call id: a record seen before is skipped
// untouched, so re-syncing never rewrites raw data. Returns true when a new
// row was created.
func (s *CallSyncService) SyncRaw(ctx context.Context, record calllogapi.CallLogRecord) (bool, error) {
	callID := strings.TrimSpace(record.CallID)
	if callID == "" {
		return false, apperrors.NewValidationError("call record has no call_id")
	}

	if _, err := s.callRepo.GetByCallID(ctx, callID); err == nil {
		return false, nil
	} else if !apperrors.IsNotFound(err) {
		return false, err
	}

	phone := strings.TrimSpace(record.CallerPhone.Number)

	startedAt := time.Now()
	if record.CallDate != "" {
		if parsed, err := time.Parse(time.RFC3339, record.CallDate); err == nil {
			startedAt = parsed
		} else {
			log.Printf("Unparseable call_date %q for call %s, using current time", record.CallDate, callID)
		}
	}

	call := &entities.CallRecord{
		ID:              uuid.NewString(),
		CallID:          callID,
		Phone:           phone,
		Direction:       entities.CallDirectionInbound,
		DurationSeconds: record.CallDuration,
		StartedAt:       startedAt,
		Processed:       false,
	}

	if phone != "" && s.userRepo != nil {
		user, err := s.userRepo.GetByPhone(ctx, phone)
		if err == nil {
			call.UserID = &user.ID
		} else if !apperrors.IsNotFound(err) {
			return false, err
		}
	}

	transcript := &entities.CallTranscript{
		ID:           uuid.NewString(),
		CallRecordID: call.ID,
		Content:      record.FullTranscript,
		Summary:      record.Summary,
	}

	if err := s.callRepo.CreateWithTranscript(ctx, call, transcript); err != nil {
		return false, err
	}

	return true, nil
}
