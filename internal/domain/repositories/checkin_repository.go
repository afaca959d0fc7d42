package repositories

import (
	"context"
	"time"

	"github.com/carevoice/backend/internal/domain/entities"
)

// SaveCallResultInput carries everything the persistence stage writes for one
// processed call.
type SaveCallResultInput struct {
	Call        *entities.CallRecord
	Transcript  *entities.CallTranscript
	Result      *entities.ExtractionResult
	ModelUsed   string
	ProcessedAt time.Time
}

// CheckInRepository defines the interface for check-in storage
type CheckInRepository interface {
	// GetByCallRecordID retrieves the check-in linked to a call record
	GetByCallRecordID(ctx context.Context, callRecordID string) (*entities.CheckIn, error)

	// GetByCheckinID retrieves a check-in by its natural identifier
	GetByCheckinID(ctx context.Context, checkinID string) (*entities.CheckIn, error)

	// SaveCallResult upserts the check-in for a call, writes the extracted
	// health entries and flips the call's processed flag, all in a single
	// transaction. Entries whose name is empty are skipped. The checkins
	// table enforces UNIQUE(call_record_id) so concurrent processors cannot
	// produce two check-ins for one call.
	SaveCallResult(ctx context.Context, input *SaveCallResultInput) (*entities.CheckIn, error)
}
