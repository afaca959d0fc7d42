package repositories

import (
	"context"

	"github.com/carevoice/backend/internal/domain/entities"
)

// CallRepository defines the interface for raw call storage
type CallRepository interface {
	// CreateWithTranscript inserts a call record and its transcript in one
	// transaction. Raw rows are never updated after this.
	CreateWithTranscript(ctx context.Context, call *entities.CallRecord, transcript *entities.CallTranscript) error

	// GetByCallID retrieves a call record by its provider-assigned call id
	GetByCallID(ctx context.Context, callID string) (*entities.CallRecord, error)

	// GetByID retrieves a call record by its database id
	GetByID(ctx context.Context, id string) (*entities.CallRecord, error)

	// GetTranscript retrieves the transcript owned by a call record
	GetTranscript(ctx context.Context, callRecordID string) (*entities.CallTranscript, error)

	// ListUnprocessed retrieves call records with processed = false, oldest
	// first. A limit of 0 means no limit.
	ListUnprocessed(ctx context.Context, limit int) ([]*entities.CallRecord, error)

	// ResetProcessed clears the processed flag so calls run through
	// extraction again. An empty callID resets every processed call.
	// Returns the number of rows reset.
	ResetProcessed(ctx context.Context, callID string) (int64, error)
}
