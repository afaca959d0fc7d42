package providers

import (
	"context"
	"errors"

	"github.com/carevoice/backend/internal/domain/entities"
)

// ErrExtractionUnauthorized indicates the extraction backend rejected the
// configured credential.
var ErrExtractionUnauthorized = errors.New("extraction provider unauthorized")

// TranscriptExtractor turns free-text call transcripts into structured health
// data. Implementations are pure request/response: no durable state, and a
// failed call returns an error rather than a partial result.
type TranscriptExtractor interface {
	Extract(ctx context.Context, transcript string) (*entities.ExtractionResult, error)
}
