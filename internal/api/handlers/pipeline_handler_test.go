package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carevoice/backend/internal/api/handlers"
	"github.com/carevoice/backend/internal/application/services"
	apperrors "github.com/carevoice/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type stubSyncer struct {
	phones  []string
	summary *services.SyncSummary
	err     error
}

func (s *stubSyncer) FetchAndSync(ctx context.Context, phone string) (*services.SyncSummary, error) {
	s.phones = append(s.phones, phone)
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

type stubProcessor struct {
	summary    *services.ProcessSummary
	processErr error
	resetCalls []string
	resetCount int64
	resetErr   error
}

func (s *stubProcessor) ProcessUnprocessed(ctx context.Context) (*services.ProcessSummary, error) {
	if s.processErr != nil {
		return nil, s.processErr
	}
	return s.summary, nil
}

func (s *stubProcessor) ResetProcessed(ctx context.Context, callID string) (int64, error) {
	s.resetCalls = append(s.resetCalls, callID)
	return s.resetCount, s.resetErr
}

func TestPipelineHandler_TriggerSync(t *testing.T) {
	t.Run("runs sync and returns summary", func(t *testing.T) {
		syncer := &stubSyncer{summary: &services.SyncSummary{Fetched: 3, Synced: 2, Skipped: 1}}
		handler := handlers.NewPipelineHandler(syncer, nil, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/sync", nil)
		w := httptest.NewRecorder()

		handler.TriggerSync(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var summary services.SyncSummary
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
		assert.Equal(t, 2, summary.Synced)
		assert.Equal(t, []string{""}, syncer.phones)
	})

	t.Run("forwards phone filter", func(t *testing.T) {
		syncer := &stubSyncer{summary: &services.SyncSummary{}}
		handler := handlers.NewPipelineHandler(syncer, nil, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/sync?phone=%2B15550001111", nil)
		w := httptest.NewRecorder()

		handler.TriggerSync(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"+15550001111"}, syncer.phones)
	})

	t.Run("maps upstream failure to bad gateway", func(t *testing.T) {
		syncer := &stubSyncer{err: errors.New("provider unreachable")}
		handler := handlers.NewPipelineHandler(syncer, nil, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/sync", nil)
		w := httptest.NewRecorder()

		handler.TriggerSync(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("responds 503 without a syncer", func(t *testing.T) {
		handler := handlers.NewPipelineHandler(nil, nil, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/sync", nil)
		w := httptest.NewRecorder()

		handler.TriggerSync(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestPipelineHandler_TriggerProcess(t *testing.T) {
	t.Run("runs a processing pass", func(t *testing.T) {
		processor := &stubProcessor{summary: &services.ProcessSummary{Candidates: 2, Processed: 2}}
		handler := handlers.NewPipelineHandler(nil, processor, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/process", nil)
		w := httptest.NewRecorder()

		handler.TriggerProcess(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var summary services.ProcessSummary
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
		assert.Equal(t, 2, summary.Processed)
	})

	t.Run("maps internal errors to 500", func(t *testing.T) {
		processor := &stubProcessor{processErr: apperrors.NewInternalError("db down", errors.New("conn refused"))}
		handler := handlers.NewPipelineHandler(nil, processor, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/process", nil)
		w := httptest.NewRecorder()

		handler.TriggerProcess(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestPipelineHandler_ResetProcessed(t *testing.T) {
	t.Run("resets one call", func(t *testing.T) {
		processor := &stubProcessor{resetCount: 1}
		handler := handlers.NewPipelineHandler(nil, processor, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/reset?callId=call-1", nil)
		w := httptest.NewRecorder()

		handler.ResetProcessed(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"call-1"}, processor.resetCalls)

		var response map[string]int64
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, int64(1), response["reset"])
	})

	t.Run("resets everything without a call id", func(t *testing.T) {
		processor := &stubProcessor{resetCount: 40}
		handler := handlers.NewPipelineHandler(nil, processor, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/reset", nil)
		w := httptest.NewRecorder()

		handler.ResetProcessed(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{""}, processor.resetCalls)
	})

	t.Run("maps missing call to 404", func(t *testing.T) {
		processor := &stubProcessor{resetErr: apperrors.NewNotFoundError("call not found")}
		handler := handlers.NewPipelineHandler(nil, processor, nil, 0)

		req := httptest.NewRequest("POST", "/api/pipeline/reset?callId=missing", nil)
		w := httptest.NewRecorder()

		handler.ResetProcessed(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
