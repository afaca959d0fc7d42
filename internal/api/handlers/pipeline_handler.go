package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/carevoice/backend/internal/application/services"
	redislib "github.com/redis/go-redis/v9"
)

type pipelineSyncer interface {
	FetchAndSync(ctx context.Context, phone string) (*services.SyncSummary, error)
}

type pipelineProcessor interface {
	ProcessUnprocessed(ctx context.Context) (*services.ProcessSummary, error)
	ResetProcessed(ctx context.Context, callID string) (int64, error)
}

// PipelineHandler exposes manual pipeline triggers for operators.
type PipelineHandler struct {
	syncer         pipelineSyncer
	processor      pipelineProcessor
	redisClient    *redislib.Client
	idempotencyTTL time.Duration
}

// NewPipelineHandler creates a new pipeline handler. The Redis client is
// optional; without it sync triggers are not deduplicated.
func NewPipelineHandler(
	syncer pipelineSyncer,
	processor pipelineProcessor,
	redisClient *redislib.Client,
	idempotencyTTL time.Duration,
) *PipelineHandler {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &PipelineHandler{
		syncer:         syncer,
		processor:      processor,
		redisClient:    redisClient,
		idempotencyTTL: idempotencyTTL,
	}
}

// TriggerSync pulls the provider call log into raw storage. Repeated requests
// carrying the same Idempotency-Key are acknowledged without a second run.
func (h *PipelineHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		respondWithError(w, http.StatusServiceUnavailable, "call sync service not configured")
		return
	}

	if duplicate, key := h.isDuplicate(r.Context(), r); duplicate {
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status":          "duplicate",
			"idempotency_key": key,
		})
		return
	}

	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	summary, err := h.syncer.FetchAndSync(r.Context(), phone)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// TriggerProcess runs one processing pass over every unprocessed call.
func (h *PipelineHandler) TriggerProcess(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		respondWithError(w, http.StatusServiceUnavailable, "call processing service not configured")
		return
	}

	summary, err := h.processor.ProcessUnprocessed(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// ResetProcessed clears processed flags so calls run through extraction
// again. With ?callId= only that call is reset; without it every processed
// call is.
func (h *PipelineHandler) ResetProcessed(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		respondWithError(w, http.StatusServiceUnavailable, "call processing service not configured")
		return
	}

	callID := strings.TrimSpace(r.URL.Query().Get("callId"))
	count, err := h.processor.ResetProcessed(r.Context(), callID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reset": count,
	})
}

func (h *PipelineHandler) isDuplicate(ctx context.Context, r *http.Request) (bool, string) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		key = strings.TrimSpace(r.Header.Get("X-Idempotency-Key"))
	}
	if key == "" || h.redisClient == nil {
		return false, ""
	}

	redisKey := "pipeline_sync_idem:" + key
	ok, err := h.redisClient.SetNX(ctx, redisKey, time.Now().UTC().Format(time.RFC3339Nano), h.idempotencyTTL).Result()
	if err != nil {
		log.Printf("idempotency check failed: %v", err)
		return false, key
	}
	if !ok {
		return true, key
	}
	return false, key
}
