package handlers

import (
	"context"
	"net/http"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	db    pinger
	redis pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, redis pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health reports overall status plus per-dependency detail. Any failing
// dependency degrades the response to 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := map[string]string{}

	checks["database"] = h.check(r.Context(), h.db)
	checks["redis"] = h.check(r.Context(), h.redis)

	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	body := map[string]interface{}{
		"status": "ok",
		"checks": checks,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}

	respondWithJSON(w, status, body)
}

func (h *HealthHandler) check(ctx context.Context, p pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
