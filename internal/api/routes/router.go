package routes

import (
	"net/http"

	"github.com/carevoice/backend/internal/api/handlers"
	"github.com/carevoice/backend/internal/api/middleware"
	"github.com/carevoice/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	pipelineHandler *handlers.PipelineHandler
	healthHandler   *handlers.HealthHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	pipelineHandler *handlers.PipelineHandler,
	healthHandler *handlers.HealthHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		pipelineHandler: pipelineHandler,
		healthHandler:   healthHandler,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Pipeline triggers
	r.mux.HandleFunc("POST /api/pipeline/sync", r.pipelineHandler.TriggerSync)
	r.mux.HandleFunc("POST /api/pipeline/process", r.pipelineHandler.TriggerProcess)
	r.mux.HandleFunc("POST /api/pipeline/reset", r.pipelineHandler.ResetProcessed)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(handler)

	return handler
}
