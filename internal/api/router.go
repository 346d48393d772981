package api

import (
	"log/slog"
	"net/http"

	"github.com/craftpixel/event-relay/internal/engine"
	"github.com/craftpixel/event-relay/internal/pipeline"
	"github.com/craftpixel/event-relay/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(pgStore *store.PostgresStore, p *pipeline.Pipeline, cb *engine.CircuitBreaker, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// CORS for the pixel, which posts from storefront origins
	r.Use(corsMiddleware)

	// The pixel endpoint accepts POST only
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	trackHandler := NewTrackHandler(p, logger)
	failedHandler := NewFailedEventHandler(pgStore)
	logHandler := NewDebugLogHandler(pgStore)
	metricsHandler := NewMetricsHandler(pgStore, cb)

	r.Post("/api/track", trackHandler.Create)

	// Read-only observability surface
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())

		r.Route("/failed-events", func(r chi.Router) {
			r.Get("/", failedHandler.List)
			r.Get("/{id}", failedHandler.Get)
		})

		r.Get("/debug-logs", logHandler.List)
		r.Get("/metrics", metricsHandler.Metrics)
		r.Get("/tenants/{id}/provider-health", metricsHandler.ProviderHealth)
	})

	return r
}

// corsMiddleware lets the sandboxed pixel post from any storefront origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
