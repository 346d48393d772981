package api

import (
	"net/http"

	"github.com/craftpixel/event-relay/internal/engine"
	"github.com/craftpixel/event-relay/internal/store"
	"github.com/go-chi/chi/v5"
)

type MetricsHandler struct {
	store   *store.PostgresStore
	breaker *engine.CircuitBreaker
}

func NewMetricsHandler(s *store.PostgresStore, cb *engine.CircuitBreaker) *MetricsHandler {
	return &MetricsHandler{store: s, breaker: cb}
}

// Metrics returns aggregated pipeline statistics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.store.GetPipelineMetrics(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get metrics")
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// ProviderHealth returns the provider circuit state for one tenant.
func (h *MetricsHandler) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "id")

	type healthResponse struct {
		TenantID string              `json:"tenant_id"`
		Circuit  engine.BreakerState `json:"circuit"`
	}

	respondJSON(w, http.StatusOK, healthResponse{
		TenantID: tenantID,
		Circuit:  h.breaker.State(r.Context(), tenantID),
	})
}
