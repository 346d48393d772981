package api

import (
	"net/http"
	"strconv"

	"github.com/craftpixel/event-relay/internal/store"
	"github.com/go-chi/chi/v5"
)

// FailedEventHandler exposes read-only views of the failure queue. The
// retry mechanism that consumes these records lives elsewhere.
type FailedEventHandler struct {
	store *store.PostgresStore
}

func NewFailedEventHandler(s *store.PostgresStore) *FailedEventHandler {
	return &FailedEventHandler{store: s}
}

func (h *FailedEventHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	limitStr := r.URL.Query().Get("limit")

	limit := 50
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := h.store.ListFailedEvents(r.Context(), tenantID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list failed events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

func (h *FailedEventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.store.GetFailedEvent(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get failed event")
		return
	}
	if event == nil {
		respondError(w, http.StatusNotFound, "failed event not found")
		return
	}

	respondJSON(w, http.StatusOK, event)
}
