package api

import (
	"net/http"
	"strconv"

	"github.com/craftpixel/event-relay/internal/store"
)

type DebugLogHandler struct {
	store *store.PostgresStore
}

func NewDebugLogHandler(s *store.PostgresStore) *DebugLogHandler {
	return &DebugLogHandler{store: s}
}

func (h *DebugLogHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	level := r.URL.Query().Get("level")
	limitStr := r.URL.Query().Get("limit")

	limit := 100
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.store.ListDebugLogs(r.Context(), tenantID, level, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list debug logs")
		return
	}

	respondJSON(w, http.StatusOK, logs)
}
