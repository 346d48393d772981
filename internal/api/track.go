package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/craftpixel/event-relay/internal/domain"
	"github.com/craftpixel/event-relay/internal/pipeline"
)

// maxTrackBodySize caps inbound pixel payloads at 1MB.
const maxTrackBodySize = 1 << 20

type TrackHandler struct {
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

func NewTrackHandler(p *pipeline.Pipeline, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{pipeline: p, logger: logger}
}

type trackSuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type trackMessageResponse struct {
	Message string `json:"message"`
}

type trackErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Create ingests one storefront event. The raw body is kept aside so a
// failed forward can be recorded verbatim for replay.
func (h *TrackHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTrackBodySize))
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, trackErrorResponse{
			Error:   "Failed to process event",
			Details: err.Error(),
		})
		return
	}

	var req domain.TrackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondJSON(w, http.StatusInternalServerError, trackErrorResponse{
			Error:   "Failed to process event",
			Details: err.Error(),
		})
		return
	}

	if req.Event == "" || req.ShopDomain == "" {
		respondJSON(w, http.StatusInternalServerError, trackErrorResponse{
			Error:   "Failed to process event",
			Details: "event and shopDomain are required",
		})
		return
	}

	res, err := h.pipeline.Process(r.Context(), req, body)
	if err != nil {
		h.logger.Error("pipeline run failed",
			"error", err, "event", req.Event, "shop_domain", req.ShopDomain)
		respondJSON(w, http.StatusInternalServerError, trackErrorResponse{
			Error:   "Failed to process event",
			Details: err.Error(),
		})
		return
	}

	switch res.Status {
	case pipeline.StatusTenantNotFound:
		respondError(w, http.StatusNotFound, "Shop not found")
	case pipeline.StatusEventDisabled, pipeline.StatusNoConsent:
		// Policy skips are successful terminations, distinguishable by message
		respondJSON(w, http.StatusOK, trackMessageResponse{Message: res.Message})
	default:
		respondJSON(w, http.StatusOK, trackSuccessResponse{Success: true, Message: res.Message})
	}
}
