package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/service"
)

// ActivityHandler lists persisted catalog events.
type ActivityHandler struct {
	svc    *service.ActivityService
	logger *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(svc *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/activity?entity_id=&limit=.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	events, err := h.svc.ListForEntity(r.Context(), query.Get("entity_id"), limit)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	out := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.ToEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}
