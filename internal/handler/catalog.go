package handler

import (
	"log/slog"
	"net/http"

	"github.com/locallibrary/catalog/internal/middleware"
	"github.com/locallibrary/catalog/internal/service"
)

// CatalogHandler serves the catalog home page counts.
type CatalogHandler struct {
	svc    *service.CatalogService
	logger *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// Summary handles GET /api/v1/catalog/summary.
func (h *CatalogHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
