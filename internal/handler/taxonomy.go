package handler

import (
	"log/slog"
	"net/http"

	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/service"
)

// TaxonomyHandler serves genres and languages.
type TaxonomyHandler struct {
	svc    *service.TaxonomyService
	logger *slog.Logger
}

// NewTaxonomyHandler creates a new TaxonomyHandler.
func NewTaxonomyHandler(svc *service.TaxonomyService, logger *slog.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{svc: svc, logger: logger}
}

// ListGenres handles GET /api/v1/genres.
func (h *TaxonomyHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.svc.ListGenres(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	out := make([]dto.NamedResponse, 0, len(genres))
	for _, g := range genres {
		out = append(out, dto.NamedResponse{ID: g.ID, Name: g.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"genres": out})
}

// CreateGenre handles POST /api/v1/genres.
func (h *TaxonomyHandler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	var req service.NameInput
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.svc.CreateGenre(r.Context(), req, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NamedResponse{ID: g.ID, Name: g.Name})
}

// ListLanguages handles GET /api/v1/languages.
func (h *TaxonomyHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.svc.ListLanguages(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	out := make([]dto.NamedResponse, 0, len(langs))
	for _, l := range langs {
		out = append(out, dto.NamedResponse{ID: l.ID, Name: l.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": out})
}

// CreateLanguage handles POST /api/v1/languages.
func (h *TaxonomyHandler) CreateLanguage(w http.ResponseWriter, r *http.Request) {
	var req service.NameInput
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.svc.CreateLanguage(r.Context(), req, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NamedResponse{ID: l.ID, Name: l.Name})
}
