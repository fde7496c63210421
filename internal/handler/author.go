package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/service"
)

// AuthorHandler handles HTTP requests for authors.
type AuthorHandler struct {
	svc    *service.AuthorService
	logger *slog.Logger
}

// NewAuthorHandler creates a new AuthorHandler.
func NewAuthorHandler(svc *service.AuthorService, logger *slog.Logger) *AuthorHandler {
	return &AuthorHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/authors.
func (h *AuthorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.AuthorInput
	if !decodeJSON(w, r, &req) {
		return
	}

	author, err := h.svc.CreateAuthor(r.Context(), req, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("author_created", "author_id", author.ID)
	writeJSON(w, http.StatusCreated, dto.ToAuthorResponse(author))
}

// Get handles GET /api/v1/authors/{id}.
func (h *AuthorHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	books := make([]dto.BookSummaryResponse, 0, len(detail.Books))
	for _, b := range detail.Books {
		books = append(books, dto.ToBookSummary(b))
	}
	writeJSON(w, http.StatusOK, dto.AuthorDetailResponse{
		AuthorResponse: dto.ToAuthorResponse(detail.Author),
		Books:          books,
	})
}

// List handles GET /api/v1/authors?page=.
func (h *AuthorHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListAuthors(r.Context(), pageParam(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, dto.ToAuthorResponse))
}

// Update handles PATCH /api/v1/authors/{id}.
func (h *AuthorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.AuthorPatch
	if !decodeJSON(w, r, &req) {
		return
	}

	author, err := h.svc.UpdateAuthor(r.Context(), chi.URLParam(r, "id"), req, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("author_updated", "author_id", author.ID)
	writeJSON(w, http.StatusOK, dto.ToAuthorResponse(author))
}

// Delete handles DELETE /api/v1/authors/{id}.
func (h *AuthorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteAuthor(r.Context(), id, actorID(r)); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("author_deleted", "author_id", id)
	w.WriteHeader(http.StatusNoContent)
}
