package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/service"
)

// BookHandler handles HTTP requests for books and their copies.
type BookHandler struct {
	svc    *service.BookService
	loans  *service.LoanService
	logger *slog.Logger
}

// NewBookHandler creates a new BookHandler. loans supplies today's date for
// overdue flags.
func NewBookHandler(svc *service.BookService, loans *service.LoanService, logger *slog.Logger) *BookHandler {
	return &BookHandler{svc: svc, loans: loans, logger: logger}
}

// Create handles POST /api/v1/books.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.BookInput
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.svc.CreateBook(r.Context(), req, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("book_created", "book_id", book.ID, "isbn", book.ISBN)
	writeJSON(w, http.StatusCreated, dto.ToBookResponse(book))
}

// Get handles GET /api/v1/books/{id}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookDetailResponse{
		BookResponse: dto.ToBookResponse(detail.Book),
		Instances:    dto.ToInstanceResponses(detail.Instances, h.loans.Today()),
	})
}

// List handles GET /api/v1/books?page=.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListBooks(r.Context(), pageParam(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, dto.ToBookSummary))
}

// Update handles PATCH /api/v1/books/{id}.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.BookPatch
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.svc.UpdateBook(r.Context(), chi.URLParam(r, "id"), req, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("book_updated", "book_id", book.ID)
	writeJSON(w, http.StatusOK, dto.ToBookResponse(book))
}

// Delete handles DELETE /api/v1/books/{id}.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteBook(r.Context(), id, actorID(r)); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("book_deleted", "book_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// AddInstance handles POST /api/v1/books/{id}/instances.
func (h *BookHandler) AddInstance(w http.ResponseWriter, r *http.Request) {
	var req service.InstanceInput
	if !decodeJSON(w, r, &req) {
		return
	}

	bookID := chi.URLParam(r, "id")
	inst, err := h.svc.AddInstance(r.Context(), bookID, req, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("book_instance_created", "instance_id", inst.ID, "book_id", bookID)
	writeJSON(w, http.StatusCreated, dto.ToInstanceResponse(inst, h.loans.Today()))
}
