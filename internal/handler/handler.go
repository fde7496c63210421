// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/locallibrary/catalog/internal/auth"
	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/renewal"
	"github.com/locallibrary/catalog/internal/service"
)

// Version is reported by the info endpoint.
const Version = "1.0.0"

// Handler serves the endpoints that belong to no resource.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Info describes the service.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "Local Library catalog",
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, dto.CodeNotFound, "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, dto.CodeMethodNotAllowed, "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil {
		// The body must hold exactly one JSON value.
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errTrailingData
			if extra != nil {
				err = extra
			}
		}
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, dto.CodePayloadTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, dto.CodeBadRequest, "Invalid request body")
		return false
	}
	return true
}

var errTrailingData = errors.New("trailing data after JSON body")

// pageParam reads ?page=. Absent means the first page; anything that is
// not a positive integer is treated as a page that does not exist.
func pageParam(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func toPageResponse[T, R any](p *service.Page[T], convert func(T) R) dto.PageResponse[R] {
	items := make([]R, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, convert(it))
	}
	return dto.PageResponse[R]{
		Items:       items,
		Page:        p.Number,
		PageSize:    p.Size,
		NumPages:    p.NumPages(),
		Total:       p.Total,
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
	}
}

// actorID is the user behind the request, for activity records.
func actorID(r *http.Request) string {
	return auth.UserIDFromContext(r.Context())
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		fields := make([]dto.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, dto.FieldError{Field: f.Field, Rule: f.Rule})
		}
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:  "Validation failed",
			Code:   dto.CodeValidationFailed,
			Fields: fields,
		})
		return
	}

	// Renewal errors carry the message shown to the person renewing.
	if kind := renewal.Kind(err); kind != "" {
		writeError(w, http.StatusUnprocessableEntity, kind, err.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrAuthorNotFound):
		writeError(w, http.StatusNotFound, dto.CodeNotFound, "Author not found")
	case errors.Is(err, service.ErrBookNotFound):
		writeError(w, http.StatusNotFound, dto.CodeNotFound, "Book not found")
	case errors.Is(err, service.ErrInstanceNotFound):
		writeError(w, http.StatusNotFound, dto.CodeNotFound, "Book instance not found")
	case errors.Is(err, service.ErrPageNotFound):
		writeError(w, http.StatusNotFound, dto.CodeNotFound, "Invalid page")
	case errors.Is(err, service.ErrAuthorHasBooks):
		writeError(w, http.StatusConflict, dto.CodeConflict, "Author still has books in the catalog")
	case errors.Is(err, service.ErrISBNExists):
		writeError(w, http.StatusConflict, dto.CodeConflict, "A book with this ISBN already exists")
	case errors.Is(err, service.ErrNameExists):
		writeError(w, http.StatusConflict, dto.CodeConflict, "Name already exists")
	case errors.Is(err, service.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, dto.CodeBadRequest, "A referenced record does not exist")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, dto.CodeInternal, "An internal error occurred")
	}
}
