package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/renewal"
	"github.com/locallibrary/catalog/internal/service"
)

func TestHandler_Info(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.Info(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["version"] != Version {
		t.Errorf("unexpected version: %s", response["version"])
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()

	h.NotFound(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Code != dto.CodeNotFound {
		t.Errorf("unexpected error code: %s", response.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	h.MethodNotAllowed(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Code != dto.CodeMethodNotAllowed {
		t.Errorf("unexpected error code: %s", response.Code)
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &service.ValidationError{Fields: []service.FieldError{{Field: "isbn", Rule: "len"}}}, http.StatusBadRequest, dto.CodeValidationFailed},
		{"renewal in past", renewal.ErrDateInPast, http.StatusUnprocessableEntity, renewal.KindDateInPast},
		{"renewal too far", renewal.ErrDateTooFarInFuture, http.StatusUnprocessableEntity, renewal.KindDateTooFarInFuture},
		{"author missing", service.ErrAuthorNotFound, http.StatusNotFound, dto.CodeNotFound},
		{"book missing", service.ErrBookNotFound, http.StatusNotFound, dto.CodeNotFound},
		{"instance missing", service.ErrInstanceNotFound, http.StatusNotFound, dto.CodeNotFound},
		{"page missing", service.ErrPageNotFound, http.StatusNotFound, dto.CodeNotFound},
		{"author has books", service.ErrAuthorHasBooks, http.StatusConflict, dto.CodeConflict},
		{"isbn taken", service.ErrISBNExists, http.StatusConflict, dto.CodeConflict},
		{"name taken", service.ErrNameExists, http.StatusConflict, dto.CodeConflict},
		{"bad reference", service.ErrInvalidReference, http.StatusBadRequest, dto.CodeBadRequest},
		{"wrapped not found", fmt.Errorf("lookup: %w", service.ErrBookNotFound), http.StatusNotFound, dto.CodeNotFound},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, dto.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, discardLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotContains(t, body.Error, "connection reset")
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, discardLogger(), &service.ValidationError{Fields: []service.FieldError{
		{Field: "title", Rule: "required"},
		{Field: "isbn", Rule: "len"},
	}})

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []dto.FieldError{{Field: "title", Rule: "required"}, {Field: "isbn", Rule: "len"}}, body.Fields)
}

func TestPageParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"page=3", 3},
		{"page=0", 0},
		{"page=-2", -2},
		{"page=last", 0},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books?"+tt.query, nil)
		assert.Equal(t, tt.want, pageParam(req), tt.query)
	}
}
