package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/metrics"
	"github.com/locallibrary/catalog/internal/service"
)

func newAuthorRouter(t *testing.T) (*memLibrary, *metrics.InMemoryRecorder, http.Handler) {
	t.Helper()
	store := newMemLibrary()
	rec := metrics.NewInMemory()
	svc := service.NewAuthorService(store, service.Effects{Metrics: rec, Logger: discardLogger()}, 2)
	h := NewAuthorHandler(svc, discardLogger())

	r := chi.NewRouter()
	r.Get("/api/v1/authors", h.List)
	r.Post("/api/v1/authors", h.Create)
	r.Get("/api/v1/authors/{id}", h.Get)
	r.Patch("/api/v1/authors/{id}", h.Update)
	r.Delete("/api/v1/authors/{id}", h.Delete)
	return store, rec, r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, asUser(req, "librarian-1"))
	return rec
}

func TestAuthorHandler_CreateGetUpdateDelete(t *testing.T) {
	_, recorder, h := newAuthorRouter(t)

	rec := do(h, http.MethodPost, "/api/v1/authors",
		`{"first_name":"Frank","last_name":"Herbert","date_of_birth":"1920-10-08","date_of_death":"1986-02-11"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.AuthorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Herbert, Frank", created.DisplayName)
	assert.Equal(t, "1920-10-08", created.DateOfBirth)
	assert.Len(t, created.ID, 26)

	rec = do(h, http.MethodGet, "/api/v1/authors/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail dto.AuthorDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, created.ID, detail.ID)
	assert.NotNil(t, detail.Books)

	rec = do(h, http.MethodPatch, "/api/v1/authors/"+created.ID, `{"date_of_death":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated dto.AuthorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Empty(t, updated.DateOfDeath)
	assert.Equal(t, "Frank", updated.FirstName)

	rec = do(h, http.MethodDelete, "/api/v1/authors/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/api/v1/authors/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	snap := recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.CatalogMutations["author:created"])
	assert.Equal(t, uint64(1), snap.CatalogMutations["author:updated"])
	assert.Equal(t, uint64(1), snap.CatalogMutations["author:deleted"])
}

func TestAuthorHandler_CreateValidation(t *testing.T) {
	_, _, h := newAuthorRouter(t)

	tests := []struct {
		name      string
		body      string
		wantField string
		wantRule  string
	}{
		{"missing first name", `{"last_name":"Herbert"}`, "first_name", "required"},
		{"bad birth date", `{"first_name":"Frank","last_name":"Herbert","date_of_birth":"08/10/1920"}`, "date_of_birth", "datetime"},
		{"death before birth", `{"first_name":"Frank","last_name":"Herbert","date_of_birth":"1986-02-11","date_of_death":"1920-10-08"}`, "date_of_death", "after_birth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/api/v1/authors", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, dto.CodeValidationFailed, body.Code)
			assert.Contains(t, body.Fields, dto.FieldError{Field: tt.wantField, Rule: tt.wantRule})
		})
	}
}

func TestAuthorHandler_ListPages(t *testing.T) {
	_, _, h := newAuthorRouter(t)

	for _, name := range []string{"Asimov", "Bujold", "Clarke"} {
		rec := do(h, http.MethodPost, "/api/v1/authors", `{"first_name":"X","last_name":"`+name+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(h, http.MethodGet, "/api/v1/authors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var first dto.PageResponse[dto.AuthorResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Len(t, first.Items, 2)
	assert.Equal(t, 2, first.NumPages)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrevious)

	rec = do(h, http.MethodGet, "/api/v1/authors?page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var second dto.PageResponse[dto.AuthorResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Len(t, second.Items, 1)
	assert.Equal(t, "Clarke", second.Items[0].LastName)

	rec = do(h, http.MethodGet, "/api/v1/authors?page=3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthorHandler_EmptyListIsOnePage(t *testing.T) {
	_, _, h := newAuthorRouter(t)

	rec := do(h, http.MethodGet, "/api/v1/authors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page dto.PageResponse[dto.AuthorResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.NumPages)
}
