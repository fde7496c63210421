package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/catalog/internal/cache"
	"github.com/locallibrary/catalog/internal/metrics"
	"github.com/locallibrary/catalog/internal/middleware"
	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/service"
)

type countingSummaryStore struct {
	calls int
}

func (s *countingSummaryStore) CatalogSummary(_ context.Context, genreKeyword, titleKeyword string) (*model.CatalogSummary, error) {
	s.calls++
	return &model.CatalogSummary{
		NumBooks:              4,
		NumInstances:          9,
		NumInstancesAvailable: 5,
		NumAuthors:            3,
		NumGenresMatching:     1,
		NumBooksMatching:      2,
		GenreKeyword:          genreKeyword,
		TitleKeyword:          titleKeyword,
	}, nil
}

type summaryBody struct {
	model.CatalogSummary
	NumVisits int64 `json:"num_visits"`
}

func TestCatalogHandler_SummaryCountsVisits(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.NewWithClient(client)

	store := &countingSummaryStore{}
	recorder := metrics.NewInMemory()
	svc := service.NewCatalogService(store, c, c, recorder, discardLogger(), "horror", "en")
	h := middleware.Session(false)(http.HandlerFunc(NewCatalogHandler(svc, discardLogger()).Summary))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/summary", nil))
	require.Equal(t, http.StatusOK, first.Code)

	var body summaryBody
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &body))
	assert.Equal(t, int64(4), body.NumBooks)
	assert.Equal(t, "horror", body.GenreKeyword)
	assert.Equal(t, int64(0), body.NumVisits)

	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)

	for want := int64(1); want <= 2; want++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/summary", nil)
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, want, body.NumVisits)
	}

	// Counts come from the cache after the first request.
	assert.Equal(t, 1, store.calls)
	snap := recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.SummaryCacheMisses)
	assert.Equal(t, uint64(2), snap.SummaryCacheHits)

	mr.FastForward(2 * time.Minute)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, store.calls)
}
