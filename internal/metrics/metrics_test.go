package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	m := NewInMemory()
	m.IncRenewal(RenewalAccepted)
	m.IncRenewal(RenewalAccepted)
	m.IncRenewal(RenewalDateInPast)
	m.IncCatalogMutation("author", "created")
	m.IncSummaryCacheHit()
	m.IncSummaryCacheMiss()
	m.IncActivityEventPublished("success")
	m.ObserveActivityBatchSize(3)
	m.ObserveActivityBatchSize(2)
	m.SetActivityQueueDepth(7)

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.Renewals[RenewalAccepted])
	assert.Equal(t, uint64(1), s.Renewals[RenewalDateInPast])
	assert.Equal(t, uint64(1), s.CatalogMutations["author:created"])
	assert.Equal(t, uint64(1), s.SummaryCacheHits)
	assert.Equal(t, uint64(2), s.BatchCount)
	assert.Equal(t, uint64(5), s.BatchEventsTotal)
	assert.Equal(t, int64(7), s.QueueDepth)

	// Snapshot maps are copies.
	s.Renewals[RenewalAccepted] = 99
	assert.Equal(t, uint64(2), m.Snapshot().Renewals[RenewalAccepted])
}

func TestPrometheusRecorder(t *testing.T) {
	p := NewPrometheus()
	p.IncRenewal(RenewalTooFarInFuture)
	p.IncCatalogMutation("book", "deleted")
	p.IncSummaryCacheHit()
	p.ObserveActivityBatchDuration(20 * time.Millisecond)
	p.SetActivityQueueDepth(4)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `catalog_renewals_total{outcome="too_far_in_future"} 1`))
	assert.True(t, strings.Contains(body, `catalog_mutations_total{action="deleted",entity="book"} 1`))
	assert.True(t, strings.Contains(body, `catalog_activity_queue_depth 4`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
