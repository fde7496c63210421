package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Renewals           map[string]uint64 // by outcome
	CatalogMutations   map[string]uint64 // "entity:action"
	SummaryCacheHits   uint64
	SummaryCacheMisses uint64
	EventsPublished    map[string]uint64
	EventsProcessed    map[string]uint64
	BatchCount         uint64
	BatchEventsTotal   uint64
	QueueDepth         int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{snap: Snapshot{
		Renewals:         map[string]uint64{},
		CatalogMutations: map[string]uint64{},
		EventsPublished:  map[string]uint64{},
		EventsProcessed:  map[string]uint64{},
	}}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.snap
	s.Renewals = copyCounts(m.snap.Renewals)
	s.CatalogMutations = copyCounts(m.snap.CatalogMutations)
	s.EventsPublished = copyCounts(m.snap.EventsPublished)
	s.EventsProcessed = copyCounts(m.snap.EventsProcessed)
	return s
}

func (m *InMemoryRecorder) IncRenewal(outcome string) {
	m.mu.Lock()
	m.snap.Renewals[outcome]++
	m.mu.Unlock()
}

func (m *InMemoryRecorder) IncCatalogMutation(entity, action string) {
	m.mu.Lock()
	m.snap.CatalogMutations[entity+":"+action]++
	m.mu.Unlock()
}

func (m *InMemoryRecorder) IncSummaryCacheHit() {
	m.mu.Lock()
	m.snap.SummaryCacheHits++
	m.mu.Unlock()
}

func (m *InMemoryRecorder) IncSummaryCacheMiss() {
	m.mu.Lock()
	m.snap.SummaryCacheMisses++
	m.mu.Unlock()
}

func (m *InMemoryRecorder) IncActivityEventPublished(status string) {
	m.mu.Lock()
	m.snap.EventsPublished[status]++
	m.mu.Unlock()
}

func (m *InMemoryRecorder) IncActivityEventProcessed(status string) {
	m.mu.Lock()
	m.snap.EventsProcessed[status]++
	m.mu.Unlock()
}

func (m *InMemoryRecorder) ObserveActivityBatchSize(size int) {
	m.mu.Lock()
	m.snap.BatchCount++
	m.snap.BatchEventsTotal += uint64(size)
	m.mu.Unlock()
}

func (m *InMemoryRecorder) ObserveActivityBatchDuration(time.Duration) {}

func (m *InMemoryRecorder) SetActivityQueueDepth(depth int64) {
	m.mu.Lock()
	m.snap.QueueDepth = depth
	m.mu.Unlock()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
