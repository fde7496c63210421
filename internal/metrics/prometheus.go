package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// PrometheusRecorder exports metrics through a dedicated registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	renewals        *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	summaryCache    *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	eventsProcessed *prometheus.CounterVec
	batchSize       prometheus.Histogram
	batchDuration   prometheus.Histogram
	queueDepth      prometheus.Gauge
}

// NewPrometheus creates a recorder registered on a fresh registry, along
// with Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	p := &PrometheusRecorder{
		registry: reg,
		renewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renewals_total",
			Help:      "Loan renewal attempts by outcome.",
		}, []string{"outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Catalog create, update and delete operations.",
		}, []string{"entity", "action"}),
		summaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_cache_total",
			Help:      "Catalog summary cache lookups by result.",
		}, []string{"result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_published_total",
			Help:      "Activity events written to the stream.",
		}, []string{"status"}),
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_processed_total",
			Help:      "Activity events consumed from the stream.",
		}, []string{"status"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "activity_batch_size",
			Help:      "Events per persisted activity batch.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "activity_batch_duration_seconds",
			Help:      "Time to persist one activity batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "activity_queue_depth",
			Help:      "Pending plus unread messages for the activity consumer group.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.renewals, p.mutations, p.summaryCache,
		p.eventsPublished, p.eventsProcessed,
		p.batchSize, p.batchDuration, p.queueDepth,
	)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncRenewal(outcome string) {
	p.renewals.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncCatalogMutation(entity, action string) {
	p.mutations.WithLabelValues(entity, action).Inc()
}

func (p *PrometheusRecorder) IncSummaryCacheHit() {
	p.summaryCache.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncSummaryCacheMiss() {
	p.summaryCache.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) IncActivityEventPublished(status string) {
	p.eventsPublished.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncActivityEventProcessed(status string) {
	p.eventsProcessed.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObserveActivityBatchSize(size int) {
	p.batchSize.Observe(float64(size))
}

func (p *PrometheusRecorder) ObserveActivityBatchDuration(d time.Duration) {
	p.batchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetActivityQueueDepth(depth int64) {
	p.queueDepth.Set(float64(depth))
}
