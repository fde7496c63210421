package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncRenewal(string)                          {}
func (n *NoopRecorder) IncCatalogMutation(string, string)          {}
func (n *NoopRecorder) IncSummaryCacheHit()                        {}
func (n *NoopRecorder) IncSummaryCacheMiss()                       {}
func (n *NoopRecorder) IncActivityEventPublished(string)           {}
func (n *NoopRecorder) IncActivityEventProcessed(string)           {}
func (n *NoopRecorder) ObserveActivityBatchSize(int)               {}
func (n *NoopRecorder) ObserveActivityBatchDuration(time.Duration) {}
func (n *NoopRecorder) SetActivityQueueDepth(int64)                {}
