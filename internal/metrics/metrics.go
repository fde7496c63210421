// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Renewal outcomes.
const (
	RenewalAccepted       = "accepted"
	RenewalDateInPast     = "date_in_past"
	RenewalTooFarInFuture = "too_far_in_future"
	RenewalNotFound       = "not_found"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Loan renewals by outcome
	IncRenewal(outcome string)

	// Catalog mutations, e.g. ("author", "created")
	IncCatalogMutation(entity, action string)

	// Catalog summary cache
	IncSummaryCacheHit()
	IncSummaryCacheMiss()

	// Activity pipeline metrics
	IncActivityEventPublished(status string) // "success" or "dropped"
	IncActivityEventProcessed(status string) // "success", "failed", "skipped"
	ObserveActivityBatchSize(size int)
	ObserveActivityBatchDuration(duration time.Duration)
	SetActivityQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
