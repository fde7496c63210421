// Package activity records catalog changes on a Redis stream and persists
// them to Postgres from a consumer group.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/locallibrary/catalog/internal/metrics"
	"github.com/locallibrary/catalog/internal/model"
)

var json = jsoniter.ConfigFastest

const (
	// StreamKey is the Redis stream for catalog events.
	StreamKey = "stream:catalog_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:catalog_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 250 * time.Millisecond
)

// EventPayload is the compact event format carried on the stream.
type EventPayload struct {
	Type       model.EventType     `json:"t"`
	EntityID   string              `json:"e"`
	ActorID    string              `json:"a,omitempty"`
	Data       jsoniter.RawMessage `json:"d,omitempty"`
	OccurredAt int64               `json:"ts"` // Unix milliseconds
}

// NewEvent builds a payload, encoding data as its JSON detail.
func NewEvent(eventType model.EventType, entityID, actorID string, data any) (EventPayload, error) {
	p := EventPayload{
		Type:       eventType,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: time.Now().UnixMilli(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return EventPayload{}, fmt.Errorf("marshal event data: %w", err)
		}
		p.Data = raw
	}
	return p, nil
}

// Publisher enqueues catalog events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new activity event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "activity.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously and returns its stream ID.
func (p *Publisher) Publish(ctx context.Context, event EventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishAsync publishes without blocking the caller. Failures are logged
// and counted as dropped.
func (p *Publisher) PublishAsync(event EventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish catalog event",
				"event_type", event.Type,
				"entity_id", event.EntityID,
				"error", err,
			)
			p.metrics.IncActivityEventPublished("dropped")
			return
		}

		p.logger.Debug("catalog event published",
			"event_type", event.Type,
			"entity_id", event.EntityID,
			"stream_id", streamID,
		)
		p.metrics.IncActivityEventPublished("success")
	}()
}

// Record builds an event and publishes it asynchronously.
func (p *Publisher) Record(eventType model.EventType, entityID, actorID string, data any) {
	event, err := NewEvent(eventType, entityID, actorID, data)
	if err != nil {
		p.logger.Warn("failed to build catalog event", "event_type", eventType, "error", err)
		p.metrics.IncActivityEventPublished("dropped")
		return
	}
	p.PublishAsync(event)
}
