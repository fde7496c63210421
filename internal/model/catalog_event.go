package model

import (
	"encoding/json"
	"time"
)

// EventType names a catalog activity.
type EventType string

const (
	EventInstanceRenewed EventType = "instance_renewed"
	EventAuthorCreated   EventType = "author_created"
	EventAuthorUpdated   EventType = "author_updated"
	EventAuthorDeleted   EventType = "author_deleted"
	EventBookCreated     EventType = "book_created"
	EventBookUpdated     EventType = "book_updated"
	EventBookDeleted     EventType = "book_deleted"
	EventInstanceCreated EventType = "instance_created"
	EventGenreCreated    EventType = "genre_created"
	EventLanguageCreated EventType = "language_created"
)

// IsValid reports whether the event type is known.
func (e EventType) IsValid() bool {
	switch e {
	case EventInstanceRenewed,
		EventAuthorCreated, EventAuthorUpdated, EventAuthorDeleted,
		EventBookCreated, EventBookUpdated, EventBookDeleted,
		EventInstanceCreated, EventGenreCreated, EventLanguageCreated:
		return true
	}
	return false
}

// CatalogEvent is a persisted record of a change to the catalog or a loan.
type CatalogEvent struct {
	ID         string          `json:"id"`
	EventID    string          `json:"event_id"` // stream message ID, idempotency key
	EventType  EventType       `json:"event_type"`
	EntityID   string          `json:"entity_id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
