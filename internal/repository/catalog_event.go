package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/locallibrary/catalog/internal/model"
)

// CatalogEventRepository provides database access for catalog activity.
type CatalogEventRepository struct {
	repo *Repository
}

// NewCatalogEventRepository creates a new CatalogEventRepository.
func NewCatalogEventRepository(repo *Repository) *CatalogEventRepository {
	return &CatalogEventRepository{repo: repo}
}

// BulkInsert inserts events in one statement; rows whose event_id was
// already stored are skipped.
func (r *CatalogEventRepository) BulkInsert(ctx context.Context, events []*model.CatalogEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]any, 0, len(events))
	for _, e := range events {
		var payload any
		if len(e.Payload) > 0 {
			payload = string(e.Payload)
		}
		rows = append(rows, goqu.Record{
			"id":          e.ID,
			"event_id":    e.EventID,
			"event_type":  string(e.EventType),
			"entity_id":   e.EntityID,
			"actor_id":    e.ActorID,
			"payload":     payload,
			"occurred_at": e.OccurredAt,
		})
	}

	query, args, err := querySQL(dialect.Insert("catalog_events").
		Prepared(true).
		Rows(rows...).
		OnConflict(goqu.DoNothing()))
	if err != nil {
		return err
	}

	if _, err := r.repo.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert catalog events: %w", err)
	}
	return nil
}

// ListByEntity returns the most recent events for an entity, newest first.
func (r *CatalogEventRepository) ListByEntity(ctx context.Context, entityID string, limit int) ([]*model.CatalogEvent, error) {
	query, args, err := querySQL(dialect.From("catalog_events").
		Prepared(true).
		Select("id", "event_id", "event_type", "entity_id", "actor_id", "payload", "occurred_at").
		Where(goqu.C("entity_id").Eq(entityID)).
		Order(goqu.C("occurred_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(limit)))
	if err != nil {
		return nil, err
	}

	rows, err := r.repo.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog events: %w", err)
	}
	defer rows.Close()

	events := []*model.CatalogEvent{}
	for rows.Next() {
		var (
			e         model.CatalogEvent
			eventType string
			payload   []byte
		)
		if err := rows.Scan(&e.ID, &e.EventID, &eventType, &e.EntityID, &e.ActorID, &payload, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog event: %w", err)
		}
		e.EventType = model.EventType(eventType)
		e.Payload = payload
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog events: %w", err)
	}
	return events, nil
}

// DeleteOlderThan prunes events that occurred before cutoff.
func (r *CatalogEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.repo.pool.Exec(ctx, `DELETE FROM catalog_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune catalog events: %w", err)
	}
	return result.RowsAffected(), nil
}
