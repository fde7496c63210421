package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/locallibrary/catalog/internal/model"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// EventStore reads and prunes persisted catalog events.
type EventStore interface {
	ListByEntity(ctx context.Context, entityID string, limit int) ([]*model.CatalogEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityService exposes the persisted activity log.
type ActivityService struct {
	store     EventStore
	retention time.Duration
	logger    *slog.Logger
}

// NewActivityService creates a new ActivityService. A zero retention keeps
// events forever.
func NewActivityService(store EventStore, retention time.Duration, logger *slog.Logger) *ActivityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityService{
		store:     store,
		retention: retention,
		logger:    logger.With("component", "activity.retention"),
	}
}

// ListForEntity returns the newest events for an entity.
func (s *ActivityService) ListForEntity(ctx context.Context, entityID string, limit int) ([]*model.CatalogEvent, error) {
	if entityID == "" {
		return nil, fieldError("entity_id", "required")
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	events, err := s.store.ListByEntity(ctx, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return events, nil
}

// Prune deletes events older than the retention window.
func (s *ActivityService) Prune(ctx context.Context, now time.Time) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	n, err := s.store.DeleteOlderThan(ctx, now.Add(-s.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned catalog events", "deleted", n)
	}
	return n, nil
}

// RunRetention prunes on every tick until ctx is done.
func (s *ActivityService) RunRetention(ctx context.Context, interval time.Duration) {
	if s.retention <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.Prune(ctx, now); err != nil {
				s.logger.Warn("failed to prune catalog events", "error", err)
			}
		}
	}
}
