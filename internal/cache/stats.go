package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/locallibrary/catalog/internal/model"
)

const (
	summaryKey = "catalog:summary"
	summaryTTL = 60 * time.Second
)

// GetSummary returns the cached catalog summary, or nil on a miss.
func (c *Cache) GetSummary(ctx context.Context) (*model.CatalogSummary, error) {
	data, err := c.client.Get(ctx, summaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}

	var s model.CatalogSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil //nolint:nilerr // treat as miss
	}
	return &s, nil
}

// SetSummary caches the catalog summary.
func (c *Cache) SetSummary(ctx context.Context, s *model.CatalogSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return c.client.Set(ctx, summaryKey, data, summaryTTL).Err()
}

// InvalidateSummary drops the cached summary after a catalog change.
func (c *Cache) InvalidateSummary(ctx context.Context) error {
	return c.client.Del(ctx, summaryKey).Err()
}
