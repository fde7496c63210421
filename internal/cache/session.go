package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	sessionVisitsPrefix = "session:visits:"
	// SessionTTL matches the lifetime of the session cookie.
	SessionTTL = 14 * 24 * time.Hour
)

// IncrementVisits records a visit for sessionID and returns the number of
// visits before this one.
func (c *Cache) IncrementVisits(ctx context.Context, sessionID string) (int64, error) {
	key := sessionVisitsPrefix + sessionID

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment visits: %w", err)
	}

	return incr.Val() - 1, nil
}
