// Package cache holds the catalog's Redis state: auth contexts, the summary
// snapshot, session visit counters and rate limit buckets.
package cache

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigFastest

// Options tunes the Redis connection pool. Zero fields take the defaults.
type Options struct {
	PoolSize     int
	MinIdleConns int
	// PingTimeout bounds the connectivity check in New.
	PingTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = 10
	}
	if o.MinIdleConns < 0 || o.MinIdleConns > o.PoolSize {
		o.MinIdleConns = 0
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 5 * time.Second
	}
	return o
}

func (o Options) apply(ro *redis.Options) {
	ro.PoolSize = o.PoolSize
	ro.MinIdleConns = o.MinIdleConns
	ro.PoolTimeout = 4 * time.Second
	ro.ConnMaxIdleTime = 5 * time.Minute
}

// Cache wraps the Redis client shared by the auth, summary, session and
// rate limit paths.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and pings it.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	ro, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts = opts.withDefaults()
	opts.apply(ro)
	client := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Ping checks Redis connectivity for the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the client to the activity stream publisher and worker.
func (c *Cache) Client() *redis.Client {
	return c.client
}
