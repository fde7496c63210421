package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter is an in-process token bucket per key. It stands in for the
// Redis limiter while Redis is unreachable.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	idleTTL time.Duration
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates a LocalLimiter that forgets keys idle for idleTTL.
func NewLocalLimiter(idleTTL time.Duration) *LocalLimiter {
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	return &LocalLimiter{
		entries: make(map[string]*localEntry),
		idleTTL: idleTTL,
	}
}

// Allow consumes one token for key. ratePerSecond <= 0 means unlimited.
func (l *LocalLimiter) Allow(key string, ratePerSecond float64, burst int) *RateLimitResult {
	now := time.Now()
	if ratePerSecond <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: now.Add(time.Minute)}
	}
	if burst < 1 {
		burst = 1
	}

	l.mu.Lock()
	ent, ok := l.entries[key]
	if !ok || ent.lim.Limit() != rate.Limit(ratePerSecond) || ent.lim.Burst() != burst {
		ent = &localEntry{lim: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
		l.entries[key] = ent
	}
	ent.lastSeen = now
	l.mu.Unlock()

	res := ent.lim.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
		return &RateLimitResult{
			Allowed:    false,
			ResetAt:    now.Add(delay),
			RetryAfter: time.Duration(math.Ceil(delay.Seconds())) * time.Second,
		}
	}

	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(math.Floor(ent.lim.TokensAt(now))),
		ResetAt:   now.Add(time.Duration(float64(time.Second) / ratePerSecond)),
	}
}

// Cleanup drops keys not seen within the idle TTL.
func (l *LocalLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is cancelled.
func (l *LocalLimiter) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}

// Len returns the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
