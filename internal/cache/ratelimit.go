package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Bucket is one family of token buckets, one bucket per subject.
type Bucket struct {
	Prefix string
	Rate   float64 // tokens per second; <= 0 is unlimited
	Burst  int
	// Hashed subjects are stored as a truncated SHA-256, for client IPs.
	Hashed bool
}

// KeyBucket limits an API key to its tier's requests per minute.
func KeyBucket(requestsPerMinute, burst int) Bucket {
	return Bucket{Prefix: "ratelimit:apikey:", Rate: float64(requestsPerMinute) / 60, Burst: burst}
}

// IPBucket limits anonymous catalog browsing per client IP.
func IPBucket(requestsPerSecond, burst int) Bucket {
	return Bucket{Prefix: "ratelimit:ip:", Rate: float64(requestsPerSecond), Burst: burst, Hashed: true}
}

// Key returns the Redis key holding subject's bucket.
func (b Bucket) Key(subject string) string {
	if b.Hashed {
		return b.Prefix + hashIP(subject)
	}
	return b.Prefix + subject
}

// refill is how long an empty bucket takes to fill; idle state expires after it.
func (b Bucket) refill() time.Duration {
	d := time.Duration(float64(b.Burst) / b.Rate * float64(time.Second))
	if d < time.Second {
		return time.Second
	}
	return d
}

// takeScript refills by elapsed milliseconds, then takes one token if there
// is one. Returns {allowed, retry_after_ms, remaining}.
var takeScript = redis.NewScript(`
local rate = tonumber(ARGV[1]) / 1000
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now
if now > ts then
	tokens = math.min(burst, tokens + (now - ts) * rate)
end

local allowed, wait = 0, 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait = math.ceil((1 - tokens) / rate)
end

redis.call('HMSET', KEYS[1], 'tokens', tostring(tokens), 'ts', now)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {allowed, wait, math.floor(tokens)}
`)

// Take consumes one token from subject's bucket. Redis errors are returned
// so callers can fall back to a LocalLimiter.
func (c *Cache) Take(ctx context.Context, b Bucket, subject string) (*RateLimitResult, error) {
	now := time.Now()
	if b.Rate <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(b.Burst), ResetAt: now.Add(time.Minute)}, nil
	}

	reply, err := takeScript.Run(ctx, c.client, []string{b.Key(subject)},
		b.Rate, b.Burst, now.UnixMilli(), b.refill().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("take %s token: %w", b.Prefix, err)
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("unexpected token bucket reply: %v", reply)
	}

	res := &RateLimitResult{
		Allowed:   reply[0] == 1,
		Remaining: reply[2],
		ResetAt:   now.Add(time.Duration(float64(time.Second) / b.Rate)),
	}
	if !res.Allowed {
		wait := time.Duration(reply[1]) * time.Millisecond
		res.ResetAt = now.Add(wait)
		res.RetryAfter = time.Duration(math.Ceil(wait.Seconds())) * time.Second
	}
	return res, nil
}

// hashIP keeps raw client addresses out of Redis.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
