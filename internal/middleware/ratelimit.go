package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/locallibrary/catalog/internal/auth"
	"github.com/locallibrary/catalog/internal/cache"
	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/model"
)

// RateLimiter is the shared (Redis) token bucket.
type RateLimiter interface {
	Take(ctx context.Context, b cache.Bucket, subject string) (*cache.RateLimitResult, error)
}

var errNoSharedLimiter = errors.New("no shared rate limiter configured")

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger   *slog.Logger
	Limiter  RateLimiter
	Fallback *cache.LocalLimiter // used when Limiter errors; nil fails open

	// Per API key, by tier
	APIEnabled bool

	// Per client IP on public routes
	PublicEnabled bool
	PublicRPS     int
	PublicBurst   int
}

// RateLimitAPI limits authenticated requests per API key. Must run after Auth.
func RateLimitAPI(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if !cfg.APIEnabled || authCtx == nil {
				next.ServeHTTP(w, r)
				return
			}

			tier, ok := model.TierConfigs[authCtx.RateLimitTier]
			if !ok {
				tier = model.TierConfigs[model.TierPatron]
			}
			if tier.RequestsPerMinute == 0 {
				next.ServeHTTP(w, r)
				return
			}

			bucket := cache.KeyBucket(tier.RequestsPerMinute, tier.Burst)
			result, err := cfg.take(r, bucket, authCtx.KeyID)
			if err != nil {
				result = cfg.fallback(r, bucket, authCtx.KeyID, err)
			}

			setRateLimitHeaders(w, tier.RequestsPerMinute, result)
			if !result.Allowed {
				cfg.reject(w, r, "api", result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitIP limits requests per client IP.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.PublicEnabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			bucket := cache.IPBucket(cfg.PublicRPS, cfg.PublicBurst)
			result, err := cfg.take(r, bucket, ip)
			if err != nil {
				result = cfg.fallback(r, bucket, ip, err)
			}

			if !result.Allowed {
				cfg.reject(w, r, "public", result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (cfg RateLimitConfig) take(r *http.Request, b cache.Bucket, subject string) (*cache.RateLimitResult, error) {
	if cfg.Limiter == nil {
		return nil, errNoSharedLimiter
	}
	return cfg.Limiter.Take(r.Context(), b, subject)
}

// fallback consults the in-process limiter after a Redis failure.
func (cfg RateLimitConfig) fallback(r *http.Request, b cache.Bucket, subject string, cause error) *cache.RateLimitResult {
	cfg.Logger.Warn("shared rate limiter unavailable, using local limiter",
		slog.String("error", cause.Error()),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	if cfg.Fallback == nil {
		return &cache.RateLimitResult{Allowed: true, Remaining: int64(b.Burst), ResetAt: time.Now()}
	}
	return cfg.Fallback.Allow(b.Key(subject), b.Rate, b.Burst)
}

func (cfg RateLimitConfig) reject(w http.ResponseWriter, r *http.Request, kind string, result *cache.RateLimitResult) {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	cfg.Logger.Warn("rate limit exceeded",
		slog.String("type", kind),
		slog.String("ip", clientIP(r)),
		slog.String("key_id", auth.KeyIDFromContext(r.Context())),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Int("retry_after_seconds", retryAfter),
		slog.String("request_id", GetRequestID(r.Context())),
	)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(w, http.StatusTooManyRequests, dto.CodeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter))
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, result *cache.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware
// has already applied X-Forwarded-For / X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
