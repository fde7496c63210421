package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/locallibrary/catalog/internal/auth"
	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/model"
)

const (
	// defaultMinAuthDuration pads every auth attempt so failures and cache
	// hits take the same time as a full argon2 check.
	defaultMinAuthDuration = 200 * time.Millisecond

	lastUsedTimeout = 2 * time.Second
)

// KeyStore looks up API keys.
type KeyStore interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
}

// AuthCache caches resolved auth contexts.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger      *slog.Logger
	Keys        KeyStore
	Cache       AuthCache
	MinDuration time.Duration // zero uses the default padding
}

// Auth authenticates requests by API key and injects the auth context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	minDuration := cfg.MinDuration
	if minDuration <= 0 {
		minDuration = defaultMinAuthDuration
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			authCtx, reason := authenticate(r, cfg)
			padAuth(r.Context(), minDuration, start)

			if authCtx == nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, dto.CodeUnauthorized, "Invalid or missing API key")
				return
			}

			cfg.Logger.Info("authentication successful",
				slog.String("key_id", authCtx.KeyID),
				slog.String("key_prefix", authCtx.KeyPrefix),
				slog.String("user_id", authCtx.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.Bool("cache_hit", reason == "cache_hit"),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			r = r.WithContext(auth.ContextWithAuth(r.Context(), authCtx))
			noteAuth(r)
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate resolves the request's key. On failure it returns a nil
// context and the reason; on success the reason says whether the cache hit.
func authenticate(r *http.Request, cfg AuthConfig) (*model.AuthContext, string) {
	ctx := r.Context()

	key := extractAPIKey(r)
	if key == "" {
		return nil, "missing_key"
	}

	parsed, err := auth.ParseAPIKey(key)
	if err != nil {
		return nil, "invalid_format"
	}

	cacheKey := auth.CacheDigest(key)
	if cfg.Cache != nil {
		cached, err := cfg.Cache.GetAuthContext(ctx, cacheKey)
		if err != nil {
			cfg.Logger.Warn("auth cache unavailable", slog.String("error", err.Error()))
		}
		if cached != nil {
			return cached, "cache_hit"
		}
	}

	keys, err := cfg.Keys.GetAPIKeysByPrefix(ctx, parsed.Prefix)
	if err != nil {
		cfg.Logger.Error("database error during auth",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(ctx)),
		)
		return nil, "lookup_failed"
	}

	// Prefixes can collide; check every candidate.
	var matched *model.APIKey
	for _, k := range keys {
		if ok, err := auth.VerifyKey(key, k.KeyHash); err == nil && ok {
			matched = k
			break
		}
	}
	if matched == nil {
		return nil, "invalid_key"
	}

	authCtx := &model.AuthContext{
		KeyID:         matched.ID,
		KeyPrefix:     matched.KeyPrefix,
		UserID:        matched.UserID,
		Scopes:        matched.Scopes,
		RateLimitTier: matched.RateLimitTier,
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.SetAuthContext(ctx, cacheKey, authCtx); err != nil {
			cfg.Logger.Warn("failed to cache auth context", slog.String("error", err.Error()))
		}
	}

	go func(id string) {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), lastUsedTimeout)
		defer cancel()
		if err := cfg.Keys.UpdateAPIKeyLastUsed(bg, id); err != nil {
			cfg.Logger.Debug("failed to update key last_used_at", slog.String("error", err.Error()))
		}
	}(matched.ID)

	return authCtx, "verified"
}

// padAuth sleeps until d has passed since start, or ctx ends.
func padAuth(ctx context.Context, d time.Duration, start time.Time) {
	remaining := d - time.Since(start)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// extractAPIKey reads "Authorization: Bearer <key>" or "X-API-Key: <key>".
func extractAPIKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
