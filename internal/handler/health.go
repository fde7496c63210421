package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const readyTimeout = 3 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type namedCheck struct {
	name    string
	checker HealthChecker
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	checks []namedCheck
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler over Postgres and Redis.
// A nil checker is reported as "not configured" and does not fail readiness.
func NewHealthHandler(db, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		checks: []namedCheck{{"postgres", db}, {"redis", cache}},
		logger: logger,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is the liveness probe. It checks no dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every dependency in parallel and answers 503 if any fails.
// Failure details go to the log, not the response.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	results := make([]string, len(h.checks))
	var wg sync.WaitGroup
	for i, c := range h.checks {
		if c.checker == nil {
			results[i] = "not configured"
			continue
		}
		wg.Add(1)
		go func(i int, c namedCheck) {
			defer wg.Done()
			if err := c.checker.Ping(ctx); err != nil {
				h.logger.Warn("readiness check failed", "dependency", c.name, "error", err)
				results[i] = "error"
				return
			}
			results[i] = "ok"
		}(i, c)
	}
	wg.Wait()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for i, c := range h.checks {
		resp.Checks[c.name] = results[i]
		if results[i] == "error" {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
