package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// readyTimeout bounds each dependency probe.
const readyTimeout = 3 * time.Second

// HealthChecker is anything that can be pinged for readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name    string
	checker HealthChecker
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	deps    []dependency
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler. A nil db or cache is reported
// as "not configured" and does not fail readiness.
func NewHealthHandler(db, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		deps: []dependency{
			{name: "postgres", checker: db},
			{name: "redis", checker: cache},
		},
		started: time.Now(),
		logger:  logger,
	}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds,omitempty"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// Healthz reports that the process is up. It checks no dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// Readyz pings every configured dependency concurrently and answers 503 if
// any of them fails. Failure details are logged, never returned.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		checks  = make(map[string]string, len(h.deps))
	)

	for _, dep := range h.deps {
		if dep.checker == nil {
			checks[dep.name] = "not configured"
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := dep.checker.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Warn("readiness check failed",
					"dependency", dep.name,
					"duration_ms", time.Since(start).Milliseconds(),
					"error", err,
				)
				checks[dep.name] = "unavailable"
				healthy = false
				return
			}
			checks[dep.name] = "ok"
		}()
	}
	wg.Wait()

	resp := HealthResponse{Status: "ok", Checks: checks}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
