package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// ReadinessCheck probes one downstream dependency.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	clock        func() time.Time
	startedAt    time.Time
	checks       map[string]ReadinessCheck
	checkTimeout time.Duration
}

// HealthOption customises HealthHandlers behaviour.
type HealthOption func(*HealthHandlers)

// WithHealthClock overrides the clock used for probe timestamps.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithReadinessCheck registers a named dependency probe for /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// WithReadinessTimeout bounds how long each dependency probe may take.
func WithReadinessTimeout(d time.Duration) HealthOption {
	return func(h *HealthHandlers) {
		if d > 0 {
			h.checkTimeout = d
		}
	}
}

// NewHealthHandlers constructs probe handlers for /healthz and /readyz.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock:        time.Now,
		checks:       make(map[string]ReadinessCheck),
		checkTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.startedAt = h.clock()
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz probes registered dependencies and reports aggregate readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	checks := make(map[string]map[string]any, len(h.checks))
	details := make([]string, 0)

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), h.checkTimeout)
		err := h.checks[name](ctx)
		cancel()

		entry := map[string]any{"status": "ok"}
		if err != nil {
			entry["status"] = "degraded"
			entry["error"] = err.Error()
			details = append(details, name+": "+err.Error())
		}
		checks[name] = entry
	}

	status := http.StatusOK
	overall := "ok"
	if len(details) > 0 {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSONResponse(w, status, map[string]any{
		"status":    overall,
		"timestamp": now.UTC().Format(time.RFC3339),
		"checks":    checks,
		"details":   details,
	})
}
