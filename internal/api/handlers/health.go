package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// Pinger is an optional dependency checked by /health (the Redis client)
type Pinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and, when the run store supports it, store connectivity
type HealthHandler struct {
	store   contracts.RunStore
	cache   Pinger
	started time.Time
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store contracts.RunStore, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		started: time.Now(),
		logger:  log.Component("health"),
	}
}

// WithCache adds the cache connection to the report
func (h *HealthHandler) WithCache(p Pinger) *HealthHandler {
	h.cache = p
	return h
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": "a-share-picker",
		"time":    time.Now().Format(time.RFC3339),
		"uptime":  time.Since(h.started).Truncate(time.Second).String(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthy := true
	if sh, ok := h.store.(contracts.StoreHealth); ok {
		status, err := sh.Health(ctx)
		if err != nil {
			h.logger.WithError(err).Warn("Run store unhealthy")
			status["error"] = err.Error()
			healthy = false
		}
		resp["store"] = status
	}

	if h.cache != nil && h.cache.Enabled() {
		cache := map[string]interface{}{"driver": "redis"}
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("Cache unreachable")
			cache["error"] = err.Error()
			healthy = false
		}
		resp["cache"] = cache
	}

	if !healthy {
		resp["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
