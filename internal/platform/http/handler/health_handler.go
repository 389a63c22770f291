// Package handler provides HTTP handlers for platform-level endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// CheckFunc checks one dependency.
type CheckFunc func(ctx context.Context) error

// HealthHandler serves /healthz and checks the registered dependencies.
type HealthHandler struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. Nil checks are skipped.
func NewHealthHandler(checks map[string]CheckFunc) *HealthHandler {
	cs := make(map[string]CheckFunc, len(checks))
	for name, fn := range checks {
		if fn != nil {
			cs[name] = fn
		}
	}
	return &HealthHandler{checks: cs, timeout: 2 * time.Second}
}

// Health handles /healthz. GET reports every check and answers 503 when one fails.
func (h *HealthHandler) Health(c *gin.Context) {
	// Never cache health responses
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
		return
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			slog.Warn("health check failed", "check", name, "error", err)
			results[name] = "unhealthy"
			status = "degraded"
			continue
		}
		results[name] = "healthy"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": results})
}
