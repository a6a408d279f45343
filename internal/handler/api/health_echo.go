package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthEchoHandler serves /healthz from a set of named checks.
type HealthEchoHandler struct {
	checks map[string]HealthCheck
}

func NewHealthEchoHandler(checks map[string]HealthCheck) *HealthEchoHandler {
	return &HealthEchoHandler{checks: checks}
}

func (h *HealthEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
}

func (h *HealthEchoHandler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	return c.JSON(code, map[string]interface{}{"status": status, "checks": results})
}
