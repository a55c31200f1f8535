package controllers

import (
	"context"
	"net/http"
	"time"

	dto "github.com/dropDatabas3/olympus/internal/http/dto"
	"github.com/dropDatabas3/olympus/internal/http/helpers"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
)

type HealthController struct {
	checks  map[string]HealthCheck
	version string
}

// Healthz maneja GET /healthz. 503 si algún componente falla.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Version: c.version}
	status := http.StatusOK
	if len(c.checks) > 0 {
		resp.Components = make(map[string]string, len(c.checks))
	}
	for name, check := range c.checks {
		if err := check(ctx); err != nil {
			logger.From(ctx).Warn("health check failed", logger.Component(name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "up"
	}
	helpers.WriteJSON(w, status, resp)
}
