// Package health expone el endpoint de liveness/readiness.
package health

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/store"
)

type Controller struct {
	store   store.Store
	started time.Time
}

func NewController(st store.Store) *Controller {
	return &Controller{store: st, started: time.Now()}
}

// Healthz maneja GET /healthz. Responde 503 si el storage no contesta.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := c.store.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, code, map[string]any{
		"status":         status,
		"uptime_seconds": int(time.Since(c.started).Seconds()),
	})
}
