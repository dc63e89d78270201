package infra

import (
	"net/http"
	"time"

	"github.com/mandalnilabja/grokway/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/grokway/internal/version"
)

// RootStatus returns JSON status and version information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]any{
		"name":    "grokway",
		"version": version.Version,
		"status":  "running",
		"api":     "/v1",
		"admin":   "/api/admin",
		"metrics": "/metrics",
	}, http.StatusOK)
}

// HealthCheck handler returns the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]any{
		"status": "active",
		"app":    "grokway",
		"uptime": time.Since(h.StartTime).Truncate(time.Second).String(),
	}, http.StatusOK)
}
