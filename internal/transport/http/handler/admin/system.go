package admin

import (
	"net/http"
	"runtime"
	"time"

	"github.com/mandalnilabja/grokway/internal/config"
	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/grokway/internal/version"
)

// AdminHealth handles GET /api/admin/health.
func (h *Handlers) AdminHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	dbStatus := "connected"

	if _, err := h.Storage.HasAdminPassword(); err != nil {
		status = "degraded"
		dbStatus = "error: " + err.Error()
	}

	shared.WriteJSON(w, map[string]any{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// AdminInfo handles GET /api/admin/info.
func (h *Handlers) AdminInfo(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.StartTime)

	info := map[string]any{
		"version":     version.Version,
		"go_version":  runtime.Version(),
		"uptime":      uptime.Truncate(time.Second).String(),
		"uptime_secs": int64(uptime.Seconds()),
		"data_dir":    config.DataDir(),
	}
	if stats, err := h.Storage.GetUsageStats(storage.StatsFilter{}); err == nil {
		info["stats"] = map[string]any{
			"total_requests": stats.TotalRequests,
			"total_tokens":   stats.TotalTokens,
			"error_count":    stats.ErrorCount,
		}
	}

	shared.WriteJSON(w, info, http.StatusOK)
}
