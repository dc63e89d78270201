// Package app wires handlers, middleware and the HTTP server together.
package app

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/ratelimit"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger         *slog.Logger
	Storage        storage.Storage
	Limiter        *ratelimit.Limiter
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	EnableTracing  bool
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
// opts must not be nil; Limiter and Storage are required.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.Handle("GET /metrics", opts.Metrics.Handler())

	registerProxyRoutes(mux, repo, opts)
	registerAdminRoutes(mux, repo, opts)

	// Root returns JSON status
	mux.HandleFunc("GET /{$}", repo.Infra.RootStatus)

	// Apply middleware chain (order: inner to outer)
	var h http.Handler = mux

	if opts.EnableTracing {
		h = otelhttp.NewHandler(h, "grokway")
	}

	// Request logging (if logger provided)
	if opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}

	// Request ID (always applied)
	h = middleware.RequestID(h)

	// CORS (always applied for browser chat frontends)
	h = middleware.CORS(h)

	return h
}

// registerProxyRoutes mounts the OpenAI-style routes at the root and under /v1.
func registerProxyRoutes(mux *http.ServeMux, repo *handler.Repo, opts *RouterOptions) {
	var chat http.Handler = http.HandlerFunc(repo.Proxy.ChatCompletions)
	if opts.RequestTimeout > 0 {
		chat = middleware.Timeout(opts.RequestTimeout)(chat)
	}
	chat = ratelimit.Middleware(opts.Limiter, opts.Logger, opts.Metrics)(chat)

	for _, prefix := range []string{"", "/v1"} {
		mux.Handle("POST "+prefix+"/chat/completions", chat)
		mux.HandleFunc("GET "+prefix+"/models", repo.Proxy.ListModels)
	}
}

// registerAdminRoutes adds all admin API routes to the router.
func registerAdminRoutes(mux *http.ServeMux, repo *handler.Repo, opts *RouterOptions) {
	adminAuth := auth.AdminAuth(opts.Storage)

	// Helper to wrap handler with admin auth
	withAuth := func(h http.HandlerFunc) http.Handler {
		return adminAuth(h)
	}

	// Usage and logs
	mux.Handle("GET /api/admin/usage", withAuth(repo.Admin.GetUsageStats))
	mux.Handle("GET /api/admin/usage/daily", withAuth(repo.Admin.GetDailyUsage))
	mux.Handle("GET /api/admin/logs", withAuth(repo.Admin.GetRequestLogs))
	mux.Handle("DELETE /api/admin/logs", withAuth(repo.Admin.DeleteRequestLogs))

	// System info
	mux.Handle("GET /api/admin/health", withAuth(repo.Admin.AdminHealth))
	mux.Handle("GET /api/admin/info", withAuth(repo.Admin.AdminInfo))
}
