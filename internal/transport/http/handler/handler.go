// Package handler composes the HTTP handler groups.
package handler

import (
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/tokenizer"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/admin"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/infra"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/proxy"
)

// Repo composes all domain-specific handlers.
type Repo struct {
	Admin *admin.Handlers
	Proxy *proxy.Handlers
	Infra *infra.Handlers
}

// Deps carries what the handler groups need.
type Deps struct {
	Router     proxy.Router
	Storage    storage.Storage
	Tokenizer  tokenizer.Tokenizer
	Metrics    *metrics.Metrics
	StatsCache *ristretto.Cache[string, *storage.UsageStats]
	Logger     *slog.Logger
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(d Deps) *Repo {
	startTime := time.Now()
	return &Repo{
		Admin: admin.New(d.Storage, startTime, d.StatsCache),
		Proxy: proxy.New(d.Router, d.Storage, d.Tokenizer, d.Metrics, d.Logger),
		Infra: infra.New(startTime),
	}
}
