// Package proxy implements the OpenAI-style chat completion endpoints.
package proxy

import (
	"log/slog"

	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/tokenizer"
	"github.com/mandalnilabja/grokway/internal/types"
)

// Router is the model-aware provider the handlers delegate to.
type Router interface {
	types.Provider

	// Models lists the model catalog.
	Models() []types.Model
}

// Handlers holds the dependencies for proxy HTTP handlers.
// Storage, Tokenizer and Metrics are optional.
type Handlers struct {
	Router    Router
	Storage   storage.Storage
	Tokenizer tokenizer.Tokenizer
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// New creates a new instance of proxy handlers.
func New(router Router, store storage.Storage, tok tokenizer.Tokenizer, m *metrics.Metrics, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		Router:    router,
		Storage:   store,
		Tokenizer: tok,
		Metrics:   m,
		Logger:    logger,
	}
}
