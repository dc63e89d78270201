// Package provider resolves client-facing model slugs and routes chat
// completions to the upstream provider.
package provider

import (
	"context"
	"net/http"

	"github.com/mandalnilabja/grokway/internal/config"
	"github.com/mandalnilabja/grokway/internal/types"
)

// System prompt variants understood by Grok.
const (
	SystemPromptFun    = "fun"
	SystemPromptNormal = "normal"
)

// DefaultModels is the catalog served when the config declares none.
var DefaultModels = []config.ModelAlias{
	{Slug: "fun", Name: "Grok Fun", Description: "Grok model with a fun personality", SystemPrompt: SystemPromptFun},
	{Slug: "normal", Name: "Grok Normal", Description: "Standard Grok model", SystemPrompt: SystemPromptNormal},
}

// Router maps model slugs to system prompt variants and delegates to the
// upstream provider. It implements the types.Provider interface.
type Router struct {
	provider types.Provider
	aliases  []config.ModelAlias
	slugMap  map[string]string // Pre-resolved for O(1) lookup
}

// NewRouter creates a Router. An empty alias list falls back to DefaultModels.
func NewRouter(p types.Provider, aliases []config.ModelAlias) *Router {
	if len(aliases) == 0 {
		aliases = DefaultModels
	}

	r := &Router{
		provider: p,
		aliases:  aliases,
		slugMap:  make(map[string]string, len(aliases)),
	}

	// Build slug map at startup (not per-request)
	for _, alias := range aliases {
		prompt := alias.SystemPrompt
		if prompt == "" {
			prompt = SystemPromptNormal
		}
		r.slugMap[alias.Slug] = prompt
	}
	return r
}

// Name returns the router identifier.
func (r *Router) Name() string {
	return "router"
}

// Resolve returns the system prompt variant for a model slug. Unknown and
// empty slugs resolve to "normal".
func (r *Router) Resolve(slug string) string {
	if prompt, ok := r.slugMap[slug]; ok {
		return prompt
	}
	return SystemPromptNormal
}

// Models lists the catalog in config order.
func (r *Router) Models() []types.Model {
	models := make([]types.Model, 0, len(r.aliases))
	for _, alias := range r.aliases {
		models = append(models, types.Model{
			ID:          alias.Slug,
			Name:        alias.Name,
			Description: alias.Description,
		})
	}
	return models
}

// ProxyRequest resolves the system prompt, then delegates to the provider.
func (r *Router) ProxyRequest(ctx context.Context, w http.ResponseWriter, opts *types.ProxyOptions) (*types.ProxyResult, error) {
	opts.SystemPrompt = r.Resolve(opts.Model)
	return r.provider.ProxyRequest(ctx, w, opts)
}
