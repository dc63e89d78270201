package types

import (
	"context"
	"net/http"
	"time"
)

// Provider defines the interface the chat handler proxies through.
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// ProxyRequest runs one chat completion against the upstream and
	// writes the downstream response to w.
	// MUST maintain streaming semantics (no buffering)
	// Returns ProxyResult with request metadata for logging
	ProxyRequest(ctx context.Context, w http.ResponseWriter, opts *ProxyOptions) (*ProxyResult, error)
}

// ProxyOptions contains options for proxying a request
type ProxyOptions struct {
	// RequestID for tracing
	RequestID string

	// Model as sent by the client
	Model string

	// SystemPrompt is the upstream prompt variant resolved from Model
	SystemPrompt string

	// Messages is the chat history to forward
	Messages []Message
}

// ProxyResult contains the result of a proxied request
type ProxyResult struct {
	Model        string
	SystemPrompt string

	// Prompt is the flattened context sent upstream; Output is the
	// concatenation of every delta written to the client.
	Prompt string
	Output string

	Frames      int
	ParseErrors int

	// Request metadata
	StatusCode        int
	Committed         bool
	BootstrapDuration time.Duration
	Duration          time.Duration
	IsStreaming       bool

	// Error info (if any)
	Error        error
	ErrorMessage string
}
