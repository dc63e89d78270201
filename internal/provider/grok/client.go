// Package grok implements the x.com Grok upstream: conversation bootstrap,
// the streaming add_response call, NDJSON decoding and SSE transcoding.
package grok

import (
	"errors"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mandalnilabja/grokway/internal/config"
)

// Errors surfaced by the upstream client. Wrapped errors keep the cause.
var (
	// ErrBootstrap means no conversation id could be obtained.
	ErrBootstrap = errors.New("grok: conversation bootstrap failed")

	// ErrStream means the add_response stream failed to open or broke.
	ErrStream = errors.New("grok: upstream stream failed")
)

// createConversationQueryID identifies the CreateGrokConversation GraphQL operation.
const createConversationQueryID = "UBIjqHqsA5aixuibXTBheQ"

// Client talks to the Grok web endpoints with a fixed x.com session.
type Client struct {
	httpClient *http.Client
	upstream   config.Upstream
	tracer     trace.Tracer
}

// NewClient creates a client. A nil httpClient gets a default one with
// compression disabled, since the stream is consumed incrementally.
func NewClient(upstream config.Upstream, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(&http.Transport{
				Proxy:              http.ProxyFromEnvironment,
				DisableCompression: true,
			}),
		}
	}
	return &Client{
		httpClient: httpClient,
		upstream:   upstream,
		tracer:     otel.Tracer("github.com/mandalnilabja/grokway/internal/provider/grok"),
	}
}

// setSessionHeaders adds the headers the x.com web client sends.
func (c *Client) setSessionHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.upstream.AuthToken)
	req.Header.Set("Cookie", c.upstream.Cookie)
	req.Header.Set("Origin", "https://x.com")
	req.Header.Set("Referer", "https://x.com/")
	req.Header.Set("User-Agent", c.upstream.UserAgent)
	req.Header.Set("x-csrf-token", c.upstream.CSRFToken)
	req.Header.Set("x-twitter-auth-type", "OAuth2Session")
	req.Header.Set("x-twitter-client-language", "en")
}
