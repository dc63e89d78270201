package grok

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mandalnilabja/grokway/internal/types"
)

// ErrClientGone means the downstream client went away mid-stream.
var ErrClientGone = errors.New("grok: client disconnected")

// Provider runs chat completions against Grok.
type Provider struct {
	client *Client
	logger *slog.Logger
}

// New creates a Grok provider. A nil logger discards output.
func New(client *Client, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{client: client, logger: logger}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "grok"
}

// ProxyRequest bootstraps a conversation, opens the upstream stream and
// restreams it as SSE. Response headers are only written once the upstream
// stream is live; failures before that get a JSON 500.
func (p *Provider) ProxyRequest(ctx context.Context, w http.ResponseWriter, opts *types.ProxyOptions) (*types.ProxyResult, error) {
	startTime := time.Now()
	result := &types.ProxyResult{
		Model:        opts.Model,
		SystemPrompt: opts.SystemPrompt,
		IsStreaming:  true,
	}
	defer func() {
		result.Duration = time.Since(startTime)
	}()

	tc, err := NewTranscoder(w)
	if err != nil {
		return p.fail(w, result, err)
	}

	bootstrapStart := time.Now()
	conversationID, err := p.client.CreateConversation(ctx)
	result.BootstrapDuration = time.Since(bootstrapStart)
	if err != nil {
		return p.fail(w, result, err)
	}

	result.Prompt = Normalize(opts.Messages).FullContext()

	stream, err := p.client.OpenStream(ctx, StreamRequest{
		Message:          result.Prompt,
		SystemPromptName: opts.SystemPrompt,
		ConversationID:   conversationID,
	})
	if err != nil {
		return p.fail(w, result, err)
	}
	defer stream.Close()

	tc.Commit()
	result.Committed = true
	result.StatusCode = http.StatusOK

	if err := p.pump(ctx, stream, tc, result, opts.RequestID); err != nil {
		result.Error = err
		result.ErrorMessage = err.Error()
		return result, err
	}
	return result, nil
}

// pump moves chunks from the upstream to the client one at a time, so a slow
// reader holds back upstream consumption.
func (p *Provider) pump(ctx context.Context, stream *Stream, tc *Transcoder, result *types.ProxyResult, requestID string) error {
	dec := NewDecoder(p.logger.With("request_id", requestID))
	var output strings.Builder
	defer func() {
		result.Output = output.String()
		result.ParseErrors = dec.ParseErrors()
	}()

	emit := func(frames []Frame) error {
		for _, f := range frames {
			text := RemoveTweetLinks(f.Message)
			if err := tc.Delta(text); err != nil {
				return fmt.Errorf("%w: %w", ErrClientGone, err)
			}
			output.WriteString(text)
			result.Frames++
		}
		return nil
	}

	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			if err := emit(dec.Flush()); err != nil {
				return err
			}
			if err := tc.Done(); err != nil {
				return fmt.Errorf("%w: %w", ErrClientGone, err)
			}
			return nil
		}
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return fmt.Errorf("%w: %w", ErrClientGone, err)
			}
			// Headers are out; report in-band and terminate the stream.
			_ = tc.Error(types.ErrInvalidRequest(types.GenericErrorMessage))
			_ = tc.Done()
			return err
		}
		if err := emit(dec.Feed(chunk)); err != nil {
			return err
		}
	}
}

func (p *Provider) fail(w http.ResponseWriter, result *types.ProxyResult, err error) (*types.ProxyResult, error) {
	result.Error = err
	result.ErrorMessage = err.Error()
	result.StatusCode = http.StatusInternalServerError
	types.WriteError(w, http.StatusInternalServerError, types.ErrInvalidRequest(types.GenericErrorMessage))
	return result, err
}
