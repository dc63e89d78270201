package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// streamBufferSize is the read size for upstream chunks (32KB balances CPU and syscalls).
const streamBufferSize = 32 * 1024

// StreamRequest is one add_response call.
type StreamRequest struct {
	// Message is the full flattened context.
	Message string
	// SystemPromptName selects Grok's persona, "fun" or "normal".
	SystemPromptName string
	ConversationID   string
}

type addResponseRequest struct {
	Responses         []responseTurn `json:"responses"`
	SystemPromptName  string         `json:"systemPromptName"`
	GrokModelOptionID string         `json:"grokModelOptionId"`
	ConversationID    string         `json:"conversationId"`
}

type responseTurn struct {
	Message string `json:"message"`
	Sender  int    `json:"sender"`
}

// senderUser marks a turn as written by the user.
const senderUser = 1

// Stream is a live upstream response body, consumed chunk by chunk.
// It has a single consumer and cannot be restarted.
type Stream struct {
	body io.ReadCloser
	buf  []byte
	err  error
}

// OpenStream starts the add_response call and returns once the upstream has
// answered with a 2xx status. Reading is bound to ctx.
func (c *Client) OpenStream(ctx context.Context, sr StreamRequest) (*Stream, error) {
	ctx, span := c.tracer.Start(ctx, "grok.OpenStream")
	defer span.End()
	span.SetAttributes(attribute.String("grok.system_prompt", sr.SystemPromptName))

	resp, err := c.openStream(ctx, sr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open stream failed")
		return nil, fmt.Errorf("%w: %w", ErrStream, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	return &Stream{
		body: resp.Body,
		buf:  make([]byte, streamBufferSize),
	}, nil
}

func (c *Client) openStream(ctx context.Context, sr StreamRequest) (*http.Response, error) {
	body, err := json.Marshal(addResponseRequest{
		Responses:         []responseTurn{{Message: sr.Message, Sender: senderUser}},
		SystemPromptName:  sr.SystemPromptName,
		GrokModelOptionID: c.upstream.ModelOptionID,
		ConversationID:    sr.ConversationID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.upstream.ResponseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setSessionHeaders(req)
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return resp, nil
}

// Next returns the next raw chunk. The slice is only valid until the
// following call. A clean end of stream returns io.EOF; a broken stream
// returns an error wrapping ErrStream.
func (s *Stream) Next() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			if err != nil {
				s.err = s.wrap(err)
			}
			return s.buf[:n], nil
		}
		if err != nil {
			s.err = s.wrap(err)
			return nil, s.err
		}
	}
}

func (s *Stream) wrap(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return fmt.Errorf("%w: %w", ErrStream, err)
}

// Close releases the upstream connection.
func (s *Stream) Close() error {
	return s.body.Close()
}
