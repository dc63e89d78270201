package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/codes"
)

type createConversationRequest struct {
	Variables struct{} `json:"variables"`
	QueryID   string   `json:"queryId"`
}

type createConversationResponse struct {
	Data struct {
		CreateGrokConversation struct {
			ConversationID string `json:"conversation_id"`
		} `json:"create_grok_conversation"`
	} `json:"data"`
}

// CreateConversation asks Grok for a fresh conversation id. The id is only
// valid for the request that obtained it.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	ctx, span := c.tracer.Start(ctx, "grok.CreateConversation")
	defer span.End()

	id, err := c.createConversation(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bootstrap failed")
		return "", fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	return id, nil
}

func (c *Client) createConversation(ctx context.Context) (string, error) {
	body, err := json.Marshal(createConversationRequest{QueryID: createConversationQueryID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.upstream.ConversationURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setSessionHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out createConversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	id := out.Data.CreateGrokConversation.ConversationID
	if id == "" {
		return "", fmt.Errorf("response has no conversation_id")
	}
	return id, nil
}
