package proxy

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/provider/grok"
	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/ratelimit"
	"github.com/mandalnilabja/grokway/internal/types"
)

// maxRequestBytes bounds the chat request body.
const maxRequestBytes = 10 << 20

// ChatCompletions handles POST /chat/completions. The response is always
// SSE on success; the provider decides when headers are committed.
func (h *Handlers) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}
	clientIP := ratelimit.ClientIP(r)

	var req types.ChatCompletionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.Metrics.IncRejectedInput()
		h.Logger.Info("rejected chat request", "request_id", requestID, "client_ip", clientIP, "error", err)
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("Invalid request body: expected a JSON object with a messages array."))
		return
	}

	h.Logger.Info("chat completion started",
		"request_id", requestID,
		"client_ip", clientIP,
		"model", req.Model,
		"messages", len(req.Messages),
	)

	opts := &types.ProxyOptions{
		RequestID: requestID,
		Model:     req.Model,
		Messages:  req.Messages,
	}

	result, err := h.Router.ProxyRequest(r.Context(), w, opts)

	// Token counting and storage run after the response is complete.
	go h.logChatRequest(requestID, clientIP, result, err)
}

// outcome classifies a finished request for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeStreamed
	case errors.Is(err, grok.ErrClientGone):
		return metrics.OutcomeClientGone
	case errors.Is(err, grok.ErrBootstrap):
		return metrics.OutcomeBootstrapFailed
	default:
		return metrics.OutcomeStreamFailed
	}
}

// logChatRequest records console, metrics and storage telemetry for one request.
func (h *Handlers) logChatRequest(requestID, clientIP string, result *types.ProxyResult, err error) {
	if result == nil {
		return
	}

	var prompt, completion, inputWords, outputWords int
	if h.Tokenizer != nil {
		var tokErr error
		if prompt, tokErr = h.Tokenizer.CountTokens(result.Prompt); tokErr != nil {
			h.Logger.Warn("token count failed", "request_id", requestID, "error", tokErr)
		}
		completion, _ = h.Tokenizer.CountTokens(result.Output)
		inputWords = h.Tokenizer.CountWords(result.Prompt)
		outputWords = h.Tokenizer.CountWords(result.Output)
	}

	kind := outcome(err)
	attrs := []any{
		"request_id", requestID,
		"client_ip", clientIP,
		"model", result.Model,
		"system_prompt", result.SystemPrompt,
		"outcome", kind,
		"status", result.StatusCode,
		"duration", result.Duration,
		"prompt_tokens", prompt,
		"completion_tokens", completion,
		"input_words", inputWords,
		"output_words", outputWords,
		"frames", result.Frames,
		"parse_errors", result.ParseErrors,
	}
	if err != nil {
		h.Logger.Warn("chat completion failed", append(attrs, "error", err)...)
	} else {
		h.Logger.Info("chat completion finished", attrs...)
	}

	h.Metrics.ObserveRequest(kind, result.Duration, result.BootstrapDuration, result.Frames, result.ParseErrors)

	if h.Storage == nil {
		return
	}

	model := result.Model
	if model == "" {
		model = result.SystemPrompt
	}

	log := &storage.RequestLog{
		RequestID:        requestID,
		ClientIP:         clientIP,
		Model:            model,
		SystemPrompt:     result.SystemPrompt,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Frames:           result.Frames,
		ParseErrors:      result.ParseErrors,
		IsStreaming:      result.IsStreaming,
		StatusCode:       result.StatusCode,
		ErrorMessage:     result.ErrorMessage,
		DurationMs:       result.Duration.Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}
	if err := h.Storage.LogRequest(log); err != nil {
		h.Logger.Warn("failed to store request log", "request_id", requestID, "error", err)
	}

	errorCount := 0
	if err != nil {
		errorCount = 1
	}
	usage := &storage.DailyUsage{
		Date:             time.Now().UTC().Format("2006-01-02"),
		Model:            model,
		RequestCount:     1,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		ErrorCount:       errorCount,
	}
	if err := h.Storage.UpdateDailyUsage(usage); err != nil {
		h.Logger.Warn("failed to update daily usage", "request_id", requestID, "error", err)
	}
}
