package grok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mandalnilabja/grokway/internal/config"
	"github.com/mandalnilabja/grokway/internal/types"
)

const errorEnvelope = `{"error":{"message":"An error occurred while processing your request.","type":"invalid_request_error","param":null,"code":null}}`

func conversationOK(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"data":{"create_grok_conversation":{"conversation_id":"conv-1"}}}`)
}

func streamLines(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprint(w, line+"\n")
			flusher.Flush()
		}
	}
}

func newTestProvider(t *testing.T, conversation, response http.HandlerFunc) *Provider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/conversation", conversation)
	mux.HandleFunc("/response", response)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(config.Upstream{
		AuthToken:       "tok",
		Cookie:          "ck=1",
		CSRFToken:       "csrf",
		ModelOptionID:   config.DefaultModelOptionID,
		ConversationURL: srv.URL + "/conversation",
		ResponseURL:     srv.URL + "/response",
		UserAgent:       "test-agent",
	}, srv.Client())
	return New(client, nil)
}

func proxyOpts(messages ...types.Message) *types.ProxyOptions {
	return &types.ProxyOptions{
		RequestID:    "req-1",
		Model:        "normal",
		SystemPrompt: "normal",
		Messages:     messages,
	}
}

func delta(text string) string {
	return `data: {"choices":[{"delta":{"content":"` + text + `"}}]}` + "\n\n"
}

func TestProxyRequest_Streams(t *testing.T) {
	captured := make(chan addResponseRequest, 1)
	headers := make(chan http.Header, 1)

	p := newTestProvider(t, conversationOK, func(w http.ResponseWriter, r *http.Request) {
		var body addResponseRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		captured <- body
		headers <- r.Header.Clone()
		streamLines(`{"result":{"message":"Hel"}}`, `{"result":{"message":"lo"}}`)(w, r)
	})

	rec := httptest.NewRecorder()
	result, err := p.ProxyRequest(context.Background(), rec, proxyOpts(
		types.NewTextMessage(types.RoleSystem, "be brief"),
		types.NewTextMessage(types.RoleUser, "hi"),
	))
	if err != nil {
		t.Fatalf("ProxyRequest() error: %v", err)
	}

	want := delta("Hel") + delta("lo") + types.SSEDone
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := <-captured
	if len(body.Responses) != 1 || body.Responses[0].Message != "be brief\nHuman: hi\n" || body.Responses[0].Sender != 1 {
		t.Errorf("unexpected responses %+v", body.Responses)
	}
	if body.ConversationID != "conv-1" {
		t.Errorf("conversationId = %q", body.ConversationID)
	}
	if body.SystemPromptName != "normal" || body.GrokModelOptionID != "grok-2" {
		t.Errorf("unexpected body %+v", body)
	}

	h := <-headers
	if h.Get("Authorization") != "Bearer tok" || h.Get("x-csrf-token") != "csrf" || h.Get("Cookie") != "ck=1" {
		t.Errorf("missing session headers: %v", h)
	}
	if h.Get("Content-Type") != "text/plain;charset=UTF-8" {
		t.Errorf("Content-Type = %q", h.Get("Content-Type"))
	}

	if !result.Committed || result.StatusCode != http.StatusOK {
		t.Errorf("unexpected result status %+v", result)
	}
	if result.Frames != 2 || result.Output != "Hello" {
		t.Errorf("frames=%d output=%q", result.Frames, result.Output)
	}
}

func TestProxyRequest_ZeroDeltas(t *testing.T) {
	p := newTestProvider(t, conversationOK, streamLines(`{"result":{"sender":"ASSISTANT"}}`))

	rec := httptest.NewRecorder()
	if _, err := p.ProxyRequest(context.Background(), rec, proxyOpts()); err != nil {
		t.Fatalf("ProxyRequest() error: %v", err)
	}
	if got := rec.Body.String(); got != types.SSEDone {
		t.Errorf("body = %q, want only [DONE]", got)
	}
}

func TestProxyRequest_SanitizesAndSkipsBadLines(t *testing.T) {
	p := newTestProvider(t, conversationOK, streamLines(
		`{"result":{"message":"see this[link](#tweet=42)more"}}`,
		`garbage`,
		`{"result":{"message":"[link](#tweet=1)"}}`,
	))

	rec := httptest.NewRecorder()
	result, err := p.ProxyRequest(context.Background(), rec, proxyOpts())
	if err != nil {
		t.Fatalf("ProxyRequest() error: %v", err)
	}

	want := delta("see this more") + delta("") + types.SSEDone
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if result.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", result.ParseErrors)
	}
}

func TestProxyRequest_PreCommitFailures(t *testing.T) {
	tests := []struct {
		name         string
		conversation http.HandlerFunc
		response     http.HandlerFunc
		wantErr      error
	}{
		{
			name: "bootstrap status",
			conversation: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusUnauthorized)
			},
			response: func(w http.ResponseWriter, r *http.Request) {
				t.Error("stream must not be opened after bootstrap failure")
			},
			wantErr: ErrBootstrap,
		},
		{
			name: "bootstrap without id",
			conversation: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"data":{}}`)
			},
			response: func(w http.ResponseWriter, r *http.Request) {
				t.Error("stream must not be opened after bootstrap failure")
			},
			wantErr: ErrBootstrap,
		},
		{
			name:         "stream status",
			conversation: conversationOK,
			response: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "forbidden", http.StatusForbidden)
			},
			wantErr: ErrStream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.conversation, tt.response)

			rec := httptest.NewRecorder()
			result, err := p.ProxyRequest(context.Background(), rec, proxyOpts(types.NewTextMessage(types.RoleUser, "hi")))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != errorEnvelope {
				t.Errorf("body = %q", got)
			}
			if strings.Contains(rec.Body.String(), "data:") {
				t.Error("pre-commit failure must not use SSE framing")
			}
			if result.Committed {
				t.Error("result must not be committed")
			}
		})
	}
}

func TestProxyRequest_NotFlushable(t *testing.T) {
	p := newTestProvider(t, conversationOK, streamLines())

	rec := httptest.NewRecorder()
	_, err := p.ProxyRequest(context.Background(), plainWriter{rec}, proxyOpts())
	if !errors.Is(err, ErrNotFlushable) {
		t.Fatalf("expected ErrNotFlushable, got %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestProxyRequest_MidStreamFailure(t *testing.T) {
	p := newTestProvider(t, conversationOK, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"message":"Hel"}}`+"\n")
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	})

	rec := httptest.NewRecorder()
	result, err := p.ProxyRequest(context.Background(), rec, proxyOpts())
	if !errors.Is(err, ErrStream) {
		t.Fatalf("expected ErrStream, got %v", err)
	}

	want := delta("Hel") + "data: " + errorEnvelope + "\n\n" + types.SSEDone
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want committed 200", rec.Code)
	}
	if !result.Committed {
		t.Error("expected committed result")
	}
}

func TestProxyRequest_DeadlineMidStream(t *testing.T) {
	p := newTestProvider(t, conversationOK, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"message":"Hel"}}`+"\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	_, err := p.ProxyRequest(ctx, rec, proxyOpts())
	if err == nil {
		t.Fatal("expected error after deadline")
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, delta("Hel")) {
		t.Errorf("body = %q, want leading delta", body)
	}
	if !strings.Contains(body, `"error"`) || !strings.HasSuffix(body, types.SSEDone) {
		t.Errorf("body = %q, want in-band error then [DONE]", body)
	}
}

// cancelOnWrite cancels the request context after the first body write,
// simulating a client that disconnects mid-stream.
type cancelOnWrite struct {
	*httptest.ResponseRecorder
	cancel context.CancelFunc
}

func (w *cancelOnWrite) Write(b []byte) (int, error) {
	n, err := w.ResponseRecorder.Write(b)
	w.cancel()
	return n, err
}

func TestProxyRequest_ClientGone(t *testing.T) {
	p := newTestProvider(t, conversationOK, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"message":"Hel"}}`+"\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &cancelOnWrite{ResponseRecorder: httptest.NewRecorder(), cancel: cancel}
	_, err := p.ProxyRequest(ctx, w, proxyOpts())
	if !errors.Is(err, ErrClientGone) {
		t.Fatalf("expected ErrClientGone, got %v", err)
	}

	if got := w.Body.String(); got != delta("Hel") {
		t.Errorf("body = %q, want only the first delta", got)
	}
}
