package grok

import (
	"errors"
	"net/http"

	"github.com/mandalnilabja/grokway/internal/types"
)

// ErrNotFlushable means the response writer cannot stream.
var ErrNotFlushable = errors.New("grok: response writer does not support flushing")

// Transcoder frames content deltas as chat-completion SSE events.
// Every event is flushed as soon as it is written.
type Transcoder struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	committed bool
	done      bool
}

// NewTranscoder wraps w. It fails before anything is written when w
// cannot flush.
func NewTranscoder(w http.ResponseWriter) (*Transcoder, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrNotFlushable
	}
	return &Transcoder{w: w, flusher: flusher}, nil
}

// Commit sends the SSE headers. After Commit the response can no longer
// carry a JSON error body.
func (t *Transcoder) Commit() {
	if t.committed {
		return
	}
	t.committed = true

	h := t.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	t.w.WriteHeader(http.StatusOK)
	t.flusher.Flush()
}

// Committed reports whether headers have been sent.
func (t *Transcoder) Committed() bool {
	return t.committed
}

// Delta writes one content delta event.
func (t *Transcoder) Delta(text string) error {
	return t.event(types.NewContentChunk(text))
}

// Error writes the error envelope as an in-band data event.
func (t *Transcoder) Error(apiErr *types.APIError) error {
	return t.event(apiErr)
}

// Done writes the [DONE] sentinel. Only the first call writes.
func (t *Transcoder) Done() error {
	if t.done {
		return nil
	}
	t.Commit()
	t.done = true
	return t.write([]byte(types.SSEDone))
}

func (t *Transcoder) event(v any) error {
	if t.done {
		return nil
	}
	frame, err := types.MarshalSSE(v)
	if err != nil {
		return err
	}
	t.Commit()
	return t.write(frame)
}

func (t *Transcoder) write(b []byte) error {
	if _, err := t.w.Write(b); err != nil {
		return err
	}
	t.flusher.Flush()
	return nil
}
