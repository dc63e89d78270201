package grok

import (
	"bytes"
	"encoding/json"
	"log/slog"
)

// Frame is one decoded upstream record that carried text.
type Frame struct {
	Message string
}

// responseLine is the subset of an add_response.json record we read.
type responseLine struct {
	Result *struct {
		Message string `json:"message"`
	} `json:"result"`
}

// Decoder turns Grok's newline-delimited JSON into frames. Chunks may split
// lines anywhere; the unterminated tail is carried over to the next Feed.
// A Decoder belongs to a single stream and is not safe for concurrent use.
type Decoder struct {
	buf         []byte
	logger      *slog.Logger
	parseErrors int
}

// NewDecoder creates a decoder. A nil logger discards parse warnings.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decoder{logger: logger}
}

// Feed appends chunk and returns the frames of every line it completed,
// in arrival order.
func (d *Decoder) Feed(chunk []byte) []Frame {
	d.buf = append(d.buf, chunk...)

	var frames []Frame
	consumed := 0
	for {
		i := bytes.IndexByte(d.buf[consumed:], '\n')
		if i < 0 {
			break
		}
		line := d.buf[consumed : consumed+i]
		consumed += i + 1
		if f, ok := d.decodeLine(line); ok {
			frames = append(frames, f)
		}
	}

	if consumed > 0 {
		d.buf = append(d.buf[:0], d.buf[consumed:]...)
	}
	return frames
}

// Flush decodes a final line that arrived without a trailing newline.
func (d *Decoder) Flush() []Frame {
	line := d.buf
	d.buf = nil
	if f, ok := d.decodeLine(line); ok {
		return []Frame{f}
	}
	return nil
}

// Buffered reports how many bytes of an incomplete line are held.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// ParseErrors reports how many non-empty lines failed to decode.
func (d *Decoder) ParseErrors() int {
	return d.parseErrors
}

func (d *Decoder) decodeLine(line []byte) (Frame, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Frame{}, false
	}

	var rec responseLine
	if err := json.Unmarshal(line, &rec); err != nil {
		d.parseErrors++
		d.logger.Warn("dropping malformed upstream line",
			"error", err,
			"bytes", len(line),
		)
		return Frame{}, false
	}

	if rec.Result == nil || rec.Result.Message == "" {
		return Frame{}, false
	}
	return Frame{Message: rec.Result.Message}, true
}
