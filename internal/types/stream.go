package types

import "encoding/json"

// ChatCompletionChunk is the streaming delta frame sent to clients.
// The shape is deliberately minimal: {"choices":[{"delta":{"content":...}}]}.
type ChatCompletionChunk struct {
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice represents a choice in a streaming chunk.
type ChunkChoice struct {
	Delta Delta `json:"delta"`
}

// Delta represents the incremental content in a streaming chunk.
type Delta struct {
	Content string `json:"content"`
}

// NewContentChunk wraps a text increment in a single-choice chunk.
func NewContentChunk(content string) *ChatCompletionChunk {
	return &ChatCompletionChunk{
		Choices: []ChunkChoice{{Delta: Delta{Content: content}}},
	}
}

// SSE formatting helpers

// SSEPrefix is the Server-Sent Events data prefix.
const SSEPrefix = "data: "

// SSEDone is the final SSE message indicating stream end.
const SSEDone = "data: [DONE]\n\n"

// FormatSSE formats a chunk for Server-Sent Events transmission.
func FormatSSE(data []byte) []byte {
	result := make([]byte, 0, len(SSEPrefix)+len(data)+2)
	result = append(result, SSEPrefix...)
	result = append(result, data...)
	result = append(result, '\n', '\n')
	return result
}

// MarshalSSE encodes v as JSON and frames it as one SSE data event.
func MarshalSSE(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return FormatSSE(data), nil
}
