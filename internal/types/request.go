package types

// ChatCompletionRequest represents an OpenAI chat completion request.
// Only model and messages influence the upstream call; the remaining
// sampling fields are accepted so standard clients do not get rejected.
type ChatCompletionRequest struct {
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`

	Stream      bool     `json:"stream,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	User        string   `json:"user,omitempty"`
}
