package grok

import (
	"strings"

	"github.com/mandalnilabja/grokway/internal/types"
)

// Conversation is a chat history flattened into Grok's plain-text format.
type Conversation struct {
	// SystemPreamble holds every system message, each terminated by "\n".
	SystemPreamble string
	// Dialogue holds user and assistant turns as "Human: "/"Assistant: " lines.
	Dialogue string
}

// FullContext is the single message sent upstream.
func (c Conversation) FullContext() string {
	return c.SystemPreamble + c.Dialogue
}

// Normalize flattens messages in order. Roles other than system, user and
// assistant are dropped without error.
func Normalize(messages []types.Message) Conversation {
	var system, dialogue strings.Builder
	for _, msg := range messages {
		content := msg.Content.String()
		switch msg.Role {
		case types.RoleUser:
			dialogue.WriteString("Human: ")
			dialogue.WriteString(content)
			dialogue.WriteByte('\n')
		case types.RoleAssistant:
			dialogue.WriteString("Assistant: ")
			dialogue.WriteString(content)
			dialogue.WriteByte('\n')
		case types.RoleSystem:
			system.WriteString(content)
			system.WriteByte('\n')
		}
	}
	return Conversation{
		SystemPreamble: system.String(),
		Dialogue:       dialogue.String(),
	}
}
