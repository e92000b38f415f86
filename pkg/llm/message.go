package llm

import "strings"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single message in a conversation. Content is plain
// text: every supported provider family accepts a text-only conversation.
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // Message text
}

// NewTextMessage creates a message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

// IsValidRole reports whether role is one of the supported message roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// SplitSystem pulls system messages out of a conversation. Multiple system
// messages are joined with a blank line, in order. The remaining messages are
// returned in conversation order.
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if m.Content != "" {
				system = append(system, m.Content)
			}
			continue
		}
		rest = append(rest, m)
	}

	return strings.Join(system, "\n\n"), rest
}

// HasTurns reports whether messages holds anything besides system messages.
func HasTurns(messages []Message) bool {
	for _, m := range messages {
		if m.Role != RoleSystem {
			return true
		}
	}
	return false
}

// WithSystem returns messages with a system message holding prompt placed
// first. An empty prompt returns messages unchanged.
func WithSystem(prompt string, messages []Message) []Message {
	if prompt == "" {
		return messages
	}

	out := make([]Message, 0, len(messages)+1)
	out = append(out, NewTextMessage(RoleSystem, prompt))
	return append(out, messages...)
}

// ConversationText concatenates every message's content, used for rough
// token counting of a prompt.
func ConversationText(messages []Message) string {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}
