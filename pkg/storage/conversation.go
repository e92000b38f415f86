package storage

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/relay/pkg/llm"
)

// DefaultTitle names conversations without a user message.
const DefaultTitle = "New Conversation"

const titleLength = 50

// GenerateTitle derives a title from the first user message: its first 50
// characters, with "..." appended when truncated.
func GenerateTitle(messages []llm.Message) string {
	for _, m := range messages {
		if m.Role != llm.RoleUser {
			continue
		}

		runes := []rune(m.Content)
		if len(runes) > titleLength {
			return string(runes[:titleLength]) + "..."
		}
		return m.Content
	}
	return DefaultTitle
}

// Prepare fills the fields a store maintains before a save: id, title and
// timestamps.
func Prepare(conv *Conversation, now time.Time) {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if strings.TrimSpace(conv.Title) == "" {
		conv.Title = GenerateTitle(conv.Messages)
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	if conv.Messages == nil {
		conv.Messages = []llm.Message{}
	}
}

// Matches reports whether conv's title or any message contains query,
// case-insensitively.
func Matches(conv *Conversation, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(conv.Title), q) {
		return true
	}
	return slices.ContainsFunc(conv.Messages, func(m llm.Message) bool {
		return strings.Contains(strings.ToLower(m.Content), q)
	})
}

// Clone returns a deep copy of conv.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	return &cp
}
