// Package storage defines how relay persists conversations, usage records
// and per-model parameters.
package storage

import (
	"context"
	"time"

	"github.com/papercomputeco/relay/pkg/llm"
)

// Conversation is a titled, ordered chat history.
type Conversation struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ConversationStore persists conversations.
type ConversationStore interface {
	// SaveConversation inserts or replaces a conversation. A missing id is
	// generated, a missing title is derived from the messages, and
	// timestamps are maintained by the store.
	SaveConversation(ctx context.Context, conv *Conversation) error

	// GetConversation returns the conversation with id, or a NotFoundError.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// ListConversations returns every conversation, most recently updated first.
	ListConversations(ctx context.Context) ([]*Conversation, error)

	// DeleteConversation removes a conversation. Deleting an unknown id
	// returns a NotFoundError.
	DeleteConversation(ctx context.Context, id string) error

	// SearchConversations returns conversations whose title or any message
	// contains query, case-insensitively.
	SearchConversations(ctx context.Context, query string) ([]*Conversation, error)
}

// UsageStore persists token usage.
type UsageStore interface {
	// RecordUsage appends a usage record.
	RecordUsage(ctx context.Context, rec *UsageRecord) error

	// ListUsage returns every record, oldest first.
	ListUsage(ctx context.Context) ([]*UsageRecord, error)

	// UsageBetween returns records with from <= timestamp <= to, oldest first.
	UsageBetween(ctx context.Context, from, to time.Time) ([]*UsageRecord, error)

	// ClearUsage removes every record.
	ClearUsage(ctx context.Context) error
}

// ParameterStore persists generation parameters per model.
type ParameterStore interface {
	// GetParameters returns the stored parameters for modelID, or the
	// defaults when none are stored.
	GetParameters(ctx context.Context, modelID string) (llm.Params, error)

	// SaveParameters stores parameters for modelID.
	SaveParameters(ctx context.Context, modelID string, params llm.Params) error

	// ResetParameters removes stored parameters so defaults apply again.
	ResetParameters(ctx context.Context, modelID string) error
}

// Driver is a complete storage backend.
type Driver interface {
	ConversationStore
	UsageStore
	ParameterStore

	// Close releases the backend's resources.
	Close() error
}
