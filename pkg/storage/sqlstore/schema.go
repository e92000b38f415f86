package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	tableConversations = "conversations"
	tableMessages      = "conversation_messages"
	tableUsage         = "usage_records"
	tableParameters    = "model_parameters"
)

// Timestamps are stored as unix milliseconds and costs as decimal strings so
// both dialects share one schema.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_messages (
		conversation_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (conversation_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS conversations_updated_at ON conversations (updated_at)`,
	`CREATE TABLE IF NOT EXISTS usage_records (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL DEFAULT '',
		model_id TEXT NOT NULL,
		input_tokens BIGINT NOT NULL,
		output_tokens BIGINT NOT NULL,
		total_cost TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS usage_records_created_at ON usage_records (created_at)`,
	`CREATE TABLE IF NOT EXISTS model_parameters (
		model_id TEXT PRIMARY KEY,
		params TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

// Migrate creates any missing tables and indexes. It is append-only and safe
// to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
