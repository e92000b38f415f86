// Package sqlstore implements storage.Driver over database/sql. Queries are
// built with ent's dialect-aware SQL builder so SQLite and PostgreSQL share
// one implementation.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/storage"
)

// Store implements storage.Driver for a SQL database.
type Store struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

var _ storage.Driver = (*Store)(nil)

// New wraps an open database. name is an ent dialect name, dialect.SQLite
// or dialect.Postgres. The schema is migrated before New returns.
func New(ctx context.Context, db *sql.DB, name string) (*Store, error) {
	switch name {
	case dialect.SQLite, dialect.Postgres:
	default:
		return nil, fmt.Errorf("unsupported sql dialect: %q", name)
	}

	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}

	return &Store{
		db:      db,
		dialect: name,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// DB exposes the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveConversation upserts conv and replaces its messages in one transaction.
func (s *Store) SaveConversation(ctx context.Context, conv *storage.Conversation) error {
	if conv == nil {
		return errors.New("cannot store nil conversation")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	b := s.builder()

	if conv.ID != "" && conv.CreatedAt.IsZero() {
		q, args := b.Select("created_at").From(b.Table(tableConversations)).Where(entsql.EQ("id", conv.ID)).Query()
		var createdAt int64
		switch err := tx.QueryRowContext(ctx, q, args...).Scan(&createdAt); {
		case err == nil:
			conv.CreatedAt = time.UnixMilli(createdAt).UTC()
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("load conversation: %w", err)
		}
	}

	storage.Prepare(conv, s.now())

	q, args := b.Insert(tableConversations).
		Columns("id", "title", "model", "created_at", "updated_at").
		Values(conv.ID, conv.Title, conv.Model, conv.CreatedAt.UnixMilli(), conv.UpdatedAt.UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("title")
				u.SetExcluded("model")
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	q, args = b.Delete(tableMessages).Where(entsql.EQ("conversation_id", conv.ID)).Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	if len(conv.Messages) > 0 {
		ins := b.Insert(tableMessages).Columns("conversation_id", "seq", "role", "content")
		for i, m := range conv.Messages {
			ins.Values(conv.ID, i, m.Role, m.Content)
		}
		q, args = ins.Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert messages: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conversation: %w", err)
	}
	return nil
}

// GetConversation loads a conversation with its messages.
func (s *Store) GetConversation(ctx context.Context, id string) (*storage.Conversation, error) {
	convs, err := s.queryConversations(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, storage.ConversationNotFound(id)
	}
	return convs[0], nil
}

// ListConversations returns every conversation, most recently updated first.
func (s *Store) ListConversations(ctx context.Context) ([]*storage.Conversation, error) {
	return s.queryConversations(ctx, nil)
}

// SearchConversations matches query against titles and message content.
func (s *Store) SearchConversations(ctx context.Context, query string) ([]*storage.Conversation, error) {
	b := s.builder()
	inMessages := b.Select("conversation_id").
		From(b.Table(tableMessages)).
		Where(entsql.ContainsFold("content", query))

	return s.queryConversations(ctx, entsql.Or(
		entsql.ContainsFold("title", query),
		entsql.In("id", inMessages),
	))
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	b := s.builder()

	q, args := b.Delete(tableMessages).Where(entsql.EQ("conversation_id", id)).Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	q, args = b.Delete(tableConversations).Where(entsql.EQ("id", id)).Query()
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n == 0 {
		return storage.ConversationNotFound(id)
	}

	return tx.Commit()
}

func (s *Store) queryConversations(ctx context.Context, where *entsql.Predicate) ([]*storage.Conversation, error) {
	b := s.builder()
	sel := b.Select("id", "title", "model", "created_at", "updated_at").
		From(b.Table(tableConversations)).
		OrderBy(entsql.Desc("updated_at"), entsql.Desc("created_at"))
	if where != nil {
		sel.Where(where)
	}

	q, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}

	var (
		convs []*storage.Conversation
		ids   []any
		byID  = make(map[string]*storage.Conversation)
	)
	for rows.Next() {
		var (
			c                    storage.Conversation
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Model, &createdAt, &updatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.CreatedAt = time.UnixMilli(createdAt).UTC()
		c.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		c.Messages = []llm.Message{}

		convs = append(convs, &c)
		ids = append(ids, c.ID)
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return []*storage.Conversation{}, nil
	}

	q, args = b.Select("conversation_id", "role", "content").
		From(b.Table(tableMessages)).
		Where(entsql.In("conversation_id", ids...)).
		OrderBy(entsql.Asc("conversation_id"), entsql.Asc("seq")).
		Query()
	msgRows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var convID string
		var m llm.Message
		if err := msgRows.Scan(&convID, &m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if c, ok := byID[convID]; ok {
			c.Messages = append(c.Messages, m)
		}
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return convs, nil
}

// RecordUsage inserts rec, assigning an id and timestamp when missing.
func (s *Store) RecordUsage(ctx context.Context, rec *storage.UsageRecord) error {
	if rec == nil {
		return errors.New("cannot store nil usage record")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}

	q, args := s.builder().Insert(tableUsage).
		Columns("id", "conversation_id", "model_id", "input_tokens", "output_tokens", "total_cost", "created_at").
		Values(rec.ID, rec.ConversationID, rec.ModelID, rec.InputTokens, rec.OutputTokens, rec.TotalCost.String(), rec.Timestamp.UnixMilli()).
		Query()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

// ListUsage returns every record, oldest first.
func (s *Store) ListUsage(ctx context.Context) ([]*storage.UsageRecord, error) {
	return s.queryUsage(ctx, nil)
}

// UsageBetween returns records inside [from, to].
func (s *Store) UsageBetween(ctx context.Context, from, to time.Time) ([]*storage.UsageRecord, error) {
	return s.queryUsage(ctx, entsql.And(
		entsql.GTE("created_at", from.UnixMilli()),
		entsql.LTE("created_at", to.UnixMilli()),
	))
}

func (s *Store) queryUsage(ctx context.Context, where *entsql.Predicate) ([]*storage.UsageRecord, error) {
	b := s.builder()
	sel := b.Select("id", "conversation_id", "model_id", "input_tokens", "output_tokens", "total_cost", "created_at").
		From(b.Table(tableUsage)).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id"))
	if where != nil {
		sel.Where(where)
	}

	q, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	records := []*storage.UsageRecord{}
	for rows.Next() {
		var (
			r         storage.UsageRecord
			cost      string
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.ConversationID, &r.ModelID, &r.InputTokens, &r.OutputTokens, &cost, &createdAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		r.TotalCost, err = decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("parse cost %q: %w", cost, err)
		}
		r.Timestamp = time.UnixMilli(createdAt).UTC()
		records = append(records, &r)
	}
	return records, rows.Err()
}

// ClearUsage removes every usage record.
func (s *Store) ClearUsage(ctx context.Context) error {
	q, args := s.builder().Delete(tableUsage).Query()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("clear usage: %w", err)
	}
	return nil
}

// GetParameters returns stored parameters or the defaults.
func (s *Store) GetParameters(ctx context.Context, modelID string) (llm.Params, error) {
	b := s.builder()
	q, args := b.Select("params").From(b.Table(tableParameters)).Where(entsql.EQ("model_id", modelID)).Query()

	var raw string
	switch err := s.db.QueryRowContext(ctx, q, args...).Scan(&raw); {
	case errors.Is(err, sql.ErrNoRows):
		return llm.DefaultParams(), nil
	case err != nil:
		return llm.Params{}, fmt.Errorf("query parameters: %w", err)
	}

	var p llm.Params
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return llm.Params{}, fmt.Errorf("decode parameters for %s: %w", modelID, err)
	}
	return p, nil
}

// SaveParameters upserts parameters for modelID.
func (s *Store) SaveParameters(ctx context.Context, modelID string, params llm.Params) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}

	q, args := s.builder().Insert(tableParameters).
		Columns("model_id", "params", "updated_at").
		Values(modelID, string(raw), s.now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("model_id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save parameters: %w", err)
	}
	return nil
}

// ResetParameters deletes stored parameters for modelID.
func (s *Store) ResetParameters(ctx context.Context, modelID string) error {
	q, args := s.builder().Delete(tableParameters).Where(entsql.EQ("model_id", modelID)).Query()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("reset parameters: %w", err)
	}
	return nil
}
