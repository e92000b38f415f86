// Package inmemory provides a storage driver that keeps everything in process
// memory. Data is lost when the process exits.
package inmemory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards every map and slice below
	mu sync.RWMutex

	conversations map[string]*storage.Conversation
	usage         []*storage.UsageRecord
	params        map[string]llm.Params

	now func() time.Time
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		conversations: make(map[string]*storage.Conversation),
		params:        make(map[string]llm.Params),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SaveConversation stores a copy of conv.
func (d *Driver) SaveConversation(_ context.Context, conv *storage.Conversation) error {
	if conv == nil {
		return errors.New("cannot store nil conversation")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.conversations[conv.ID]; ok && conv.CreatedAt.IsZero() {
		conv.CreatedAt = existing.CreatedAt
	}
	storage.Prepare(conv, d.now())
	d.conversations[conv.ID] = conv.Clone()
	return nil
}

// GetConversation returns a copy of the conversation with id.
func (d *Driver) GetConversation(_ context.Context, id string) (*storage.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	conv, ok := d.conversations[id]
	if !ok {
		return nil, storage.ConversationNotFound(id)
	}
	return conv.Clone(), nil
}

// ListConversations returns every conversation, most recently updated first.
func (d *Driver) ListConversations(_ context.Context) ([]*storage.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.collect(func(*storage.Conversation) bool { return true }), nil
}

// DeleteConversation removes a conversation.
func (d *Driver) DeleteConversation(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.conversations[id]; !ok {
		return storage.ConversationNotFound(id)
	}
	delete(d.conversations, id)
	return nil
}

// SearchConversations matches query against titles and message content.
func (d *Driver) SearchConversations(_ context.Context, query string) ([]*storage.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.collect(func(c *storage.Conversation) bool { return storage.Matches(c, query) }), nil
}

func (d *Driver) collect(keep func(*storage.Conversation) bool) []*storage.Conversation {
	out := make([]*storage.Conversation, 0, len(d.conversations))
	for _, c := range d.conversations {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}

	slices.SortFunc(out, func(a, b *storage.Conversation) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// RecordUsage appends rec, assigning an id and timestamp when missing.
func (d *Driver) RecordUsage(_ context.Context, rec *storage.UsageRecord) error {
	if rec == nil {
		return errors.New("cannot store nil usage record")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = d.now()
	}

	cp := *rec
	d.usage = append(d.usage, &cp)
	return nil
}

// ListUsage returns every record, oldest first.
func (d *Driver) ListUsage(_ context.Context) ([]*storage.UsageRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.usageWhere(func(*storage.UsageRecord) bool { return true }), nil
}

// UsageBetween returns records inside [from, to].
func (d *Driver) UsageBetween(_ context.Context, from, to time.Time) ([]*storage.UsageRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.usageWhere(func(r *storage.UsageRecord) bool {
		return !r.Timestamp.Before(from) && !r.Timestamp.After(to)
	}), nil
}

func (d *Driver) usageWhere(keep func(*storage.UsageRecord) bool) []*storage.UsageRecord {
	out := make([]*storage.UsageRecord, 0, len(d.usage))
	for _, r := range d.usage {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}

	slices.SortStableFunc(out, func(a, b *storage.UsageRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// ClearUsage removes every usage record.
func (d *Driver) ClearUsage(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.usage = nil
	return nil
}

// GetParameters returns stored parameters or the defaults.
func (d *Driver) GetParameters(_ context.Context, modelID string) (llm.Params, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.params[modelID]
	if !ok {
		return llm.DefaultParams(), nil
	}
	p.StopSequences = slices.Clone(p.StopSequences)
	return p, nil
}

// SaveParameters stores parameters for modelID.
func (d *Driver) SaveParameters(_ context.Context, modelID string, params llm.Params) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	params.StopSequences = slices.Clone(params.StopSequences)
	d.params[modelID] = params
	return nil
}

// ResetParameters forgets stored parameters for modelID.
func (d *Driver) ResetParameters(_ context.Context, modelID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.params, modelID)
	return nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
