// Package worker records finished chat turns off the HTTP hot path: usage and
// cost go to storage, the turn is appended to its conversation, and a turn
// event is published.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/relay/pkg/catalog"
	"github.com/papercomputeco/relay/pkg/eventstream"
	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Turn        llm.ConversationTurn
	Path        string
	Streaming   bool
	StartedAt   time.Time
	CompletedAt time.Time
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for usage and conversations.
	Driver storage.Driver

	// Catalog prices the turn's token usage.
	Catalog *catalog.Catalog

	// Publisher receives a turn event per job. Optional.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes recording jobs asynchronously.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool requires a storage driver")
	}
	if c.Catalog == nil {
		c.Catalog = catalog.Default()
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
		now:    time.Now,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"transport", job.Turn.Provider,
			"model", jobModel(job),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"transport", job.Turn.Provider,
			"model", jobModel(job),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob runs each recording step. A failing step is logged and does not
// stop the ones after it.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	if job.Turn.Request == nil || job.Turn.Response == nil {
		p.logger.Warn("skipping incomplete turn", "transport", job.Turn.Provider)
		return
	}

	usage := TurnUsage(job.Turn)
	cost := p.config.Catalog.EstimateCost(job.Turn.Request.Model, usage.InputTokens, usage.OutputTokens)

	rec := &storage.UsageRecord{
		ConversationID: job.Turn.ConversationID,
		ModelID:        job.Turn.Request.Model,
		InputTokens:    usage.InputTokens,
		OutputTokens:   usage.OutputTokens,
		TotalCost:      cost.TotalCost,
		Timestamp:      job.CompletedAt,
	}
	if err := p.config.Driver.RecordUsage(ctx, rec); err != nil {
		p.logger.Error("recording usage failed",
			"model", rec.ModelID,
			"error", err,
		)
	} else {
		p.logger.Info("usage recorded",
			"model", rec.ModelID,
			"input_tokens", rec.InputTokens,
			"output_tokens", rec.OutputTokens,
			"cost", rec.TotalCost.String(),
		)
	}

	if job.Turn.ConversationID != "" {
		if err := p.appendTurn(ctx, job.Turn); err != nil {
			p.logger.Error("appending turn failed",
				"conversation_id", job.Turn.ConversationID,
				"error", err,
			)
		}
	}

	if p.config.Publisher != nil {
		ev := eventstream.NewTurnCompletedEvent(job.Turn, eventstream.TurnRequestMeta{
			Path:        job.Path,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
			Streaming:   job.Streaming,
		}, p.now())
		ev.Cost = &eventstream.TurnCost{
			Input:  cost.InputCost.String(),
			Output: cost.OutputCost.String(),
			Total:  cost.TotalCost.String(),
		}

		if err := p.config.Publisher.PublishTurn(ctx, ev); err != nil {
			p.logger.Warn("publishing turn event failed",
				"event_id", ev.EventID,
				"error", err,
			)
		}
	}
}

// appendTurn adds the latest user message and the assistant reply to the
// conversation, creating it under the given id when it does not exist yet.
func (p *Pool) appendTurn(ctx context.Context, turn llm.ConversationTurn) error {
	conv, err := p.config.Driver.GetConversation(ctx, turn.ConversationID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		conv = &storage.Conversation{ID: turn.ConversationID}
	case err != nil:
		return err
	}

	conv.Model = turn.Request.Model
	if prompt, ok := lastUserMessage(turn.Request.Messages); ok {
		conv.Messages = append(conv.Messages, prompt)
	}
	conv.Messages = append(conv.Messages, llm.NewTextMessage(llm.RoleAssistant, turn.Response.Text))

	if err := p.config.Driver.SaveConversation(ctx, conv); err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}

	p.logger.Debug("turn appended",
		"conversation_id", conv.ID,
		"messages", len(conv.Messages),
	)
	return nil
}

// TurnUsage returns the vendor-reported usage, or an estimate from the
// message text when the vendor reported none.
func TurnUsage(turn llm.ConversationTurn) llm.Usage {
	if turn.Response != nil && turn.Response.Usage != nil {
		return *turn.Response.Usage
	}

	var u llm.Usage
	if turn.Request != nil {
		u.InputTokens = catalog.CountTokens(llm.ConversationText(turn.Request.Messages))
	}
	if turn.Response != nil {
		u.OutputTokens = catalog.CountTokens(turn.Response.Text)
	}
	return u
}

func lastUserMessage(messages []llm.Message) (llm.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i], true
		}
	}
	return llm.Message{}, false
}

func jobModel(job Job) string {
	if job.Turn.Request == nil {
		return ""
	}
	return job.Turn.Request.Model
}
