// Package nop is the publisher used when no event backend is configured.
// Events are validated, counted, and logged at debug level.
package nop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/relay/pkg/eventstream"
	"github.com/papercomputeco/relay/pkg/logger"
)

type Publisher struct {
	log       *slog.Logger
	published atomic.Uint64
	closed    atomic.Bool
}

// NewPublisher returns a publisher that drops events. A nil log discards.
func NewPublisher(log *slog.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{log: log}
}

func (p *Publisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if p.closed.Load() {
		return eventstream.ErrPublisherClosed
	}
	if err := eventstream.Validate(event); err != nil {
		return err
	}

	p.published.Add(1)
	p.log.Debug("turn event dropped, no publisher configured",
		"event_id", event.EventID,
		"model", event.Source.Model,
	)
	return nil
}

// Published is the number of events accepted so far.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

func (p *Publisher) Close() error {
	p.closed.Store(true)
	return nil
}
