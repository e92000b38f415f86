// Package relay forwards a vendor stream to a downstream sink as plain text
// deltas, one chunk at a time.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/family"
	"github.com/papercomputeco/relay/pkg/llm/normalize"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/transport"
)

// State is the relay lifecycle. A relay only ever moves from Open to Closed.
type State int

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "closed"
	}
	return "open"
}

// Result summarizes a finished relay.
type Result struct {
	// Text is every delta forwarded, concatenated.
	Text string

	// Usage is the last token usage the vendor reported, if any.
	Usage *llm.Usage

	// Chunks counts payloads read from the vendor stream.
	Chunks int

	// Skipped counts payloads dropped because they failed to decode.
	Skipped int
}

// ErrSinkWrite wraps a failure writing to the downstream sink, usually a
// client disconnect.
var ErrSinkWrite = errors.New("writing to sink")

// Relay pumps vendor streams into sinks.
type Relay struct {
	logger *slog.Logger
	state  State
}

// New creates a Relay that logs skipped chunks to log.
func New(log *slog.Logger) *Relay {
	if log == nil {
		log = logger.Nop()
	}
	return &Relay{logger: log}
}

// Run relays stream to sink with a discarding logger.
func Run(ctx context.Context, f family.Family, stream transport.Stream, sink Sink) (Result, error) {
	return New(nil).Run(ctx, f, stream, sink)
}

// State reports whether the relay has closed.
func (r *Relay) State() State {
	return r.state
}

// Run reads one chunk at a time, normalizes it, and forwards any text before
// reading the next chunk. A final event emits its text and closes the sink.
// Context cancellation stops forwarding with no further emission, and a
// vendor error fails the sink without retracting emitted text. The stream is
// always closed on return.
func (r *Relay) Run(ctx context.Context, f family.Family, stream transport.Stream, sink Sink) (Result, error) {
	defer stream.Close()

	var (
		res   Result
		text  strings.Builder
		usage llm.Usage
		seen  bool
	)

	finish := func() Result {
		r.state = Closed
		res.Text = text.String()
		if seen {
			u := usage
			res.Usage = &u
		}
		return res
	}

	if r.state == Closed {
		return res, errors.New("relay already closed")
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}

		payload, err := stream.Next()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return finish(), ctxErr
		}

		if errors.Is(err, io.EOF) {
			return finish(), sink.Close()
		}
		if err != nil {
			r.logger.Warn("vendor stream failed", "family", f, "error", err)
			if failErr := sink.Fail(err); failErr != nil {
				r.logger.Debug("could not signal stream failure", "error", failErr)
			}
			return finish(), err
		}
		res.Chunks++

		ev, err := normalize.Normalize(f, payload)
		if err != nil {
			res.Skipped++
			r.logger.Debug("skipping undecodable chunk", "family", f, "error", err, "bytes", len(payload))
			continue
		}

		if ev.Usage != nil {
			usage.Merge(ev.Usage)
			seen = true
		}

		if ev.HasText() {
			if err := sink.Emit(ev.TextDelta); err != nil {
				return finish(), fmt.Errorf("%w: %w", ErrSinkWrite, err)
			}
			text.WriteString(ev.TextDelta)
		}

		if ev.IsFinal {
			return finish(), sink.Close()
		}
	}
}
