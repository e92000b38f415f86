// Package compare sends one conversation to several models at once.
package compare

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/relay/pkg/catalog"
	"github.com/papercomputeco/relay/pkg/llm"
)

// DefaultConcurrency bounds in-flight vendor calls per comparison.
const DefaultConcurrency = 4

// ErrNoModels is returned when a comparison names no models.
var ErrNoModels = errors.New("no models to compare")

// Completer issues a single non-streaming chat call.
type Completer interface {
	Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// Estimator prices token usage for a model.
type Estimator interface {
	EstimateCost(modelID string, inputTokens, outputTokens int) catalog.CostEstimate
}

// Target is one model to run, optionally pinned to a transport.
type Target struct {
	Model     string `json:"model"`
	Transport string `json:"provider,omitempty"`
}

// Result is one model's answer.
type Result struct {
	Model     string                `json:"model"`
	Text      string                `json:"text"`
	Usage     *llm.Usage            `json:"usage,omitempty"`
	Cost      *catalog.CostEstimate `json:"cost,omitempty"`
	LatencyMS int64                 `json:"latencyMs"`
	Error     string                `json:"error,omitempty"`
}

// Comparer fans a conversation out to several models.
type Comparer struct {
	completer   Completer
	estimator   Estimator
	concurrency int
}

// New creates a Comparer. A concurrency below one uses DefaultConcurrency.
func New(completer Completer, estimator Estimator, concurrency int) *Comparer {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Comparer{completer: completer, estimator: estimator, concurrency: concurrency}
}

// Run sends messages to every target. Results keep the order of targets. A
// failing model records its error and does not cancel the others.
func (c *Comparer) Run(ctx context.Context, targets []Target, messages []llm.Message, params llm.Params) ([]Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoModels
	}

	results := make([]Result, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, t := range targets {
		g.Go(func() error {
			start := time.Now()
			resp, err := c.completer.Complete(gctx, &llm.ChatRequest{
				Model:     t.Model,
				Transport: t.Transport,
				Messages:  messages,
				Params:    params,
			})

			r := Result{Model: t.Model, LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				r.Error = err.Error()
				results[i] = r
				return nil
			}

			r.Text = resp.Text
			r.Usage = resp.Usage
			if resp.Usage != nil && c.estimator != nil {
				est := c.estimator.EstimateCost(t.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
				r.Cost = &est
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
