// Package workflow chains model calls where each step's output becomes the
// next step's input.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/logger"
)

// Status is the lifecycle of a single step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrEmptyInput is returned when Run is called with blank input.
var ErrEmptyInput = errors.New("workflow input is empty")

// ErrNoSteps is returned for templates without steps.
var ErrNoSteps = errors.New("workflow has no steps")

// Completer issues a single non-streaming chat call.
type Completer interface {
	Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Usage    *llm.Usage    `json:"usage,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Result is the outcome of a workflow run.
type Result struct {
	Template string       `json:"template"`
	Model    string       `json:"model"`
	Steps    []StepResult `json:"steps"`

	// Output is the last completed step's output.
	Output string `json:"output"`
}

// Failed reports whether any step failed.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Runner executes templates against a Completer.
type Runner struct {
	completer Completer
	logger    *slog.Logger
	params    llm.Params
}

// NewRunner creates a Runner. Steps use temperature 0.7 and 4096 max tokens.
func NewRunner(completer Completer, log *slog.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		completer: completer,
		logger:    log,
		params:    llm.DefaultParams(),
	}
}

// StepPrompt builds the prompt sent for a step.
func StepPrompt(systemPrompt, input string) string {
	return systemPrompt + "\n\nInput:\n" + input
}

// Run executes tmpl sequentially with model. A failing step is marked
// failed and the remaining steps stay pending. The returned error is the
// failing step's error, wrapped.
func (r *Runner) Run(ctx context.Context, tmpl Template, model, provider, input string) (*Result, error) {
	if input == "" {
		return nil, ErrEmptyInput
	}
	if len(tmpl.Steps) == 0 {
		return nil, ErrNoSteps
	}

	res := &Result{
		Template: tmpl.Name,
		Model:    model,
		Steps:    make([]StepResult, len(tmpl.Steps)),
	}
	for i, s := range tmpl.Steps {
		res.Steps[i] = StepResult{Name: s.Name, Status: StatusPending}
	}

	current := input
	for i, step := range tmpl.Steps {
		res.Steps[i].Status = StatusRunning
		start := time.Now()

		resp, err := r.completer.Complete(ctx, &llm.ChatRequest{
			Model:     model,
			Transport: provider,
			Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, StepPrompt(step.SystemPrompt, current))},
			Params:    r.params,
		})
		res.Steps[i].Duration = time.Since(start)

		if err != nil {
			res.Steps[i].Status = StatusFailed
			res.Steps[i].Error = err.Error()
			r.logger.Warn("workflow step failed", "template", tmpl.Name, "step", step.Name, "error", err)
			return res, fmt.Errorf("step %q: %w", step.Name, err)
		}

		res.Steps[i].Status = StatusCompleted
		res.Steps[i].Output = resp.Text
		res.Steps[i].Usage = resp.Usage
		r.logger.Debug("workflow step completed", "template", tmpl.Name, "step", step.Name, "duration", res.Steps[i].Duration)

		current = resp.Text
		res.Output = resp.Text
	}

	return res, nil
}
