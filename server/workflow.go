package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/relay/pkg/compare"
	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/format"
	"github.com/papercomputeco/relay/pkg/workflow"
)

// workflowRequest runs a named template or an inline list of steps.
type workflowRequest struct {
	Template string          `json:"template"`
	Steps    []workflow.Step `json:"steps"`
	Model    string          `json:"model"`
	Provider string          `json:"provider"`
	Input    string          `json:"input"`
}

type workflowResponse struct {
	*workflow.Result
	Error string `json:"error,omitempty"`
}

type compareRequest struct {
	Targets     []compare.Target `json:"targets"`
	Models      []string         `json:"models"`
	Messages    []llm.Message    `json:"messages"`
	Prompt      string           `json:"prompt"`
	Temperature *float64         `json:"temperature"`
	MaxTokens   *int             `json:"max_tokens"`
}

type compareResponse struct {
	Results []compare.Result `json:"results"`
}

func (s *Server) handleListTemplates(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"templates": s.workflows.All()})
}

// handleRunWorkflow runs a chain. A failing step still returns 200 with the
// partial result; the failure is in the step statuses and the error field.
func (s *Server) handleRunWorkflow(c *fiber.Ctx) error {
	var body workflowRequest
	if err := c.BodyParser(&body); err != nil {
		return s.sendError(c, badRequest("invalid request body: %v", err))
	}

	tmpl := workflow.Template{Name: "custom", Steps: body.Steps}
	if len(body.Steps) == 0 {
		var ok bool
		tmpl, ok = s.workflows.Get(body.Template)
		if !ok {
			return s.sendError(c, badRequest("unknown workflow template %q", body.Template))
		}
	} else if err := tmpl.Validate(); err != nil {
		return s.sendError(c, badRequest("%v", err))
	}

	model := body.Model
	if model == "" {
		model = s.config.DefaultModel
	}
	if model == "" {
		return s.sendError(c, badRequest("model is required"))
	}

	res, err := s.runner.Run(c.UserContext(), tmpl, model, body.Provider, body.Input)
	if res == nil {
		return s.sendError(c, err)
	}

	out := workflowResponse{Result: res}
	if err != nil {
		out.Error = err.Error()
	}
	return c.JSON(out)
}

func (s *Server) handleCompare(c *fiber.Ctx) error {
	var body compareRequest
	if err := c.BodyParser(&body); err != nil {
		return s.sendError(c, badRequest("invalid request body: %v", err))
	}

	targets := body.Targets
	for _, m := range body.Models {
		targets = append(targets, compare.Target{Model: m})
	}

	messages := body.Messages
	if len(messages) == 0 && body.Prompt != "" {
		messages = []llm.Message{llm.NewTextMessage(llm.RoleUser, body.Prompt)}
	}
	if len(messages) == 0 {
		return s.sendError(c, format.ErrNoMessages)
	}

	params := llm.Overrides{Temperature: body.Temperature, MaxTokens: body.MaxTokens}.Apply(llm.DefaultParams())

	results, err := s.comparer.Run(c.UserContext(), targets, messages, params)
	if errors.Is(err, compare.ErrNoModels) {
		return s.sendError(c, badRequest("%v", err))
	}
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(compareResponse{Results: results})
}
