package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/relay/pkg/llm"
)

var (
	chatToolName    = "chat"
	chatDescription = "Send a prompt to a hosted LLM (Bedrock, Anthropic or OpenAI) and return its full text answer with token usage and estimated cost."
)

// ChatInput represents the input arguments for the chat tool.
type ChatInput struct {
	Prompt      string   `json:"prompt" jsonschema:"the user message to send"`
	Model       string   `json:"model,omitempty" jsonschema:"model id, see list_models"`
	Provider    string   `json:"provider,omitempty" jsonschema:"transport to use: bedrock, bedrock-signed, anthropic or openai"`
	System      string   `json:"system,omitempty" jsonschema:"optional system prompt"`
	Temperature *float64 `json:"temperature,omitempty" jsonschema:"sampling temperature"`
	MaxTokens   *int     `json:"max_tokens,omitempty" jsonschema:"maximum tokens to generate"`
}

// ChatOutput represents the output of the chat tool.
type ChatOutput struct {
	Model string      `json:"model"`
	Text  string      `json:"text"`
	Usage *llm.Usage  `json:"usage,omitempty"`
	Cost  *CostOutput `json:"cost,omitempty"`
}

// CostOutput is an estimated price in dollars, as decimal strings.
type CostOutput struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Total  string `json:"total"`
}

func (s *Server) handleChat(ctx context.Context, _ *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, ChatOutput, error) {
	if input.Prompt == "" {
		return toolError("prompt is required"), ChatOutput{}, nil
	}

	model := input.Model
	if model == "" {
		model = s.config.DefaultModel
	}
	if model == "" {
		return toolError("model is required"), ChatOutput{}, nil
	}

	req := &llm.ChatRequest{
		Model:     model,
		Transport: input.Provider,
		Messages:  llm.WithSystem(input.System, []llm.Message{llm.NewTextMessage(llm.RoleUser, input.Prompt)}),
		Params: llm.Overrides{
			Temperature: input.Temperature,
			MaxTokens:   input.MaxTokens,
		}.Apply(llm.DefaultParams()),
	}

	s.config.Logger.Debug("MCP chat request",
		"model", model,
		"provider", input.Provider,
	)

	resp, err := s.config.Completer.Complete(ctx, req)
	if err != nil {
		s.config.Logger.Error("MCP chat failed", "model", model, "error", err)
		return toolError(fmt.Sprintf("Chat failed: %v", err)), ChatOutput{}, nil
	}

	out := ChatOutput{Model: model, Text: resp.Text, Usage: resp.Usage}
	if resp.Usage != nil {
		cost := s.config.Catalog.EstimateCost(model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		out.Cost = &CostOutput{
			Input:  cost.InputCost.String(),
			Output: cost.OutputCost.String(),
			Total:  cost.TotalCost.String(),
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: resp.Text},
		},
	}, out, nil
}
