package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/relay/pkg/catalog"
)

var (
	listModelsToolName    = "list_models"
	listModelsDescription = "List the models relay can route to, with provider, family, capabilities and per-million-token pricing. Optionally filter by provider or capability."
)

// ListModelsInput represents the input arguments for the list_models tool.
type ListModelsInput struct {
	Provider   string `json:"provider,omitempty" jsonschema:"only models from this provider, e.g. Anthropic or Meta"`
	Capability string `json:"capability,omitempty" jsonschema:"only models with this capability, e.g. vision or code"`
}

// ListModelsOutput represents the output of the list_models tool.
type ListModelsOutput struct {
	Models []catalog.Model `json:"models"`
	Count  int             `json:"count"`
}

func (s *Server) handleListModels(_ context.Context, _ *mcp.CallToolRequest, input ListModelsInput) (*mcp.CallToolResult, ListModelsOutput, error) {
	models := s.config.Catalog.All()
	if input.Provider != "" {
		models = s.config.Catalog.ByProvider(input.Provider)
	}
	if input.Capability != "" {
		filtered := models[:0:0]
		for _, m := range models {
			if m.HasCapability(input.Capability) {
				filtered = append(filtered, m)
			}
		}
		models = filtered
	}

	out := ListModelsOutput{Models: models, Count: len(models)}

	text, err := json.Marshal(out)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to encode models: %v", err)), ListModelsOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}, out, nil
}
