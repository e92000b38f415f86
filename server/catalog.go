package server

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/relay/pkg/catalog"
	"github.com/papercomputeco/relay/pkg/llm"
)

type modelsResponse struct {
	Models    []catalog.Model `json:"models"`
	Providers []string        `json:"providers"`
}

// costRequest prices either token counts or text, which is counted with
// catalog.CountTokens.
type costRequest struct {
	ModelID      string `json:"modelId"`
	InputTokens  *int   `json:"inputTokens"`
	OutputTokens *int   `json:"outputTokens"`
	InputText    string `json:"inputText"`
	OutputText   string `json:"outputText"`
}

type costResponse struct {
	ModelID      string               `json:"modelId"`
	InputTokens  int                  `json:"inputTokens"`
	OutputTokens int                  `json:"outputTokens"`
	Cost         catalog.CostEstimate `json:"cost"`
	Priced       bool                 `json:"priced"`
}

// handleListModels returns the catalog, optionally filtered by
// ?provider= and ?capability=.
func (s *Server) handleListModels(c *fiber.Ctx) error {
	models := s.catalog.All()
	if p := c.Query("provider"); p != "" {
		models = s.catalog.ByProvider(p)
	}
	if capability := c.Query("capability"); capability != "" {
		filtered := make([]catalog.Model, 0, len(models))
		for _, m := range models {
			if m.HasCapability(capability) {
				filtered = append(filtered, m)
			}
		}
		models = filtered
	}

	return c.JSON(modelsResponse{
		Models:    models,
		Providers: s.catalog.Providers(),
	})
}

func (s *Server) handleGetModel(c *fiber.Ctx) error {
	// Bedrock ids contain ':' which clients percent-encode.
	id, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return s.sendError(c, badRequest("invalid model id: %v", err))
	}

	m, ok := s.catalog.ByID(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "model not found: " + id})
	}
	return c.JSON(m)
}

func (s *Server) handleEstimateCost(c *fiber.Ctx) error {
	var body costRequest
	if err := c.BodyParser(&body); err != nil {
		return s.sendError(c, badRequest("invalid request body: %v", err))
	}
	if body.ModelID == "" {
		return s.sendError(c, badRequest("modelId is required"))
	}

	in := catalog.CountTokens(body.InputText)
	if body.InputTokens != nil {
		in = *body.InputTokens
	}
	out := catalog.CountTokens(body.OutputText)
	if body.OutputTokens != nil {
		out = *body.OutputTokens
	}
	if in < 0 || out < 0 {
		return s.sendError(c, badRequest("token counts must not be negative"))
	}

	_, priced := s.catalog.PricingFor(body.ModelID)
	return c.JSON(costResponse{
		ModelID:      body.ModelID,
		InputTokens:  in,
		OutputTokens: out,
		Cost:         s.catalog.EstimateCost(body.ModelID, in, out),
		Priced:       priced,
	})
}
