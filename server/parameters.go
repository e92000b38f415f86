package server

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/relay/pkg/llm"
)

type parametersResponse struct {
	Model  string     `json:"model"`
	Params llm.Params `json:"params"`
}

func (s *Server) modelParam(c *fiber.Ctx) (string, error) {
	model, err := url.PathUnescape(c.Params("model"))
	if err != nil || model == "" {
		return "", badRequest("invalid model id")
	}
	return model, nil
}

func (s *Server) handleGetParameters(c *fiber.Ctx) error {
	model, err := s.modelParam(c)
	if err != nil {
		return s.sendError(c, err)
	}

	p, err := s.driver.GetParameters(c.UserContext(), model)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(parametersResponse{Model: model, Params: p})
}

// handleSaveParameters applies the body as overrides on top of the
// currently stored parameters.
func (s *Server) handleSaveParameters(c *fiber.Ctx) error {
	model, err := s.modelParam(c)
	if err != nil {
		return s.sendError(c, err)
	}

	var overrides llm.Overrides
	if err := c.BodyParser(&overrides); err != nil {
		return s.sendError(c, badRequest("invalid request body: %v", err))
	}

	current, err := s.driver.GetParameters(c.UserContext(), model)
	if err != nil {
		return s.sendError(c, err)
	}

	p := overrides.Apply(current)
	if p.Temperature < 0 || p.Temperature > 2 {
		return s.sendError(c, badRequest("temperature must be between 0 and 2"))
	}
	if p.TopP < 0 || p.TopP > 1 {
		return s.sendError(c, badRequest("top_p must be between 0 and 1"))
	}

	if err := s.driver.SaveParameters(c.UserContext(), model, p); err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(parametersResponse{Model: model, Params: p})
}

func (s *Server) handleResetParameters(c *fiber.Ctx) error {
	model, err := s.modelParam(c)
	if err != nil {
		return s.sendError(c, err)
	}

	if err := s.driver.ResetParameters(c.UserContext(), model); err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(parametersResponse{Model: model, Params: llm.DefaultParams()})
}
