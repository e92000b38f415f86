package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/storage"
)

type conversationsResponse struct {
	Conversations []*storage.Conversation `json:"conversations"`
}

// handleListConversations lists conversations, newest first. ?q= searches
// titles and message content.
func (s *Server) handleListConversations(c *fiber.Ctx) error {
	var (
		convs []*storage.Conversation
		err   error
	)
	if q := c.Query("q"); q != "" {
		convs, err = s.driver.SearchConversations(c.UserContext(), q)
	} else {
		convs, err = s.driver.ListConversations(c.UserContext())
	}
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(conversationsResponse{Conversations: convs})
}

// handleSaveConversation creates or replaces a conversation.
func (s *Server) handleSaveConversation(c *fiber.Ctx) error {
	var conv storage.Conversation
	if err := c.BodyParser(&conv); err != nil {
		return s.sendError(c, badRequest("invalid request body: %v", err))
	}
	for _, m := range conv.Messages {
		if !llm.IsValidRole(m.Role) {
			return s.sendError(c, badRequest("invalid message role %q", m.Role))
		}
	}

	if err := s.driver.SaveConversation(c.UserContext(), &conv); err != nil {
		return s.sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	conv, err := s.driver.GetConversation(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(conv)
}

func (s *Server) handleDeleteConversation(c *fiber.Ctx) error {
	if err := s.driver.DeleteConversation(c.UserContext(), c.Params("id")); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleExportConversation renders a conversation as an attachment in
// ?format=json|markdown|txt.
func (s *Server) handleExportConversation(c *fiber.Ctx) error {
	format, err := storage.ParseExportFormat(c.Query("format"))
	if err != nil {
		return s.sendError(c, badRequest("%v", err))
	}

	conv, err := s.driver.GetConversation(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.sendError(c, err)
	}

	out, err := storage.Export(conv, format)
	if err != nil {
		return s.sendError(c, err)
	}

	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Attachment("conversation-" + conv.ID + format.Extension())
	return c.Send(out)
}
