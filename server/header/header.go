// Package header sets the response headers relay sends to HTTP clients.
//
// Streamed chat responses are written through an io.Pipe after the handler
// returns, so every header the client needs (framing, routing, conversation
// id) must be set before the body stream is attached.
package header

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// ConversationIDHeader optionally names the conversation a chat turn is
	// appended to. The conversation_id body field takes precedence.
	ConversationIDHeader = "X-Relay-Conversation-Id"

	// TransportHeader reports the transport a request was routed through.
	TransportHeader = "X-Relay-Transport"

	// FamilyHeader reports the provider family of the requested model.
	FamilyHeader = "X-Relay-Family"
)

// Handler manages headers on client responses.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// SetRouteHeaders reports how a request was routed.
func (h *Handler) SetRouteHeaders(c *fiber.Ctx, transport, family string) {
	c.Set(TransportHeader, transport)
	c.Set(FamilyHeader, family)
}

// SetStreamHeaders prepares a response for a chunked stream. SSE streams get
// text/event-stream; everything else is plain UTF-8 text.
func (h *Handler) SetStreamHeaders(c *fiber.Ctx, sse bool) {
	if sse {
		c.Set(fiber.HeaderContentType, "text/event-stream")
	} else {
		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	}
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// Reverse proxies such as nginx buffer responses unless told otherwise.
	c.Set("X-Accel-Buffering", "no")
}

// ConversationID returns the body value when set, falling back to the
// request header.
func (h *Handler) ConversationID(c *fiber.Ctx, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	return strings.TrimSpace(c.Get(ConversationIDHeader))
}
