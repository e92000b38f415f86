package server

// Stream formats for /api/chat.
const (
	StreamFormatText = "text"
	StreamFormatSSE  = "sse"
)

// Config is the HTTP server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// DefaultModel is used when a request does not name a model.
	DefaultModel string

	// StreamFormat is the default framing for streamed chat responses,
	// "text" or "sse".
	StreamFormat string

	// EnableMCP mounts the MCP handler at /mcp.
	EnableMCP bool
}
