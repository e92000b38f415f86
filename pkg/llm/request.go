package llm

// ChatRequest represents a provider-agnostic chat request after the inbound
// HTTP body has been decoded and defaults applied.
type ChatRequest struct {
	// Model identifier (e.g., "anthropic.claude-3-5-sonnet-20241022-v2:0", "gpt-4o")
	Model string `json:"model"`

	// Transport is the name of the transport the request is routed through
	// (e.g., "bedrock", "bedrock-signed", "anthropic", "openai").
	Transport string `json:"transport"`

	// Conversation messages, system messages included.
	Messages []Message `json:"messages"`

	// Generation parameters with defaults applied.
	Params Params `json:"params"`

	// Whether to stream the response.
	Stream bool `json:"stream"`
}
