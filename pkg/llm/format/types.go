package format

import "github.com/papercomputeco/relay/pkg/llm/family"

// Body is a provider-specific request body ready to be marshaled to JSON.
type Body interface {
	// Family reports the provider family the body was built for.
	Family() family.Family
}

// BedrockAnthropicVersion is the anthropic_version Bedrock requires for
// Claude models.
const BedrockAnthropicVersion = "bedrock-2023-05-31"

// AnthropicRequest is the Messages API body. On Bedrock the model is part of
// the URL and anthropic_version is set; the direct API sets Model and Stream
// instead.
type AnthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version,omitempty"`
	Model            string             `json:"model,omitempty"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	TopP             *float64           `json:"top_p,omitempty"`
	TopK             *int               `json:"top_k,omitempty"`
	StopSequences    []string           `json:"stop_sequences,omitempty"`
	Messages         []AnthropicMessage `json:"messages"`
	System           string             `json:"system,omitempty"`
	Stream           bool               `json:"stream,omitempty"`
}

// AnthropicMessage is a single Messages API turn with text content.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Family implements Body.
func (*AnthropicRequest) Family() family.Family { return family.Anthropic }

// MetaRequest is the Llama body: a single templated prompt string.
type MetaRequest struct {
	Prompt      string  `json:"prompt"`
	MaxGenLen   int     `json:"max_gen_len"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// Family implements Body.
func (*MetaRequest) Family() family.Family { return family.Meta }

// ChatMessage is the role/content pair used by the Mistral, AI21 Jamba and
// OpenAI chat formats.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MistralRequest is the Mistral chat body.
type MistralRequest struct {
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stop        []string      `json:"stop,omitempty"`
}

// Family implements Body.
func (*MistralRequest) Family() family.Family { return family.Mistral }

// CohereRequest is the Cohere Command R chat body.
type CohereRequest struct {
	Message       string              `json:"message"`
	ChatHistory   []CohereChatMessage `json:"chat_history,omitempty"`
	Preamble      string              `json:"preamble,omitempty"`
	MaxTokens     int                 `json:"max_tokens"`
	Temperature   float64             `json:"temperature"`
	P             *float64            `json:"p,omitempty"`
	K             *int                `json:"k,omitempty"`
	StopSequences []string            `json:"stop_sequences,omitempty"`
}

// CohereChatMessage is a chat_history entry. Role is USER or CHATBOT.
type CohereChatMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Family implements Body.
func (*CohereRequest) Family() family.Family { return family.Cohere }

// TextRequest is the single-blob body used by Titan and by unknown models.
type TextRequest struct {
	InputText            string               `json:"inputText"`
	TextGenerationConfig TextGenerationConfig `json:"textGenerationConfig"`

	family family.Family
}

// TextGenerationConfig holds Titan generation parameters.
type TextGenerationConfig struct {
	MaxTokenCount int      `json:"maxTokenCount"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"topP"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

// Family implements Body.
func (r *TextRequest) Family() family.Family { return r.family }

// AI21Request is the Jamba chat body.
type AI21Request struct {
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stop        []string      `json:"stop,omitempty"`
}

// Family implements Body.
func (*AI21Request) Family() family.Family { return family.AI21 }

// OpenAIRequest is the Chat Completions body. Model and Stream are filled by
// the transport.
type OpenAIRequest struct {
	Model         string         `json:"model,omitempty"`
	Messages      []ChatMessage  `json:"messages"`
	MaxTokens     int            `json:"max_tokens"`
	Temperature   float64        `json:"temperature"`
	TopP          float64        `json:"top_p"`
	Stop          []string       `json:"stop,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
}

// StreamOptions requests a trailing usage chunk on OpenAI streams.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// Family implements Body.
func (*OpenAIRequest) Family() family.Family { return family.OpenAI }
