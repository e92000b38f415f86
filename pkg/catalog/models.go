package catalog

import "github.com/papercomputeco/relay/pkg/llm/family"

// Capability tags.
const (
	CapText                 = "text"
	CapVision               = "vision"
	CapCode                 = "code"
	CapAnalysis             = "analysis"
	CapReasoning            = "reasoning"
	CapResearch             = "research"
	CapMultimodal           = "multimodal"
	CapRAG                  = "rag"
	CapSummarization        = "summarization"
	CapMultilingual         = "multilingual"
	CapToolUse              = "tool-use"
	CapConversation         = "conversation"
	CapLongContext          = "long-context"
	CapInstructionFollowing = "instruction-following"
)

func price(in, out float64) *Pricing {
	return &Pricing{InputPerMillion: in, OutputPerMillion: out}
}

// builtin is the model list shipped with relay. AI21 Jurassic models are
// billed per thousand tokens; their prices are stored per million.
var builtin = []Model{
	// Anthropic on Bedrock
	{
		ID: "anthropic.claude-3-5-sonnet-20241022-v2:0", Name: "Claude 3.5 Sonnet v2", Provider: "Anthropic",
		Description:  "Most intelligent model with improved reasoning and coding",
		Capabilities: []string{CapText, CapVision, CapCode, CapAnalysis, CapReasoning},
		Pricing:      price(3.00, 15.00),
	},
	{
		ID: "anthropic.claude-3-5-sonnet-20240620-v1:0", Name: "Claude 3.5 Sonnet v1", Provider: "Anthropic",
		Description:  "Balanced intelligence and speed",
		Capabilities: []string{CapText, CapVision, CapCode, CapAnalysis},
		Pricing:      price(3.00, 15.00),
	},
	{
		ID: "anthropic.claude-3-opus-20240229-v1:0", Name: "Claude 3 Opus", Provider: "Anthropic",
		Description:  "Most capable model for complex tasks",
		Capabilities: []string{CapText, CapVision, CapCode, CapAnalysis, CapResearch},
		Pricing:      price(15.00, 75.00),
	},
	{
		ID: "anthropic.claude-3-sonnet-20240229-v1:0", Name: "Claude 3 Sonnet", Provider: "Anthropic",
		Description:  "Balanced performance and intelligence",
		Capabilities: []string{CapText, CapVision, CapCode},
		Pricing:      price(3.00, 15.00),
	},
	{
		ID: "anthropic.claude-3-haiku-20240307-v1:0", Name: "Claude 3 Haiku", Provider: "Anthropic",
		Description:  "Fastest and most compact model",
		Capabilities: []string{CapText, CapVision},
		Pricing:      price(0.25, 1.25),
	},

	// Meta Llama
	{
		ID: "meta.llama3-2-90b-instruct-v1:0", Name: "Llama 3.2 90B Instruct", Provider: "Meta",
		Description:  "Large multimodal model with vision capabilities",
		Capabilities: []string{CapText, CapVision, CapCode, CapMultimodal},
		Pricing:      price(0.265, 0.354),
	},
	{
		ID: "meta.llama3-2-11b-instruct-v1:0", Name: "Llama 3.2 11B Instruct", Provider: "Meta",
		Description:  "Efficient multimodal model",
		Capabilities: []string{CapText, CapVision, CapMultimodal},
		Pricing:      price(0.16, 0.24),
	},
	{
		ID: "meta.llama3-1-405b-instruct-v1:0", Name: "Llama 3.1 405B Instruct", Provider: "Meta",
		Description:  "Largest and most capable Llama model",
		Capabilities: []string{CapText, CapCode, CapReasoning},
		Pricing:      price(0.532, 1.6),
	},
	{
		ID: "meta.llama3-1-70b-instruct-v1:0", Name: "Llama 3.1 70B Instruct", Provider: "Meta",
		Description:  "High performance open model",
		Capabilities: []string{CapText, CapCode},
		Pricing:      price(0.265, 0.354),
	},
	{
		ID: "meta.llama3-1-8b-instruct-v1:0", Name: "Llama 3.1 8B Instruct", Provider: "Meta",
		Description:  "Efficient and fast model",
		Capabilities: []string{CapText, CapCode},
		Pricing:      price(0.22, 0.22),
	},

	// Amazon Titan
	{
		ID: "amazon.titan-text-premier-v1:0", Name: "Titan Text Premier", Provider: "Amazon",
		Description:  "Advanced text generation with RAG support",
		Capabilities: []string{CapText, CapRAG, CapSummarization},
		Pricing:      price(0.50, 1.50),
	},
	{
		ID: "amazon.titan-text-express-v1", Name: "Titan Text Express", Provider: "Amazon",
		Description:  "Fast and efficient text generation",
		Capabilities: []string{CapText, CapSummarization},
		Pricing:      price(0.20, 0.60),
	},
	{
		ID: "amazon.titan-text-lite-v1", Name: "Titan Text Lite", Provider: "Amazon",
		Description:  "Lightweight text generation",
		Capabilities: []string{CapText},
		Pricing:      price(0.15, 0.20),
	},

	// Mistral AI
	{
		ID: "mistral.mistral-large-2407-v1:0", Name: "Mistral Large 2", Provider: "Mistral AI",
		Description:  "Top-tier reasoning and code generation",
		Capabilities: []string{CapText, CapCode, CapReasoning, CapMultilingual},
		Pricing:      price(3.00, 9.00),
	},
	{
		ID: "mistral.mistral-small-2402-v1:0", Name: "Mistral Small", Provider: "Mistral AI",
		Description:  "Efficient model for simpler tasks",
		Capabilities: []string{CapText, CapCode},
		Pricing:      price(1.00, 3.00),
	},
	{
		ID: "mistral.mixtral-8x7b-instruct-v0:1", Name: "Mixtral 8x7B Instruct", Provider: "Mistral AI",
		Description:  "Mixture of experts model",
		Capabilities: []string{CapText, CapCode, CapMultilingual},
		Pricing:      price(0.45, 0.70),
	},

	// Cohere
	{
		ID: "cohere.command-r-plus-v1:0", Name: "Command R+", Provider: "Cohere",
		Description:  "Advanced RAG and tool use capabilities",
		Capabilities: []string{CapText, CapRAG, CapToolUse, CapMultilingual},
		Pricing:      price(3.00, 15.00),
	},
	{
		ID: "cohere.command-r-v1:0", Name: "Command R", Provider: "Cohere",
		Description:  "Balanced RAG and conversational AI",
		Capabilities: []string{CapText, CapRAG, CapToolUse},
		Pricing:      price(0.50, 1.50),
	},
	{
		ID: "cohere.command-text-v14", Name: "Command", Provider: "Cohere",
		Description:  "Conversational AI model",
		Capabilities: []string{CapText, CapConversation},
		Pricing:      price(1.50, 2.00),
	},

	// AI21 Labs
	{
		ID: "ai21.jamba-instruct-v1:0", Name: "Jamba Instruct", Provider: "AI21 Labs",
		Description:  "Hybrid SSM-Transformer model with long context",
		Capabilities: []string{CapText, CapLongContext},
		Pricing:      price(0.50, 0.70),
	},
	{
		ID: "ai21.j2-ultra-v1", Name: "Jurassic-2 Ultra", Provider: "AI21 Labs",
		Description:  "Most capable Jurassic model",
		Capabilities: []string{CapText, CapInstructionFollowing},
		Pricing:      price(18.8, 18.8),
	},
	{
		ID: "ai21.j2-mid-v1", Name: "Jurassic-2 Mid", Provider: "AI21 Labs",
		Description:  "Balanced Jurassic model",
		Capabilities: []string{CapText},
		Pricing:      price(12.5, 12.5),
	},

	// Anthropic API
	{
		ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet (API)", Provider: "Anthropic",
		Description:  "Claude 3.5 Sonnet through the Anthropic API",
		Capabilities: []string{CapText, CapVision, CapCode, CapAnalysis, CapReasoning},
		Pricing:      price(3.00, 15.00),
	},
	{
		ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku (API)", Provider: "Anthropic",
		Description:  "Fast Claude model through the Anthropic API",
		Capabilities: []string{CapText, CapCode},
		Pricing:      price(0.80, 4.00),
	},

	// OpenAI
	{
		ID: "gpt-4o", Name: "GPT-4o", Provider: "OpenAI",
		Description:  "Multimodal flagship chat model",
		Capabilities: []string{CapText, CapVision, CapCode, CapAnalysis},
		Pricing:      price(2.50, 10.00),
	},
	{
		ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: "OpenAI",
		Description:  "Small, inexpensive chat model",
		Capabilities: []string{CapText, CapVision, CapCode},
		Pricing:      price(0.15, 0.60),
	},
	{
		ID: "gpt-4.1", Name: "GPT-4.1", Provider: "OpenAI",
		Description:  "Long context model for coding and instruction following",
		Capabilities: []string{CapText, CapCode, CapLongContext, CapInstructionFollowing},
		Pricing:      price(2.00, 8.00),
	},
	{
		ID: "o3-mini", Name: "o3-mini", Provider: "OpenAI",
		Description:  "Small reasoning model",
		Capabilities: []string{CapText, CapCode, CapReasoning},
		Pricing:      price(1.10, 4.40),
	},
}

func init() {
	for i := range builtin {
		builtin[i].Family = family.Resolve(builtin[i].ID)
	}
}
