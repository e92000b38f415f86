// Package format builds provider-specific request bodies from a uniform
// message list. Every function here is pure: the output depends only on the
// family, the messages and the parameters.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/family"
)

// ErrNoMessages is returned when asked to format an empty conversation, or
// one holding only system messages. Callers reject these before formatting.
var ErrNoMessages = errors.New("no messages to format")

// metaMaxGenLen is the largest max_gen_len Bedrock accepts for Llama models.
const metaMaxGenLen = 2048

// Format builds the request body for the given family.
func Format(f family.Family, messages []llm.Message, params llm.Params) (Body, error) {
	if !llm.HasTurns(messages) {
		return nil, ErrNoMessages
	}

	switch f {
	case family.Anthropic:
		return formatAnthropic(messages, params), nil
	case family.Meta:
		return formatMeta(messages, params), nil
	case family.Mistral:
		return formatMistral(messages, params), nil
	case family.Cohere:
		return formatCohere(messages, params), nil
	case family.AI21:
		return formatAI21(messages, params), nil
	case family.OpenAI:
		return formatOpenAI(messages, params), nil
	case family.AmazonTitan, family.Unknown:
		return formatText(f, messages, params), nil
	default:
		return nil, fmt.Errorf("unsupported provider family: %q", f)
	}
}

// Marshal formats and encodes the body in one step.
func Marshal(f family.Family, messages []llm.Message, params llm.Params) ([]byte, error) {
	body, err := Format(f, messages, params)
	if err != nil {
		return nil, err
	}

	return json.Marshal(body)
}

func formatAnthropic(messages []llm.Message, params llm.Params) *AnthropicRequest {
	system, rest := llm.SplitSystem(messages)

	req := &AnthropicRequest{
		AnthropicVersion: BedrockAnthropicVersion,
		MaxTokens:        params.MaxTokens,
		Temperature:      params.Temperature,
		TopK:             params.TopK,
		StopSequences:    params.StopSequences,
		Messages:         make([]AnthropicMessage, 0, len(rest)),
		System:           system,
	}
	// top_p is only sent once tuned away from the shared default; Claude
	// otherwise samples with its own default.
	if params.TopP > 0 && params.TopP != llm.DefaultTopP {
		p := params.TopP
		req.TopP = &p
	}
	for _, m := range rest {
		req.Messages = append(req.Messages, AnthropicMessage{Role: m.Role, Content: m.Content})
	}

	return req
}

// formatMeta renders the Llama 3 chat template: one header/eot pair per
// message, ending with an open assistant header for the model to complete.
func formatMeta(messages []llm.Message, params llm.Params) *MetaRequest {
	var sb strings.Builder
	sb.WriteString("<|begin_of_text|>")
	for _, m := range messages {
		writeLlamaTurn(&sb, m.Role, m.Content)
	}
	sb.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")

	maxGen := params.MaxTokens
	if maxGen <= 0 || maxGen > metaMaxGenLen {
		maxGen = metaMaxGenLen
	}

	topP := params.TopP
	if topP <= 0 {
		topP = llm.DefaultTopP
	}

	return &MetaRequest{
		Prompt:      sb.String(),
		MaxGenLen:   maxGen,
		Temperature: params.Temperature,
		TopP:        topP,
	}
}

func writeLlamaTurn(sb *strings.Builder, role, content string) {
	sb.WriteString("<|start_header_id|>")
	sb.WriteString(role)
	sb.WriteString("<|end_header_id|>\n\n")
	sb.WriteString(content)
	sb.WriteString("<|eot_id|>")
}

func formatMistral(messages []llm.Message, params llm.Params) *MistralRequest {
	return &MistralRequest{
		Messages:    chatMessages(messages),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Stop:        params.StopSequences,
	}
}

// formatCohere sends the last message as the prompt and everything before it
// as chat history.
func formatCohere(messages []llm.Message, params llm.Params) *CohereRequest {
	system, rest := llm.SplitSystem(messages)

	req := &CohereRequest{
		Preamble:      system,
		MaxTokens:     params.MaxTokens,
		Temperature:   params.Temperature,
		K:             params.TopK,
		StopSequences: params.StopSequences,
	}
	if params.TopP > 0 {
		p := params.TopP
		req.P = &p
	}

	if len(rest) == 0 {
		return req
	}

	last := rest[len(rest)-1]
	req.Message = last.Content

	for _, m := range rest[:len(rest)-1] {
		req.ChatHistory = append(req.ChatHistory, CohereChatMessage{
			Role:    cohereRole(m.Role),
			Message: m.Content,
		})
	}

	return req
}

func cohereRole(role string) string {
	if role == llm.RoleAssistant {
		return "CHATBOT"
	}
	return "USER"
}

func formatAI21(messages []llm.Message, params llm.Params) *AI21Request {
	return &AI21Request{
		Messages:    chatMessages(messages),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Stop:        params.StopSequences,
	}
}

func formatOpenAI(messages []llm.Message, params llm.Params) *OpenAIRequest {
	return &OpenAIRequest{
		Messages:    chatMessages(messages),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Stop:        params.StopSequences,
	}
}

// formatText joins "role: content" lines into a single inputText blob.
func formatText(f family.Family, messages []llm.Message, params llm.Params) *TextRequest {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Role+": "+m.Content)
	}

	return &TextRequest{
		InputText: strings.Join(lines, "\n"),
		TextGenerationConfig: TextGenerationConfig{
			MaxTokenCount: params.MaxTokens,
			Temperature:   params.Temperature,
			TopP:          params.TopP,
			StopSequences: params.StopSequences,
		},
		family: f,
	}
}

// chatMessages places the system prompt first, then the remaining messages
// verbatim.
func chatMessages(messages []llm.Message) []ChatMessage {
	system, rest := llm.SplitSystem(messages)

	out := make([]ChatMessage, 0, len(rest)+1)
	if system != "" {
		out = append(out, ChatMessage{Role: llm.RoleSystem, Content: system})
	}
	for _, m := range rest {
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}

	return out
}
