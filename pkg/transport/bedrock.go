package transport

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/relay/pkg/llm/family"
	"github.com/papercomputeco/relay/pkg/llm/format"
)

// BedrockPayload marshals an invocation body for the Bedrock InvokeModel API.
// The model id travels in the URL, so the body is sent as formatted.
func BedrockPayload(name string, inv *Invocation) ([]byte, error) {
	if inv.Body == nil {
		return nil, fmt.Errorf("%s: empty request body", name)
	}

	switch inv.Family {
	case family.OpenAI:
		return nil, UnsupportedFamily(name, inv.Family)
	case family.Anthropic, family.Meta, family.Mistral, family.Cohere, family.AmazonTitan, family.AI21, family.Unknown:
	}

	if req, ok := inv.Body.(*format.AnthropicRequest); ok && req.AnthropicVersion == "" {
		cp := *req
		cp.AnthropicVersion = format.BedrockAnthropicVersion
		cp.Model = ""
		cp.Stream = false
		inv = &Invocation{Model: inv.Model, Family: inv.Family, Body: &cp}
	}

	payload, err := json.Marshal(inv.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", name, err)
	}
	return payload, nil
}
