package transport_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/family"
	"github.com/papercomputeco/relay/pkg/llm/format"
	"github.com/papercomputeco/relay/pkg/transport"
)

var _ = Describe("BedrockPayload", func() {
	msgs := []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")}

	It("marshals the formatted body", func() {
		body, err := format.Format(family.Mistral, msgs, llm.DefaultParams())
		Expect(err).NotTo(HaveOccurred())

		payload, err := transport.BedrockPayload(transport.Bedrock, &transport.Invocation{
			Model:  "mistral.mistral-large-2402-v1:0",
			Family: family.Mistral,
			Body:   body,
		})
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(payload, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKey("messages"))
	})

	It("restores the bedrock anthropic version", func() {
		payload, err := transport.BedrockPayload(transport.Bedrock, &transport.Invocation{
			Model:  "anthropic.claude-3-haiku-20240307-v1:0",
			Family: family.Anthropic,
			Body:   &format.AnthropicRequest{MaxTokens: 10, Model: "x", Stream: true},
		})
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(payload, &decoded)).To(Succeed())
		Expect(decoded["anthropic_version"]).To(Equal(format.BedrockAnthropicVersion))
		Expect(decoded).NotTo(HaveKey("model"))
		Expect(decoded).NotTo(HaveKey("stream"))
	})

	It("refuses OpenAI bodies", func() {
		_, err := transport.BedrockPayload(transport.Bedrock, &transport.Invocation{
			Model:  "gpt-4o",
			Family: family.OpenAI,
			Body:   &format.OpenAIRequest{},
		})
		Expect(errors.Is(err, transport.ErrUnsupportedFamily)).To(BeTrue())
	})
})
