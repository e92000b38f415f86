package llm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/llm"
)

var _ = Describe("messages", func() {
	conv := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "Be brief."),
		llm.NewTextMessage(llm.RoleUser, "Hi"),
		llm.NewTextMessage(llm.RoleSystem, ""),
		llm.NewTextMessage(llm.RoleAssistant, "Hello"),
		llm.NewTextMessage(llm.RoleSystem, "Answer in French."),
	}

	It("splits system messages out in order", func() {
		system, rest := llm.SplitSystem(conv)
		Expect(system).To(Equal("Be brief.\n\nAnswer in French."))
		Expect(rest).To(Equal([]llm.Message{
			llm.NewTextMessage(llm.RoleUser, "Hi"),
			llm.NewTextMessage(llm.RoleAssistant, "Hello"),
		}))
	})

	It("prepends a system prompt only when one is given", func() {
		msgs := []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")}
		Expect(llm.WithSystem("", msgs)).To(Equal(msgs))

		out := llm.WithSystem("Be brief.", msgs)
		Expect(out).To(HaveLen(2))
		Expect(out[0].Role).To(Equal(llm.RoleSystem))
		Expect(msgs).To(HaveLen(1))
	})

	It("reports whether anything besides system messages is present", func() {
		Expect(llm.HasTurns(conv)).To(BeTrue())
		Expect(llm.HasTurns(nil)).To(BeFalse())
		Expect(llm.HasTurns([]llm.Message{conv[0], conv[2]})).To(BeFalse())
	})

	It("joins conversation text with newlines", func() {
		Expect(llm.ConversationText(conv[1:4])).To(Equal("Hi\n\nHello"))
	})

	DescribeTable("IsValidRole",
		func(role string, valid bool) {
			Expect(llm.IsValidRole(role)).To(Equal(valid))
		},
		Entry("user", "user", true),
		Entry("assistant", "assistant", true),
		Entry("system", "system", true),
		Entry("tool", "tool", false),
		Entry("case matters", "User", false),
	)
})

var _ = Describe("Overrides", func() {
	It("leaves defaults alone when nothing is set", func() {
		Expect(llm.Overrides{}.Apply(llm.DefaultParams())).To(Equal(llm.Params{
			Temperature: 0.7, MaxTokens: 4096, TopP: 0.9,
		}))
	})

	It("applies set fields and ignores a non-positive max tokens", func() {
		temp, zero, topK := 0.0, 0, 40
		p := llm.Overrides{
			Temperature:   &temp,
			MaxTokens:     &zero,
			TopK:          &topK,
			StopSequences: []string{"\n\nHuman:"},
		}.Apply(llm.DefaultParams())

		Expect(p.Temperature).To(BeZero())
		Expect(p.MaxTokens).To(Equal(llm.DefaultMaxTokens))
		Expect(*p.TopK).To(Equal(40))
		Expect(p.StopSequences).To(ConsistOf("\n\nHuman:"))
	})
})

var _ = Describe("Usage", func() {
	It("keeps the largest cumulative counts", func() {
		u := llm.Usage{InputTokens: 12}
		u.Merge(&llm.Usage{OutputTokens: 3})
		u.Merge(&llm.Usage{InputTokens: 10, OutputTokens: 27})
		u.Merge(nil)

		Expect(u).To(Equal(llm.Usage{InputTokens: 12, OutputTokens: 27}))
		Expect(u.Total()).To(Equal(39))
	})

	It("reports whether a stream event carries text", func() {
		Expect(llm.StreamEvent{IsFinal: true}.HasText()).To(BeFalse())
		Expect(llm.StreamEvent{TextDelta: "Hi"}.HasText()).To(BeTrue())
	})
})
