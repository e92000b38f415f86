package normalize_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/family"
	"github.com/papercomputeco/relay/pkg/llm/format"
	"github.com/papercomputeco/relay/pkg/llm/normalize"
)

var _ = Describe("Normalize", func() {
	Describe("format then extract round trip", func() {
		DescribeTable("recovers the mocked reply for each family",
			func(f family.Family, mock string, check func(map[string]any)) {
				raw, err := format.Marshal(f, []llm.Message{llm.NewTextMessage("user", "hi")}, llm.DefaultParams())
				Expect(err).NotTo(HaveOccurred())

				var body map[string]any
				Expect(json.Unmarshal(raw, &body)).To(Succeed())
				check(body)

				text, ok := normalize.ExtractText(f, []byte(mock))
				Expect(ok).To(BeTrue())
				Expect(text).To(Equal("hello"))
			},
			Entry("anthropic", family.Anthropic,
				`{"type":"message","content":[{"type":"text","text":"hello"}]}`,
				func(body map[string]any) {
					Expect(body["messages"]).To(Equal([]any{map[string]any{"role": "user", "content": "hi"}}))
				}),
			Entry("meta", family.Meta,
				`{"generation":"hello","stop_reason":"stop"}`,
				func(body map[string]any) {
					Expect(body["prompt"]).To(ContainSubstring("user<|end_header_id|>\n\nhi"))
				}),
			Entry("mistral", family.Mistral,
				`{"outputs":[{"text":"hello","stop_reason":"stop"}]}`,
				func(body map[string]any) {
					Expect(body["messages"]).To(Equal([]any{map[string]any{"role": "user", "content": "hi"}}))
				}),
			Entry("cohere", family.Cohere,
				`{"text":"hello","finish_reason":"COMPLETE"}`,
				func(body map[string]any) {
					Expect(body["message"]).To(Equal("hi"))
				}),
			Entry("amazon-titan", family.AmazonTitan,
				`{"inputTextTokenCount":3,"results":[{"tokenCount":1,"outputText":"hello","completionReason":"FINISH"}]}`,
				func(body map[string]any) {
					Expect(body["inputText"]).To(Equal("user: hi"))
				}),
			Entry("ai21", family.AI21,
				`{"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`,
				func(body map[string]any) {
					Expect(body["messages"]).To(HaveLen(1))
				}),
			Entry("openai", family.OpenAI,
				`{"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`,
				func(body map[string]any) {
					Expect(body["messages"]).To(HaveLen(1))
				}),
			Entry("unknown", family.Unknown,
				`{"text":"hello"}`,
				func(body map[string]any) {
					Expect(body["inputText"]).To(Equal("user: hi"))
				}),
		)
	})

	Describe("Normalize", func() {
		It("returns ErrDecode for malformed JSON", func() {
			_, err := normalize.Normalize(family.Meta, []byte(`{"generation":`))
			Expect(err).To(MatchError(normalize.ErrDecode))
		})

		It("treats the [DONE] sentinel as final", func() {
			ev, err := normalize.Normalize(family.OpenAI, []byte("[DONE]"))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.IsFinal).To(BeTrue())
			Expect(ev.HasText()).To(BeFalse())
		})

		It("does not treat a null meta stop_reason as final", func() {
			ev, err := normalize.Normalize(family.Meta, []byte(`{"generation":"He","stop_reason":null}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.TextDelta).To(Equal("He"))
			Expect(ev.IsFinal).To(BeFalse())
		})

		It("reads anthropic stream deltas and stop", func() {
			ev, err := normalize.Normalize(family.Anthropic, []byte(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.TextDelta).To(Equal("Hel"))
			Expect(ev.IsFinal).To(BeFalse())

			ev, err = normalize.Normalize(family.Anthropic, []byte(`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":12}}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.IsFinal).To(BeFalse())
			Expect(ev.Usage).To(Equal(&llm.Usage{OutputTokens: 12}))

			ev, err = normalize.Normalize(family.Anthropic, []byte(`{"type":"message_stop","amazon-bedrock-invocationMetrics":{"inputTokenCount":9,"outputTokenCount":12}}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.IsFinal).To(BeTrue())
			Expect(ev.Usage).To(Equal(&llm.Usage{InputTokens: 9, OutputTokens: 12}))
		})

		It("does not re-emit the cohere stream-end response text", func() {
			ev, err := normalize.Normalize(family.Cohere, []byte(`{"is_finished":true,"event_type":"stream-end","response":{"text":"Hello there","meta":{"billed_units":{"input_tokens":4,"output_tokens":2}}}}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.HasText()).To(BeFalse())
			Expect(ev.IsFinal).To(BeTrue())
			Expect(ev.Usage).To(Equal(&llm.Usage{InputTokens: 4, OutputTokens: 2}))
		})

		It("ends openai streams on the usage chunk, not finish_reason", func() {
			ev, err := normalize.Normalize(family.OpenAI, []byte(`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.IsFinal).To(BeFalse())

			ev, err = normalize.Normalize(family.OpenAI, []byte(`{"choices":[],"usage":{"prompt_tokens":5,"completion_tokens":7}}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.IsFinal).To(BeTrue())
			Expect(ev.Usage).To(Equal(&llm.Usage{InputTokens: 5, OutputTokens: 7}))
		})

		It("reads titan stream chunks", func() {
			ev, err := normalize.Normalize(family.AmazonTitan, []byte(`{"outputText":"Hi","index":0,"totalOutputTextTokenCount":1,"completionReason":null,"inputTextTokenCount":3}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.TextDelta).To(Equal("Hi"))
			Expect(ev.IsFinal).To(BeFalse())
			Expect(ev.Usage).To(Equal(&llm.Usage{InputTokens: 3, OutputTokens: 1}))

			Expect(normalize.IsStreamComplete(family.AmazonTitan, []byte(`{"outputText":"","completionReason":"FINISH"}`))).To(BeTrue())
		})
	})

	Describe("generic dispatcher", func() {
		DescribeTable("extracts text in priority order",
			func(payload, expected string) {
				text, _ := normalize.ExtractText(family.Unknown, []byte(payload))
				Expect(text).To(Equal(expected))
			},
			Entry("generation", `{"generation":"a","text":"b"}`, "a"),
			Entry("text", `{"text":"b","delta":"c"}`, "b"),
			Entry("delta string", `{"delta":"c"}`, "c"),
			Entry("delta object", `{"delta":{"text":"d"}}`, "d"),
			Entry("delta text_delta", `{"delta":{"type":"text_delta","text":"e"}}`, "e"),
			Entry("outputs content and text", `{"outputs":[{"content":"f"},{"text":"g"}]}`, "fg"),
			Entry("message content blocks", `{"message":{"content":[{"type":"text","text":"h"},{"type":"text","text":"i"}]}}`, "hi"),
			Entry("empty generation falls through", `{"generation":"","text":"j"}`, "j"),
			Entry("nothing", `{"foo":"bar"}`, ""),
		)

		DescribeTable("detects completion",
			func(payload string, expected bool) {
				Expect(normalize.IsStreamComplete(family.Unknown, []byte(payload))).To(Equal(expected))
			},
			Entry("message_stop", `{"type":"message_stop"}`, true),
			Entry("stream_end", `{"type":"stream_end"}`, true),
			Entry("stop_reason", `{"stop_reason":"length"}`, true),
			Entry("empty stop_reason", `{"stop_reason":""}`, false),
			Entry("null stop_reason", `{"stop_reason":null}`, false),
			Entry("message_end event", `{"event_type":"message_end"}`, true),
			Entry("plain delta", `{"text":"x"}`, false),
		)

		DescribeTable("fills in text when the family rule finds none",
			func(f family.Family, payload, expected string) {
				text, ok := normalize.ExtractText(f, []byte(payload))
				Expect(text).To(Equal(expected))
				Expect(ok).To(Equal(expected != ""))
			},
			Entry("meta text field", family.Meta, `{"text":"hi"}`, "hi"),
			Entry("anthropic untyped delta", family.Anthropic, `{"delta":{"type":"text_delta","text":"x"}}`, "x"),
			Entry("mistral generation", family.Mistral, `{"generation":"m"}`, "m"),
			Entry("titan outputs", family.AmazonTitan, `{"outputs":[{"text":"t"}]}`, "t"),
			Entry("openai plain text", family.OpenAI, `{"text":"o"}`, "o"),
			Entry("cohere stream-end stays silent", family.Cohere, `{"event_type":"stream-end","text":"again"}`, ""),
			Entry("family rule wins", family.Meta, `{"generation":"g","text":"t"}`, "g"),
		)

		DescribeTable("fills in completion when the family rule finds none",
			func(f family.Family, payload string, expected bool) {
				Expect(normalize.IsStreamComplete(f, []byte(payload))).To(Equal(expected))
			},
			Entry("cohere stream_end type", family.Cohere, `{"type":"stream_end"}`, true),
			Entry("meta message_stop type", family.Meta, `{"type":"message_stop"}`, true),
			Entry("titan stop_reason", family.AmazonTitan, `{"stop_reason":"length"}`, true),
			Entry("anthropic nested stop_reason", family.Anthropic, `{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`, false),
			Entry("openai finish_reason chunk", family.OpenAI, `{"choices":[{"delta":{},"finish_reason":"stop"}]}`, false),
		)

		It("uses the fallback for full response bodies", func() {
			resp, err := normalize.Response(family.Meta, "meta.llama3-8b-instruct-v1:0", []byte(`{"outputs":[{"text":"drifted"}]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Text).To(Equal("drifted"))
		})
	})

	Describe("Response", func() {
		It("normalizes a full body with usage and raw payload", func() {
			raw := []byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"hello"},{"type":"text","text":" world"}],"usage":{"input_tokens":10,"output_tokens":2}}`)
			resp, err := normalize.Response(family.Anthropic, "claude-sonnet-4-20250514", raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Text).To(Equal("hello world"))
			Expect(resp.Usage).To(Equal(&llm.Usage{InputTokens: 10, OutputTokens: 2}))
			Expect(string(resp.RawResponse)).To(Equal(string(raw)))
		})
	})
})
