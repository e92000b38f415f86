package normalize

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/papercomputeco/relay/pkg/llm"
)

// Anthropic: streaming content_block_delta events carry delta.text; a full
// Messages response carries content[].text. Only message_stop is terminal so
// the Bedrock invocation metrics attached to it are not lost.

func anthropicText(root gjson.Result) string {
	if root.Get("type").String() == "content_block_delta" {
		return root.Get("delta.text").String()
	}

	if content := root.Get("content"); content.IsArray() {
		return joinTextBlocks(content)
	}

	return ""
}

func anthropicComplete(root gjson.Result) bool {
	return root.Get("type").String() == "message_stop"
}

func anthropicUsage(root gjson.Result) *llm.Usage {
	switch root.Get("type").String() {
	case "message_start":
		return usageFrom(root.Get("message.usage"), "input_tokens", "output_tokens")
	case "message_delta":
		return usageFrom(root.Get("usage"), "input_tokens", "output_tokens")
	case "message":
		return usageFrom(root.Get("usage"), "input_tokens", "output_tokens")
	default:
		return nil
	}
}

// Meta Llama: generation text, terminal on a non-empty stop_reason (Bedrock
// sends null until the last chunk).

func metaText(root gjson.Result) string {
	return root.Get("generation").String()
}

func metaComplete(root gjson.Result) bool {
	_, ok := nonEmptyString(root.Get("stop_reason"))
	return ok
}

func metaUsage(root gjson.Result) *llm.Usage {
	return usageFrom(root, "prompt_token_count", "generation_token_count")
}

// Mistral: outputs[].text joined, terminal on outputs[0].stop_reason.

func mistralText(root gjson.Result) string {
	var sb strings.Builder
	root.Get("outputs").ForEach(func(_, out gjson.Result) bool {
		sb.WriteString(out.Get("text").String())
		return true
	})
	if sb.Len() > 0 {
		return sb.String()
	}

	// Mistral Large chat responses use the choices shape.
	return choicesText(root)
}

func mistralComplete(root gjson.Result) bool {
	if _, ok := nonEmptyString(root.Get("outputs.0.stop_reason")); ok {
		return true
	}
	return choicesComplete(root)
}

// Cohere: text-generation events carry text; the stream-end event repeats
// the full response and must not be emitted again.

func cohereText(root gjson.Result) string {
	if cohereSilent(root) {
		return ""
	}

	if s, ok := nonEmptyString(root.Get("text")); ok {
		return s
	}

	return root.Get("generations.0.text").String()
}

// cohereSilent reports events other than text-generation, such as the
// stream-end event that repeats the whole reply.
func cohereSilent(root gjson.Result) bool {
	et := root.Get("event_type")
	return et.Exists() && et.String() != "text-generation"
}

func cohereComplete(root gjson.Result) bool {
	if root.Get("event_type").String() == "stream-end" {
		return true
	}
	return root.Get("is_finished").Bool()
}

func cohereUsage(root gjson.Result) *llm.Usage {
	if u := usageFrom(root.Get("response.meta.billed_units"), "input_tokens", "output_tokens"); u != nil {
		return u
	}
	return usageFrom(root.Get("meta.billed_units"), "input_tokens", "output_tokens")
}

// Titan: outputText on stream chunks, results[0].outputText on full bodies.

func titanText(root gjson.Result) string {
	if s, ok := nonEmptyString(root.Get("outputText")); ok {
		return s
	}
	return root.Get("results.0.outputText").String()
}

func titanComplete(root gjson.Result) bool {
	if _, ok := nonEmptyString(root.Get("completionReason")); ok {
		return true
	}
	_, ok := nonEmptyString(root.Get("results.0.completionReason"))
	return ok
}

func titanUsage(root gjson.Result) *llm.Usage {
	if root.Get("totalOutputTextTokenCount").Exists() {
		return usageFrom(root, "inputTextTokenCount", "totalOutputTextTokenCount")
	}

	in := root.Get("inputTextTokenCount")
	out := root.Get("results.0.tokenCount")
	if !in.Exists() && !out.Exists() {
		return nil
	}
	return &llm.Usage{InputTokens: int(in.Int()), OutputTokens: int(out.Int())}
}

// AI21 Jamba uses the chat choices shape; the older Jurassic models return
// completions[0].data.text.

func ai21Text(root gjson.Result) string {
	if s := choicesText(root); s != "" {
		return s
	}
	return root.Get("completions.0.data.text").String()
}

// OpenAI: choices[0].delta.content or choices[0].message.content. The
// finish_reason chunk is followed by a usage-only chunk and [DONE], so the
// stream ends on the usage chunk or the sentinel.

func openAIText(root gjson.Result) string {
	return choicesText(root)
}

func openAIComplete(root gjson.Result) bool {
	choices := root.Get("choices")
	return choices.IsArray() && len(choices.Array()) == 0 && root.Get("usage").IsObject()
}

func choicesText(root gjson.Result) string {
	if s, ok := nonEmptyString(root.Get("choices.0.delta.content")); ok {
		return s
	}
	return root.Get("choices.0.message.content").String()
}

func choicesComplete(root gjson.Result) bool {
	_, ok := nonEmptyString(root.Get("choices.0.finish_reason"))
	return ok
}

func choicesUsage(root gjson.Result) *llm.Usage {
	return usageFrom(root.Get("usage"), "prompt_tokens", "completion_tokens")
}

// invocationUsage reads the metrics Bedrock attaches to the last chunk of
// every InvokeModelWithResponseStream response.
func invocationUsage(root gjson.Result) *llm.Usage {
	return usageFrom(root.Get("amazon-bedrock-invocationMetrics"), "inputTokenCount", "outputTokenCount")
}

func usageFrom(obj gjson.Result, inKey, outKey string) *llm.Usage {
	if !obj.IsObject() {
		return nil
	}

	in := obj.Get(inKey)
	out := obj.Get(outKey)
	if !in.Exists() && !out.Exists() {
		return nil
	}

	return &llm.Usage{
		InputTokens:  int(in.Int()),
		OutputTokens: int(out.Int()),
	}
}
