package normalize

import (
	"strings"

	"github.com/tidwall/gjson"
)

// genericText probes, in order: generation, text, delta (string, {text} or
// {type:text_delta,text}), outputs[].content|text joined, and
// message.content[].text joined. The first field holding text wins.
func genericText(root gjson.Result) string {
	if s, ok := nonEmptyString(root.Get("generation")); ok {
		return s
	}

	if s, ok := nonEmptyString(root.Get("text")); ok {
		return s
	}

	delta := root.Get("delta")
	if s, ok := nonEmptyString(delta); ok {
		return s
	}
	if delta.IsObject() {
		if s, ok := nonEmptyString(delta.Get("text")); ok {
			return s
		}
	}

	if outputs := root.Get("outputs"); outputs.IsArray() {
		var parts []string
		outputs.ForEach(func(_, out gjson.Result) bool {
			if s, ok := nonEmptyString(out.Get("content")); ok {
				parts = append(parts, s)
			} else if s, ok := nonEmptyString(out.Get("text")); ok {
				parts = append(parts, s)
			}
			return true
		})
		if joined := strings.Join(parts, ""); joined != "" {
			return joined
		}
	}

	if content := root.Get("message.content"); content.IsArray() {
		if joined := joinTextBlocks(content); joined != "" {
			return joined
		}
	}

	return ""
}

// genericComplete treats message_stop and stream_end types, any non-empty
// stop_reason, and a message_end event_type as terminal.
func genericComplete(root gjson.Result) bool {
	switch root.Get("type").String() {
	case "message_stop", "stream_end":
		return true
	}

	if _, ok := nonEmptyString(root.Get("stop_reason")); ok {
		return true
	}

	return root.Get("event_type").String() == "message_end"
}

// joinTextBlocks concatenates the text of every block in a content array.
func joinTextBlocks(content gjson.Result) string {
	var sb strings.Builder
	content.ForEach(func(_, block gjson.Result) bool {
		t := block.Get("type").String()
		if t != "" && t != "text" {
			return true
		}
		sb.WriteString(block.Get("text").String())
		return true
	})
	return sb.String()
}
