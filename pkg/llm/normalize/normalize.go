// Package normalize extracts plain text, completion and usage from vendor
// response bodies and decoded streaming chunks.
//
// Family-specific rules run first whenever the family is known. Unknown
// families, and payloads where the family rule finds nothing, fall back to a
// generic dispatcher that probes the field names the supported vendors are
// known to use. The generic rules are heuristics that tolerate response-shape
// drift; they are not an authoritative protocol.
package normalize

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/family"
)

// ErrDecode is returned for payloads that are not valid JSON.
var ErrDecode = errors.New("malformed chunk JSON")

// doneSentinel terminates OpenAI-style SSE streams.
var doneSentinel = []byte("[DONE]")

// rules is the per-family normalizer.
type rules struct {
	text     func(gjson.Result) string
	complete func(gjson.Result) bool
	usage    func(gjson.Result) *llm.Usage

	// silent marks payloads the family defines as carrying no new text, so
	// the generic fallback must not look for any.
	silent func(gjson.Result) bool
}

// textOf applies the family text rule, then the generic rule when the
// family rule finds nothing.
func (r rules) textOf(root gjson.Result) string {
	if s := r.text(root); s != "" {
		return s
	}
	if r.silent != nil && r.silent(root) {
		return ""
	}
	return genericText(root)
}

// completeOf applies the family completion rule, then the generic one.
func (r rules) completeOf(root gjson.Result) bool {
	return r.complete(root) || genericComplete(root)
}

func rulesFor(f family.Family) rules {
	switch f {
	case family.Anthropic:
		return rules{text: anthropicText, complete: anthropicComplete, usage: anthropicUsage}
	case family.Meta:
		return rules{text: metaText, complete: metaComplete, usage: metaUsage}
	case family.Mistral:
		return rules{text: mistralText, complete: mistralComplete, usage: invocationUsage}
	case family.Cohere:
		return rules{text: cohereText, complete: cohereComplete, usage: cohereUsage, silent: cohereSilent}
	case family.AmazonTitan:
		return rules{text: titanText, complete: titanComplete, usage: titanUsage}
	case family.AI21:
		return rules{text: ai21Text, complete: choicesComplete, usage: choicesUsage}
	case family.OpenAI:
		return rules{text: openAIText, complete: openAIComplete, usage: choicesUsage}
	case family.Unknown:
		return rules{text: genericText, complete: genericComplete, usage: invocationUsage}
	default:
		return rules{text: genericText, complete: genericComplete, usage: invocationUsage}
	}
}

// Normalize decodes a single chunk or full response body into a StreamEvent.
// Returns ErrDecode when the payload is not valid JSON.
func Normalize(f family.Family, payload []byte) (llm.StreamEvent, error) {
	if isDone(payload) {
		return llm.StreamEvent{IsFinal: true}, nil
	}

	if !gjson.ValidBytes(payload) {
		return llm.StreamEvent{}, ErrDecode
	}

	r := rulesFor(f)
	root := gjson.ParseBytes(payload)

	return llm.StreamEvent{
		TextDelta: r.textOf(root),
		IsFinal:   r.completeOf(root),
		Usage:     mergeUsage(r.usage(root), invocationUsage(root)),
	}, nil
}

// ExtractText returns the text carried by payload and whether any was found.
func ExtractText(f family.Family, payload []byte) (string, bool) {
	if isDone(payload) || !gjson.ValidBytes(payload) {
		return "", false
	}

	text := rulesFor(f).textOf(gjson.ParseBytes(payload))
	return text, text != ""
}

// IsStreamComplete reports whether payload terminates a stream.
func IsStreamComplete(f family.Family, payload []byte) bool {
	if isDone(payload) {
		return true
	}
	if !gjson.ValidBytes(payload) {
		return false
	}

	return rulesFor(f).completeOf(gjson.ParseBytes(payload))
}

// ExtractUsage returns the token usage reported in payload, or nil.
func ExtractUsage(f family.Family, payload []byte) *llm.Usage {
	if isDone(payload) || !gjson.ValidBytes(payload) {
		return nil
	}

	root := gjson.ParseBytes(payload)
	return mergeUsage(rulesFor(f).usage(root), invocationUsage(root))
}

// Response normalizes a full, non-streaming response body.
func Response(f family.Family, model string, payload []byte) (*llm.ChatResponse, error) {
	if !gjson.ValidBytes(payload) {
		return nil, ErrDecode
	}

	root := gjson.ParseBytes(payload)
	r := rulesFor(f)

	return &llm.ChatResponse{
		Model:       model,
		Text:        r.textOf(root),
		Usage:       mergeUsage(r.usage(root), invocationUsage(root)),
		RawResponse: append([]byte(nil), payload...),
	}, nil
}

func isDone(payload []byte) bool {
	return bytes.Equal(bytes.TrimSpace(payload), doneSentinel)
}

// nonEmptyString returns the value when it is a non-empty JSON string.
func nonEmptyString(v gjson.Result) (string, bool) {
	if v.Type != gjson.String || v.Str == "" {
		return "", false
	}
	return v.Str, true
}

func mergeUsage(a, b *llm.Usage) *llm.Usage {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		a.Merge(b)
		return a
	}
}
