package llm

// StreamEvent is one decoded vendor chunk normalized to an optional text
// delta and a terminal flag.
type StreamEvent struct {
	// TextDelta is the incremental text carried by the chunk. Empty means the
	// chunk carried no text.
	TextDelta string `json:"text_delta,omitempty"`

	// IsFinal marks the terminal chunk of a stream.
	IsFinal bool `json:"is_final"`

	// Usage metrics, typically present only on the first or final chunk.
	Usage *Usage `json:"usage,omitempty"`
}

// HasText reports whether the event carries a non-empty delta.
func (e StreamEvent) HasText() bool {
	return e.TextDelta != ""
}
