package llm

import "encoding/json"

// ChatResponse represents a normalized, non-streaming chat response.
type ChatResponse struct {
	// Model that generated the response
	Model string `json:"model"`

	// Text is the extracted assistant output.
	Text string `json:"text"`

	// Token usage, when the vendor reports it.
	Usage *Usage `json:"usage,omitempty"`

	// RawResponse preserves the vendor payload.
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
}

// Usage contains token counts for a single call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the sum of input and output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Merge folds other into u, keeping the larger count for each field. Vendors
// report usage cumulatively across streaming events, so the maximum is the
// final value.
func (u *Usage) Merge(other *Usage) {
	if other == nil {
		return
	}
	if other.InputTokens > u.InputTokens {
		u.InputTokens = other.InputTokens
	}
	if other.OutputTokens > u.OutputTokens {
		u.OutputTokens = other.OutputTokens
	}
}

// ErrorResponse is the JSON error body returned to HTTP clients.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
