package llm

// ConversationTurn represents a completed request-response pair handed to the
// async recorder.
type ConversationTurn struct {
	Provider       string        `json:"provider"`
	Family         string        `json:"family"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Request        *ChatRequest  `json:"request"`
	Response       *ChatResponse `json:"response"`
}
