package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/relay/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a chat turn has been relayed and recorded.
	EventTypeTurnCompleted = "relay.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a finished turn.
type TurnCompletedEvent struct {
	SchemaVersion int                  `json:"schema_version"`
	EventType     string               `json:"event_type"`
	EventID       string               `json:"event_id"`
	EmittedAt     time.Time            `json:"emitted_at"`
	Source        EventSource          `json:"source"`
	RequestMeta   TurnRequestMeta      `json:"request_meta"`
	Cost          *TurnCost            `json:"cost,omitempty"`
	Turn          llm.ConversationTurn `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Transport string `json:"transport"`
	Family    string `json:"family"`
	Model     string `json:"model"`
}

// TurnRequestMeta captures request lifecycle metadata for the event.
type TurnRequestMeta struct {
	Path        string    `json:"path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
}

// TurnCost is the estimated price of the turn, as decimal strings.
type TurnCost struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Total  string `json:"total"`
}

// NewTurnCompletedEvent stamps a new v1 event around turn.
func NewTurnCompletedEvent(turn llm.ConversationTurn, meta TurnRequestMeta, now time.Time) *TurnCompletedEvent {
	ev := &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     now.UTC(),
		Source: EventSource{
			Transport: turn.Provider,
			Family:    turn.Family,
		},
		RequestMeta: meta,
		Turn:        turn,
	}
	if turn.Request != nil {
		ev.Source.Model = turn.Request.Model
	}
	if meta.DurationMs == 0 && !meta.StartedAt.IsZero() && !meta.CompletedAt.IsZero() {
		ev.RequestMeta.DurationMs = meta.CompletedAt.Sub(meta.StartedAt).Milliseconds()
	}
	return ev
}
