package eventstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTurnEvent is returned when a publisher is handed a nil event.
	ErrNilTurnEvent = errors.New("nil turn event")

	// ErrInvalidTurnEvent marks an event missing its id or type.
	ErrInvalidTurnEvent = errors.New("invalid turn event")

	// ErrPublisherClosed is returned by PublishTurn after Close.
	ErrPublisherClosed = errors.New("publisher closed")
)

// Validate checks the envelope fields every backend keys on.
func Validate(event *TurnCompletedEvent) error {
	switch {
	case event == nil:
		return ErrNilTurnEvent
	case event.EventID == "":
		return fmt.Errorf("%w: missing event id", ErrInvalidTurnEvent)
	case event.EventType == "":
		return fmt.Errorf("%w: missing event type", ErrInvalidTurnEvent)
	}
	return nil
}
