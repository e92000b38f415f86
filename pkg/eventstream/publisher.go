package eventstream

import "context"

// Publisher delivers turn events to a backend. PublishTurn may block until
// the backend acknowledges; callers run it off the request path.
type Publisher interface {
	PublishTurn(ctx context.Context, event *TurnCompletedEvent) error
	Close() error
}
