// Package sse reads vendor event streams and writes the relay's own
// server-sent event frames.
//
// Framing follows https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DoneData is the data payload of the frame that ends a relay stream.
const DoneData = "[DONE]"

// Event is one dispatched event: the fields seen since the previous blank
// line.
type Event struct {
	// Type is the "event:" field. Empty means "message".
	Type string

	// Data joins every "data:" line with "\n".
	Data string

	ID string

	// Retry is the reconnection delay in milliseconds, 0 when absent.
	Retry int
}
