package relay

import (
	"encoding/json"
	"io"

	"github.com/papercomputeco/relay/pkg/sse"
)

// Sink receives relayed text deltas.
type Sink interface {
	// Emit forwards one text delta downstream.
	Emit(text string) error

	// Close ends a successful stream.
	Close() error

	// Fail ends the stream in an error state. Text already emitted stays
	// emitted.
	Fail(err error) error
}

// TextSink writes raw text deltas with no framing.
type TextSink struct {
	w io.Writer
}

// NewTextSink returns a Sink writing plain text to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Emit(text string) error {
	_, err := io.WriteString(s.w, text)
	return err
}

func (s *TextSink) Close() error { return nil }

// Fail writes nothing. A plain text body has no error framing, so the caller
// must abort the response, e.g. by closing its pipe with the error.
func (s *TextSink) Fail(error) error { return nil }

// SSESink frames each delta as data: {"text":"..."} and terminates the
// stream with data: [DONE].
type SSESink struct {
	w *sse.Writer
}

// NewSSESink returns a Sink writing SSE frames to w.
func NewSSESink(w io.Writer) *SSESink {
	return &SSESink{w: sse.NewWriter(w)}
}

type textFrame struct {
	Text string `json:"text"`
}

type errorFrame struct {
	Error string `json:"error"`
}

func (s *SSESink) Emit(text string) error {
	return s.w.WriteJSON(textFrame{Text: text})
}

func (s *SSESink) Close() error {
	return s.w.Done()
}

func (s *SSESink) Fail(err error) error {
	data, mErr := json.Marshal(errorFrame{Error: err.Error()})
	if mErr != nil {
		return mErr
	}
	return s.w.WriteEvent(sse.Event{Type: "error", Data: string(data)})
}

// CollectSink accumulates deltas in memory.
type CollectSink struct {
	Deltas []string
	Closed bool
	Err    error
}

func (s *CollectSink) Emit(text string) error {
	s.Deltas = append(s.Deltas, text)
	return nil
}

func (s *CollectSink) Close() error {
	s.Closed = true
	return nil
}

func (s *CollectSink) Fail(err error) error {
	s.Err = err
	return nil
}
