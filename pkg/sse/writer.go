package sse

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
)

// Writer encodes events onto a downstream SSE response body. Every write is
// a complete frame; callers flush by virtue of writing into an io.Pipe.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that frames events onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEvent writes a single event frame. Multi-line data is split across
// several data: lines so the reader reassembles it verbatim.
func (w *Writer) WriteEvent(ev Event) error {
	var sb strings.Builder
	if ev.ID != "" {
		sb.WriteString("id: " + ev.ID + "\n")
	}
	if ev.Type != "" {
		sb.WriteString("event: " + ev.Type + "\n")
	}
	if ev.Retry > 0 {
		sb.WriteString("retry: " + strconv.Itoa(ev.Retry) + "\n")
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		sb.WriteString("data: " + line + "\n")
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w.w, sb.String())
	return err
}

// WriteData writes a default-typed event with the given data.
func (w *Writer) WriteData(data string) error {
	return w.WriteEvent(Event{Data: data})
}

// WriteJSON marshals v and writes it as a default-typed event.
func (w *Writer) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return w.WriteData(string(data))
}

// Done writes the terminating data: [DONE] frame.
func (w *Writer) Done() error {
	return w.WriteData(DoneData)
}
