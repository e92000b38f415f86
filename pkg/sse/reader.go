package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const maxLineSize = 1 << 20

// Reader splits a byte stream into events.
type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(src io.Reader) *Reader {
	s := bufio.NewScanner(src)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: s}
}

// Next blocks until a full event has been read. An event still open when the
// source ends is returned as-is. After the last event Next returns io.EOF.
func (r *Reader) Next() (Event, error) {
	var (
		ev      Event
		data    []string
		pending bool
	)

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if line == "" {
			if pending {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			data = append(data, value)
		case "event":
			ev.Type = value
		case "id":
			ev.ID = value
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil {
				ev.Retry = ms
			}
		default:
			continue
		}
		pending = true
	}

	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	if pending {
		ev.Data = strings.Join(data, "\n")
		return ev, nil
	}
	return Event{}, io.EOF
}
