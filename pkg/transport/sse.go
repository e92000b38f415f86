package transport

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/relay/pkg/sse"
)

// DefaultHTTPTimeout bounds a single vendor call. LLM responses can be slow.
const DefaultHTTPTimeout = 5 * time.Minute

// NewHTTPClient returns the HTTP client used by the HTTPS transports.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultHTTPTimeout,
	}
}

// SSEStream adapts a vendor SSE response body into a Stream of data payloads.
// A vendor "error" event ends the stream with a VendorError.
type SSEStream struct {
	name   string
	body   io.ReadCloser
	reader *sse.Reader
}

// NewSSEStream wraps body, which is closed by Close.
func NewSSEStream(name string, body io.ReadCloser) *SSEStream {
	return &SSEStream{
		name:   name,
		body:   body,
		reader: sse.NewReader(body),
	}
}

// Next returns the data payload of the next non-empty event.
func (s *SSEStream) Next() ([]byte, error) {
	for {
		ev, err := s.reader.Next()
		if err != nil {
			return nil, err
		}

		switch ev.Type {
		case "error":
			return nil, &VendorError{Transport: s.name, StatusCode: http.StatusBadGateway, Body: ev.Data}
		case "ping":
			continue
		}

		if ev.Data == "" {
			continue
		}

		return []byte(ev.Data), nil
	}
}

// Close closes the response body.
func (s *SSEStream) Close() error {
	return s.body.Close()
}

// CheckResponse converts a non-2xx response into a VendorError, consuming and
// closing the body.
func CheckResponse(name string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s error body: %w", name, err)
	}

	return &VendorError{Transport: name, StatusCode: resp.StatusCode, Body: string(body)}
}
