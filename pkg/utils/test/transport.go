package testutils

import (
	"context"
	"io"
	"sync"

	"github.com/papercomputeco/relay/pkg/transport"
)

// MockTransport is a scripted transport.Transport for tests. Invoke returns
// Body, InvokeStream replays Chunks, and both fail with Err when it is set.
type MockTransport struct {
	NameValue string
	Body      []byte
	Chunks    [][]byte
	StreamErr error
	Err       error

	mu          sync.Mutex
	invocations []*transport.Invocation
}

// NewMockTransport creates a MockTransport named name.
func NewMockTransport(name string) *MockTransport {
	return &MockTransport{NameValue: name}
}

func (m *MockTransport) Name() string { return m.NameValue }

func (m *MockTransport) Invoke(_ context.Context, inv *transport.Invocation) ([]byte, error) {
	m.record(inv)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Body, nil
}

func (m *MockTransport) InvokeStream(_ context.Context, inv *transport.Invocation) (transport.Stream, error) {
	m.record(inv)
	if m.Err != nil {
		return nil, m.Err
	}
	return NewMockStream(m.StreamErr, m.Chunks...), nil
}

// Invocations returns every invocation received so far.
func (m *MockTransport) Invocations() []*transport.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*transport.Invocation(nil), m.invocations...)
}

func (m *MockTransport) record(inv *transport.Invocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invocations = append(m.invocations, inv)
}

// MockStream replays chunks, then returns err (io.EOF when nil).
type MockStream struct {
	chunks [][]byte
	err    error
	reads  int
	closed bool
}

// NewMockStream creates a stream over chunks.
func NewMockStream(err error, chunks ...[]byte) *MockStream {
	return &MockStream{chunks: chunks, err: err}
}

// StringStream creates a stream over string chunks ending in io.EOF.
func StringStream(chunks ...string) *MockStream {
	bs := make([][]byte, len(chunks))
	for i, c := range chunks {
		bs[i] = []byte(c)
	}
	return NewMockStream(nil, bs...)
}

func (s *MockStream) Next() ([]byte, error) {
	if s.reads < len(s.chunks) {
		c := s.chunks[s.reads]
		s.reads++
		return c, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

func (s *MockStream) Close() error {
	s.closed = true
	return nil
}

// Reads reports how many chunks have been handed out.
func (s *MockStream) Reads() int { return s.reads }

// Closed reports whether Close was called.
func (s *MockStream) Closed() bool { return s.closed }
