// Package transport defines how relay talks to vendor model endpoints.
//
// A Transport issues exactly one authenticated call per invocation and never
// retries: failures are surfaced to the caller, not masked.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/relay/pkg/llm/family"
	"github.com/papercomputeco/relay/pkg/llm/format"
)

// Transport names.
const (
	Bedrock       = "bedrock"
	BedrockSigned = "bedrock-signed"
	Anthropic     = "anthropic"
	OpenAI        = "openai"
)

// ErrMissingCredentials is a configuration error: the transport cannot
// authenticate. It is detected when the transport is built, before any
// network call.
var ErrMissingCredentials = errors.New("missing credentials")

// ErrUnsupportedFamily is returned when a transport is asked to invoke a
// model whose request shape it cannot carry.
var ErrUnsupportedFamily = errors.New("unsupported provider family for transport")

// ErrUnknownTransport is returned when a request names a transport that was
// never registered.
var ErrUnknownTransport = errors.New("unknown transport")

// Invocation is a single formatted call to a vendor model.
type Invocation struct {
	// Model is the vendor model id.
	Model string

	// Family is the provider family Body was built for.
	Family family.Family

	// Body is the formatted vendor request body.
	Body format.Body
}

// Stream yields raw vendor chunk payloads in arrival order.
type Stream interface {
	// Next blocks for the next chunk payload. It returns io.EOF when the
	// vendor stream is exhausted.
	Next() ([]byte, error)

	// Close releases the underlying connection.
	Close() error
}

// Transport is an authenticated client for one vendor API.
type Transport interface {
	// Name returns the transport name.
	Name() string

	// Invoke performs a non-streaming call and returns the full response body.
	Invoke(ctx context.Context, inv *Invocation) ([]byte, error)

	// InvokeStream performs a streaming call. Cancelling ctx aborts the
	// underlying read.
	InvokeStream(ctx context.Context, inv *Invocation) (Stream, error)
}

// VendorError is a non-success HTTP response from a vendor API.
type VendorError struct {
	Transport  string
	StatusCode int
	Body       string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Transport, e.StatusCode, e.Body)
}

// UnsupportedFamily builds the error returned when transport name cannot
// carry family f.
func UnsupportedFamily(name string, f family.Family) error {
	return fmt.Errorf("%w: %s cannot serve %q models", ErrUnsupportedFamily, name, f)
}
