// Package chat routes a uniform chat request to a vendor transport and
// returns plain text, either as one response or as relayed deltas.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/family"
	"github.com/papercomputeco/relay/pkg/llm/format"
	"github.com/papercomputeco/relay/pkg/llm/normalize"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/relay"
	"github.com/papercomputeco/relay/pkg/transport"
)

// Call is a routed and formatted request, ready to invoke.
type Call struct {
	TransportName string
	Transport     transport.Transport
	Family        family.Family
	Invocation    *transport.Invocation
}

// Service performs chat calls through a transport registry.
type Service struct {
	registry *transport.Registry
	logger   *slog.Logger
}

// NewService creates a chat Service.
func NewService(registry *transport.Registry, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{registry: registry, logger: log}
}

// Registry returns the transport registry the service routes through.
func (s *Service) Registry() *transport.Registry {
	return s.registry
}

// Prepare resolves the family and transport for req and formats its body.
// Empty or system-only conversations are rejected before any transport is
// touched.
func (s *Service) Prepare(req *llm.ChatRequest) (*Call, error) {
	if req == nil || !llm.HasTurns(req.Messages) {
		return nil, format.ErrNoMessages
	}

	f := family.Resolve(req.Model)
	body, err := format.Format(f, req.Messages, req.Params)
	if err != nil {
		return nil, fmt.Errorf("formatting %s request: %w", f, err)
	}

	name := s.registry.RouteName(req.Transport, req.Model)
	t, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}

	return &Call{
		TransportName: name,
		Transport:     t,
		Family:        f,
		Invocation: &transport.Invocation{
			Model:  req.Model,
			Family: f,
			Body:   body,
		},
	}, nil
}

// Complete performs a non-streaming call and normalizes the full body.
func (s *Service) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	call, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}
	return s.Invoke(ctx, call)
}

// Invoke sends a prepared call and normalizes the full body.
func (s *Service) Invoke(ctx context.Context, call *Call) (*llm.ChatResponse, error) {
	s.logger.Debug("invoking model",
		"transport", call.TransportName,
		"model", call.Invocation.Model,
		"family", call.Family,
	)

	raw, err := call.Transport.Invoke(ctx, call.Invocation)
	if err != nil {
		return nil, err
	}

	resp, err := normalize.Response(call.Family, call.Invocation.Model, raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s response: %w", call.Family, err)
	}
	return resp, nil
}

// Stream performs a streaming call and relays deltas to sink. The returned
// response carries whatever text was forwarded, even when err is non-nil.
func (s *Service) Stream(ctx context.Context, req *llm.ChatRequest, sink relay.Sink) (*llm.ChatResponse, error) {
	call, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}

	return s.StreamCall(ctx, call, sink)
}

// StreamCall opens the vendor stream for a prepared call and relays it.
func (s *Service) StreamCall(ctx context.Context, call *Call, sink relay.Sink) (*llm.ChatResponse, error) {
	stream, err := s.Open(ctx, call)
	if err != nil {
		return nil, err
	}
	return s.RelayStream(ctx, call, stream, sink)
}

// Open starts the vendor stream without reading from it, so vendor errors
// can be reported before any response bytes are written.
func (s *Service) Open(ctx context.Context, call *Call) (transport.Stream, error) {
	s.logger.Debug("streaming model",
		"transport", call.TransportName,
		"model", call.Invocation.Model,
		"family", call.Family,
	)
	return call.Transport.InvokeStream(ctx, call.Invocation)
}

// RelayStream forwards an opened stream to sink. The returned response
// carries whatever text was forwarded, even when err is non-nil.
func (s *Service) RelayStream(ctx context.Context, call *Call, stream transport.Stream, sink relay.Sink) (*llm.ChatResponse, error) {
	res, err := relay.New(s.logger).Run(ctx, call.Family, stream, sink)
	resp := &llm.ChatResponse{
		Model: call.Invocation.Model,
		Text:  res.Text,
		Usage: res.Usage,
	}
	if err != nil {
		return resp, err
	}

	s.logger.Debug("stream relayed",
		"model", call.Invocation.Model,
		"chunks", res.Chunks,
		"skipped", res.Skipped,
	)
	return resp, nil
}
