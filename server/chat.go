package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mitchellh/mapstructure"

	"github.com/papercomputeco/relay/pkg/catalog"
	"github.com/papercomputeco/relay/pkg/chat"
	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/rag"
	"github.com/papercomputeco/relay/pkg/relay"
	"github.com/papercomputeco/relay/server/worker"
)

type documentInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// chatRequest is the /api/chat body.
type chatRequest struct {
	Messages       []llm.Message   `json:"messages"`
	Prompt         string          `json:"prompt"`
	Provider       string          `json:"provider"`
	Model          string          `json:"model"`
	System         string          `json:"system"`
	Temperature    *float64        `json:"temperature"`
	MaxTokens      *int            `json:"max_tokens"`
	TopP           *float64        `json:"top_p"`
	TopK           *int            `json:"top_k"`
	StopSequences  []string        `json:"stop_sequences"`
	Stream         bool            `json:"stream"`
	StreamFormat   string          `json:"stream_format"`
	Documents      []documentInput `json:"documents"`
	ConversationID string          `json:"conversation_id"`
}

// chatResponse is the non-streamed /api/chat reply.
type chatResponse struct {
	Model    string                `json:"model"`
	Provider string                `json:"provider"`
	Family   string                `json:"family"`
	Output   string                `json:"output"`
	Text     string                `json:"text"`
	Raw      json.RawMessage       `json:"raw,omitempty"`
	Usage    *llm.Usage            `json:"usage,omitempty"`
	Cost     *catalog.CostEstimate `json:"cost,omitempty"`
}

// invokeRequest is the /api/invoke body. Params is decoded loosely so
// clients may send numbers as strings.
type invokeRequest struct {
	ModelID  string         `json:"modelId"`
	Prompt   string         `json:"prompt"`
	Provider string         `json:"provider"`
	Params   map[string]any `json:"params"`
	Stream   bool           `json:"stream"`
}

type invokeResponse struct {
	Model string     `json:"model"`
	Text  string     `json:"text"`
	Usage *llm.Usage `json:"usage,omitempty"`
}

// turn carries a prepared call through the chat and invoke handlers.
type turn struct {
	req            *llm.ChatRequest
	call           *chat.Call
	conversationID string
	path           string
	startedAt      time.Time
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	startedAt := time.Now()

	var body chatRequest
	if err := validate(s.schemas.chat, c.Body(), &body); err != nil {
		return s.sendError(c, err)
	}

	req, err := s.buildChatRequest(c.UserContext(), &body)
	if err != nil {
		return s.sendError(c, err)
	}

	call, err := s.chat.Prepare(req)
	if err != nil {
		return s.sendError(c, err)
	}
	s.headerHandler.SetRouteHeaders(c, call.TransportName, call.Family.String())

	t := &turn{
		req:            req,
		call:           call,
		conversationID: s.headerHandler.ConversationID(c, body.ConversationID),
		path:           c.Path(),
		startedAt:      startedAt,
	}

	if !req.Stream {
		return s.completeTurn(c, t)
	}

	format := body.StreamFormat
	if format == "" {
		format = s.config.StreamFormat
	}
	return s.streamTurn(c, t, format == StreamFormatSSE)
}

// buildChatRequest applies defaults, stored per-model parameters, request
// overrides, and document context.
func (s *Server) buildChatRequest(ctx context.Context, body *chatRequest) (*llm.ChatRequest, error) {
	model := body.Model
	if model == "" {
		model = s.config.DefaultModel
	}
	if model == "" {
		return nil, badRequest("model is required")
	}

	messages := body.Messages
	if len(messages) == 0 && body.Prompt != "" {
		messages = []llm.Message{llm.NewTextMessage(llm.RoleUser, body.Prompt)}
	}

	system, err := systemPrompt(body.System, body.Documents)
	if err != nil {
		return nil, err
	}

	base, err := s.driver.GetParameters(ctx, model)
	if err != nil {
		s.logger.Warn("loading stored parameters failed, using defaults", "model", model, "error", err)
		base = llm.DefaultParams()
	}

	params := llm.Overrides{
		Temperature:   body.Temperature,
		MaxTokens:     body.MaxTokens,
		TopP:          body.TopP,
		TopK:          body.TopK,
		StopSequences: body.StopSequences,
	}.Apply(base)

	return &llm.ChatRequest{
		Model:     model,
		Transport: body.Provider,
		Messages:  llm.WithSystem(system, messages),
		Params:    params,
		Stream:    body.Stream,
	}, nil
}

// systemPrompt joins an explicit system prompt with the document context.
func systemPrompt(explicit string, inputs []documentInput) (string, error) {
	docs := make([]rag.Document, 0, len(inputs))
	for _, in := range inputs {
		doc, err := rag.NewDocument(in.Name, in.Content)
		if err != nil {
			return "", err
		}
		docs = append(docs, doc)
	}

	parts := make([]string, 0, 2)
	if strings.TrimSpace(explicit) != "" {
		parts = append(parts, explicit)
	}
	if ctx := rag.BuildSystemPrompt(docs); ctx != "" {
		parts = append(parts, ctx)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *Server) completeTurn(c *fiber.Ctx, t *turn) error {
	resp, err := s.chat.Invoke(c.UserContext(), t.call)
	if err != nil {
		return s.sendError(c, err)
	}

	s.enqueue(t, resp, false)

	usage := worker.TurnUsage(llm.ConversationTurn{Request: t.req, Response: resp})
	cost := s.catalog.EstimateCost(t.req.Model, usage.InputTokens, usage.OutputTokens)

	return c.JSON(chatResponse{
		Model:    t.req.Model,
		Provider: t.call.TransportName,
		Family:   t.call.Family.String(),
		Output:   resp.Text,
		Text:     resp.Text,
		Raw:      resp.RawResponse,
		Usage:    resp.Usage,
		Cost:     &cost,
	})
}

// streamTurn opens the vendor stream before committing the response so
// vendor errors keep their status code, then relays deltas through an
// io.Pipe. SetBodyStreamWriter would buffer chunks behind fasthttp's
// internal writers; pw.Write blocks until fasthttp has consumed the chunk.
func (s *Server) streamTurn(c *fiber.Ctx, t *turn, sse bool) error {
	// fasthttp recycles the request context once the handler returns, but
	// the relay keeps running in its own goroutine. A client that goes away
	// is noticed on the next write to the pipe; until then a stalled vendor
	// read is bounded only by the transport's HTTP timeout.
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := s.chat.Open(ctx, t.call)
	if err != nil {
		cancel()
		return s.sendError(c, err)
	}

	s.headerHandler.SetStreamHeaders(c, sse)

	pr, pw := io.Pipe()
	go func() {
		defer cancel()
		defer pw.Close()

		var sink relay.Sink = relay.NewTextSink(pw)
		if sse {
			sink = relay.NewSSESink(pw)
		}

		resp, err := s.chat.RelayStream(ctx, t.call, stream, sink)
		if err != nil {
			if errors.Is(err, relay.ErrSinkWrite) {
				s.logger.Info("client went away mid-stream", "model", t.req.Model, "error", err)
			} else {
				s.logger.Error("stream failed", "model", t.req.Model, "error", err)
			}
			// fasthttp drops the connection without the terminating chunk,
			// so the client sees a truncated body rather than a clean end.
			_ = pw.CloseWithError(err)
			return
		}
		s.enqueue(t, resp, true)
	}()

	// Unknown size (-1) triggers chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) enqueue(t *turn, resp *llm.ChatResponse, streaming bool) {
	if s.workerPool == nil {
		return
	}

	s.workerPool.Enqueue(worker.Job{
		Turn: llm.ConversationTurn{
			Provider:       t.call.TransportName,
			Family:         t.call.Family.String(),
			ConversationID: t.conversationID,
			Request:        t.req,
			Response:       resp,
		},
		Path:        t.path,
		Streaming:   streaming,
		StartedAt:   t.startedAt,
		CompletedAt: time.Now(),
	})
}

func (s *Server) handleInvoke(c *fiber.Ctx) error {
	startedAt := time.Now()

	var body invokeRequest
	if err := validate(s.schemas.invoke, c.Body(), &body); err != nil {
		return s.sendError(c, err)
	}

	var overrides llm.Overrides
	if err := decodeParams(body.Params, &overrides); err != nil {
		return s.sendError(c, badRequest("invalid params: %v", err))
	}

	req := &llm.ChatRequest{
		Model:     body.ModelID,
		Transport: body.Provider,
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, body.Prompt)},
		Params:    overrides.Apply(llm.DefaultParams()),
		Stream:    body.Stream,
	}

	call, err := s.chat.Prepare(req)
	if err != nil {
		return s.sendError(c, err)
	}
	s.headerHandler.SetRouteHeaders(c, call.TransportName, call.Family.String())

	t := &turn{req: req, call: call, path: c.Path(), startedAt: startedAt}
	if body.Stream {
		return s.streamTurn(c, t, true)
	}

	resp, err := s.chat.Invoke(c.UserContext(), call)
	if err != nil {
		return s.sendError(c, err)
	}
	s.enqueue(t, resp, false)

	return c.JSON(invokeResponse{Model: req.Model, Text: resp.Text, Usage: resp.Usage})
}

// decodeParams decodes loosely typed invoke params, accepting both
// camelCase and snake_case keys and numbers sent as strings.
func decodeParams(raw map[string]any, dst *llm.Overrides) error {
	if len(raw) == 0 {
		return nil
	}

	normalized := make(map[string]any, len(raw))
	for k, v := range raw {
		normalized[camelKey(k)] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(normalized)
}

func camelKey(k string) string {
	parts := strings.Split(k, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
