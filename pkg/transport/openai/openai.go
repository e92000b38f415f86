// Package openai implements the OpenAI Chat Completions transport.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/relay/pkg/llm/format"
	"github.com/papercomputeco/relay/pkg/transport"
)

const (
	// DefaultBaseURL is the public OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com"

	completionsPath = "/v1/chat/completions"
)

// Config configures the OpenAI transport.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Transport calls the OpenAI Chat Completions API with a bearer token.
type Transport struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ transport.Transport = (*Transport)(nil)

// New creates an OpenAI transport. It returns transport.ErrMissingCredentials
// when no API key is configured.
func New(cfg Config) (*Transport, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key not set: %w", transport.ErrMissingCredentials)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = transport.NewHTTPClient()
	}

	return &Transport{apiKey: cfg.APIKey, baseURL: baseURL, client: client}, nil
}

// Name implements transport.Transport.
func (t *Transport) Name() string { return transport.OpenAI }

// Invoke implements transport.Transport.
func (t *Transport) Invoke(ctx context.Context, inv *transport.Invocation) ([]byte, error) {
	resp, err := t.do(ctx, inv, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading openai response: %w", err)
	}
	return body, nil
}

// InvokeStream implements transport.Transport. Streams always request a
// trailing usage chunk.
func (t *Transport) InvokeStream(ctx context.Context, inv *transport.Invocation) (transport.Stream, error) {
	resp, err := t.do(ctx, inv, true)
	if err != nil {
		return nil, err
	}
	return transport.NewSSEStream(transport.OpenAI, resp.Body), nil
}

func (t *Transport) do(ctx context.Context, inv *transport.Invocation, stream bool) (*http.Response, error) {
	src, ok := inv.Body.(*format.OpenAIRequest)
	if !ok {
		return nil, transport.UnsupportedFamily(transport.OpenAI, inv.Family)
	}

	req := *src
	req.Model = inv.Model
	req.Stream = stream
	req.StreamOptions = nil
	if stream {
		req.StreamOptions = &format.StreamOptions{IncludeUsage: true}
	}

	payload, err := json.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("marshaling openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if err := transport.CheckResponse(transport.OpenAI, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
