// Package anthropic implements the direct Anthropic Messages API transport.
package anthropic

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
	// DefaultBaseURL is the public Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	messagesPath = "/v1/messages"
)

// Config configures the Anthropic transport.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Transport calls the Anthropic Messages API with an x-api-key header.
type Transport struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ transport.Transport = (*Transport)(nil)

// New creates an Anthropic transport. It returns transport.ErrMissingCredentials
// when no API key is configured.
func New(cfg Config) (*Transport, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key not set: %w", transport.ErrMissingCredentials)
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
func (t *Transport) Name() string { return transport.Anthropic }

// Invoke implements transport.Transport.
func (t *Transport) Invoke(ctx context.Context, inv *transport.Invocation) ([]byte, error) {
	resp, err := t.do(ctx, inv, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading anthropic response: %w", err)
	}
	return body, nil
}

// InvokeStream implements transport.Transport.
func (t *Transport) InvokeStream(ctx context.Context, inv *transport.Invocation) (transport.Stream, error) {
	resp, err := t.do(ctx, inv, true)
	if err != nil {
		return nil, err
	}
	return transport.NewSSEStream(transport.Anthropic, resp.Body), nil
}

func (t *Transport) do(ctx context.Context, inv *transport.Invocation, stream bool) (*http.Response, error) {
	src, ok := inv.Body.(*format.AnthropicRequest)
	if !ok {
		return nil, transport.UnsupportedFamily(transport.Anthropic, inv.Family)
	}

	// The direct API takes the model in the body and the version as a header.
	req := *src
	req.Model = inv.Model
	req.AnthropicVersion = ""
	req.Stream = stream

	payload, err := json.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("marshaling anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", t.apiKey)
	httpReq.Header.Set("Anthropic-Version", APIVersion)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	if err := transport.CheckResponse(transport.Anthropic, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
