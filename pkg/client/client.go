// Package client is a small HTTP client for a running relay server, used by
// the relay CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/storage"
)

// ConversationHeader names the conversation a chat turn is appended to.
const ConversationHeader = "X-Relay-Conversation-Id"

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("relay returned HTTP %d: %s", e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to one relay server.
type Client struct {
	target string
	http   *http.Client
}

// New creates a client for the server at target, e.g. http://localhost:8080.
func New(target string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(target, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid relay target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid relay target URL %q: scheme and host are required", target)
	}

	return &Client{
		target: u.String(),
		http: &http.Client{
			// Model responses can be slow.
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// ChatRequest is the subset of the /api/chat body the CLI sends.
type ChatRequest struct {
	Messages       []llm.Message `json:"messages"`
	Model          string        `json:"model,omitempty"`
	Provider       string        `json:"provider,omitempty"`
	System         string        `json:"system,omitempty"`
	Temperature    *float64      `json:"temperature,omitempty"`
	MaxTokens      *int          `json:"max_tokens,omitempty"`
	Stream         bool          `json:"stream"`
	StreamFormat   string        `json:"stream_format,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
}

// ChatStream sends a streaming chat request with text framing and copies the
// generated text to w as it arrives. It returns the full text.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, w io.Writer) (string, error) {
	req.Stream = true
	req.StreamFormat = "text"

	resp, err := c.do(ctx, http.MethodPost, "/api/chat", req, req.ConversationID)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	if _, err := io.Copy(io.MultiWriter(w, &full), resp.Body); err != nil {
		return full.String(), fmt.Errorf("reading stream: %w", err)
	}
	return full.String(), nil
}

// Chat sends a non-streaming chat request and returns the generated text.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	req.Stream = false

	body, err := c.getBody(ctx, http.MethodPost, "/api/chat", req, req.ConversationID)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "text").String(), nil
}

// GetConversation fetches a stored conversation.
func (c *Client) GetConversation(ctx context.Context, id string) (*storage.Conversation, error) {
	body, err := c.getBody(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}

	conv := &storage.Conversation{}
	if err := json.Unmarshal(body, conv); err != nil {
		return nil, fmt.Errorf("parsing conversation: %w", err)
	}
	return conv, nil
}

// ListConversations lists stored conversations. A non-empty query searches
// titles and message text.
func (c *Client) ListConversations(ctx context.Context, query string) ([]*storage.Conversation, error) {
	path := "/api/conversations"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}

	body, err := c.getBody(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	var out struct {
		Conversations []*storage.Conversation `json:"conversations"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing conversations: %w", err)
	}
	return out.Conversations, nil
}

// DeleteConversation removes a stored conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.getBody(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(id), nil, "")
	return err
}

// ExportConversation returns a conversation rendered in format.
func (c *Client) ExportConversation(ctx context.Context, id, format string) ([]byte, error) {
	path := "/api/conversations/" + url.PathEscape(id) + "/export?format=" + url.QueryEscape(format)
	return c.getBody(ctx, http.MethodGet, path, nil, "")
}

// UsageSummary returns the raw JSON usage summary. Empty bounds are omitted.
func (c *Client) UsageSummary(ctx context.Context, from, to string) ([]byte, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}

	path := "/api/usage/summary"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.getBody(ctx, http.MethodGet, path, nil, "")
}

func (c *Client) getBody(ctx context.Context, method, path string, payload any, conversationID string) ([]byte, error) {
	resp, err := c.do(ctx, method, path, payload, conversationID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// do sends a request and turns non-2xx replies into an *APIError. The caller
// closes the body of a successful response.
func (c *Client) do(ctx context.Context, method, path string, payload any, conversationID string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if conversationID != "" {
		req.Header.Set(ConversationHeader, conversationID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay at %s: %w", c.target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(data, "error").String(),
			Detail:     gjson.GetBytes(data, "detail").String(),
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, apiErr
	}

	return resp, nil
}
