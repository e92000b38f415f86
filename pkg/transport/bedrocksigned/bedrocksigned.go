// Package bedrocksigned implements a Bedrock transport that signs plain HTTPS
// requests with AWS Signature Version 4 instead of going through the SDK
// runtime client.
package bedrocksigned

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"github.com/papercomputeco/relay/pkg/transport"
)

const (
	// DefaultRegion is used when no region is configured.
	DefaultRegion = "us-east-1"

	signingService = "bedrock"
)

// Config configures the signed Bedrock transport. Static keys are required.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Endpoint overrides https://bedrock-runtime.{region}.amazonaws.com.
	Endpoint   string
	HTTPClient *http.Client
}

// Transport signs each Bedrock request with SigV4.
type Transport struct {
	region   string
	endpoint string
	creds    aws.Credentials
	signer   *v4.Signer
	client   *http.Client
	now      func() time.Time
}

var _ transport.Transport = (*Transport)(nil)

// New creates a signed Bedrock transport.
func New(cfg Config) (*Transport, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("aws access key id and secret access key are required: %w", transport.ErrMissingCredentials)
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = transport.NewHTTPClient()
	}

	return &Transport{
		region:   region,
		endpoint: endpoint,
		creds: aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
			Source:          "relay",
		},
		signer: v4.NewSigner(),
		client: client,
		now:    time.Now,
	}, nil
}

// Name implements transport.Transport.
func (t *Transport) Name() string { return transport.BedrockSigned }

// Invoke implements transport.Transport.
func (t *Transport) Invoke(ctx context.Context, inv *transport.Invocation) ([]byte, error) {
	resp, err := t.do(ctx, inv, "invoke")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bedrock response: %w", err)
	}
	return body, nil
}

// InvokeStream implements transport.Transport. The response is an AWS event
// stream whose chunk events carry base64 encoded vendor payloads.
func (t *Transport) InvokeStream(ctx context.Context, inv *transport.Invocation) (transport.Stream, error) {
	resp, err := t.do(ctx, inv, "invoke-with-response-stream")
	if err != nil {
		return nil, err
	}

	return &stream{
		body:    resp.Body,
		reader:  &countingReader{r: resp.Body},
		decoder: eventstream.NewDecoder(),
	}, nil
}

// ModelURL builds the invoke URL for a model id. Colons in versioned ids are
// percent encoded in the escaped path, which is also what gets signed.
func (t *Transport) ModelURL(modelID, action string) (*url.URL, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing bedrock endpoint: %w", err)
	}

	u.Path = "/model/" + modelID + "/" + action
	u.RawPath = "/model/" + strings.ReplaceAll(url.PathEscape(modelID), ":", "%3A") + "/" + action
	return u, nil
}

func (t *Transport) do(ctx context.Context, inv *transport.Invocation, action string) (*http.Response, error) {
	payload, err := transport.BedrockPayload(transport.BedrockSigned, inv)
	if err != nil {
		return nil, err
	}

	u, err := t.ModelURL(inv.Model, action)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating bedrock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	sum := sha256.Sum256(payload)
	if err := t.signer.SignHTTP(ctx, t.creds, req, hex.EncodeToString(sum[:]), signingService, t.region, t.now()); err != nil {
		return nil, fmt.Errorf("signing bedrock request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bedrock request failed: %w", err)
	}

	if err := transport.CheckResponse(transport.BedrockSigned, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type chunkPayload struct {
	Bytes []byte `json:"bytes"`
}

// countingReader counts the bytes read so a clean end of stream, which falls
// between frames, can be told apart from a frame cut off mid-way.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type stream struct {
	body    io.ReadCloser
	reader  *countingReader
	decoder *eventstream.Decoder
	buf     []byte
}

// Next returns io.EOF only when the body ends on a frame boundary. A frame
// cut off mid-way is a transport failure.
func (s *stream) Next() ([]byte, error) {
	for {
		start := s.reader.n
		msg, err := s.decoder.Decode(s.reader, s.buf)
		if err != nil {
			if errors.Is(err, io.EOF) && s.reader.n == start {
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("bedrock event stream truncated: %w", io.ErrUnexpectedEOF)
			}
			return nil, fmt.Errorf("decoding bedrock event stream: %w", err)
		}

		switch headerString(msg.Headers, ":message-type") {
		case "exception":
			return nil, &transport.VendorError{
				Transport:  transport.BedrockSigned,
				StatusCode: http.StatusBadGateway,
				Body:       headerString(msg.Headers, ":exception-type") + ": " + string(msg.Payload),
			}
		case "error":
			return nil, &transport.VendorError{
				Transport:  transport.BedrockSigned,
				StatusCode: http.StatusBadGateway,
				Body:       headerString(msg.Headers, ":error-code") + ": " + headerString(msg.Headers, ":error-message"),
			}
		}

		if et := headerString(msg.Headers, ":event-type"); et != "" && et != "chunk" {
			continue
		}

		var chunk chunkPayload
		if err := json.Unmarshal(msg.Payload, &chunk); err != nil {
			return nil, fmt.Errorf("decoding bedrock chunk: %w", err)
		}
		if len(chunk.Bytes) == 0 {
			continue
		}
		return chunk.Bytes, nil
	}
}

func (s *stream) Close() error {
	return s.body.Close()
}

func headerString(h eventstream.Headers, name string) string {
	v, ok := h.Get(name).(eventstream.StringValue)
	if !ok {
		return ""
	}
	return string(v)
}
