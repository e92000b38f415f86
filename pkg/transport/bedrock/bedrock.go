// Package bedrock implements the AWS Bedrock transport on top of the AWS SDK
// runtime client.
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/papercomputeco/relay/pkg/transport"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

const (
	contentTypeJSON = "application/json"

	// credentialProbeTimeout bounds the default credential chain lookup made
	// at construction.
	credentialProbeTimeout = 5 * time.Second
)

// Config configures the Bedrock SDK transport. When AccessKeyID and
// SecretAccessKey are empty the default AWS credential chain is used.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Endpoint overrides the Bedrock runtime endpoint.
	Endpoint string
}

// Transport calls Bedrock InvokeModel and InvokeModelWithResponseStream.
type Transport struct {
	client *bedrockruntime.Client
}

var _ transport.Transport = (*Transport)(nil)

// New builds the SDK client. SDK retries are disabled: one call per
// invocation.
func New(ctx context.Context, cfg Config) (*Transport, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	awsCfg, err := loadConfig(ctx, region, cfg)
	if err != nil {
		return nil, err
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Transport{client: client}, nil
}

func loadConfig(ctx context.Context, region string, cfg Config) (aws.Config, error) {
	noRetry := func() aws.Retryer { return aws.NopRetryer{} }

	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return aws.Config{}, fmt.Errorf("aws access key id and secret access key must both be set: %w", transport.ErrMissingCredentials)
		}

		return aws.Config{
			Region: region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
			),
			Retryer: noRetry,
		}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryer(noRetry),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, credentialProbeTimeout)
	defer cancel()
	if awsCfg.Credentials == nil {
		return aws.Config{}, fmt.Errorf("no aws credential provider: %w", transport.ErrMissingCredentials)
	}
	if _, err := awsCfg.Credentials.Retrieve(probeCtx); err != nil {
		return aws.Config{}, fmt.Errorf("resolving aws credentials: %w: %w", transport.ErrMissingCredentials, err)
	}

	return awsCfg, nil
}

// Name implements transport.Transport.
func (t *Transport) Name() string { return transport.Bedrock }

// Invoke implements transport.Transport.
func (t *Transport) Invoke(ctx context.Context, inv *transport.Invocation) ([]byte, error) {
	payload, err := transport.BedrockPayload(transport.Bedrock, inv)
	if err != nil {
		return nil, err
	}

	out, err := t.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(inv.Model),
		Body:        payload,
		ContentType: aws.String(contentTypeJSON),
		Accept:      aws.String(contentTypeJSON),
	})
	if err != nil {
		return nil, vendorError(err)
	}

	return out.Body, nil
}

// InvokeStream implements transport.Transport.
func (t *Transport) InvokeStream(ctx context.Context, inv *transport.Invocation) (transport.Stream, error) {
	payload, err := transport.BedrockPayload(transport.Bedrock, inv)
	if err != nil {
		return nil, err
	}

	out, err := t.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(inv.Model),
		Body:        payload,
		ContentType: aws.String(contentTypeJSON),
		Accept:      aws.String(contentTypeJSON),
	})
	if err != nil {
		return nil, vendorError(err)
	}

	es := out.GetStream()
	return &stream{es: es, events: es.Events()}, nil
}

type stream struct {
	es     *bedrockruntime.InvokeModelWithResponseStreamEventStream
	events <-chan types.ResponseStream
}

func (s *stream) Next() ([]byte, error) {
	for ev := range s.events {
		if chunk, ok := ev.(*types.ResponseStreamMemberChunk); ok {
			return chunk.Value.Bytes, nil
		}
	}

	if err := s.es.Err(); err != nil {
		return nil, vendorError(err)
	}
	return nil, io.EOF
}

func (s *stream) Close() error {
	return s.es.Close()
}

// vendorError maps an SDK error carrying an HTTP response to a
// transport.VendorError. Other errors pass through unchanged.
func vendorError(err error) error {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return &transport.VendorError{
			Transport:  transport.Bedrock,
			StatusCode: re.HTTPStatusCode(),
			Body:       err.Error(),
		}
	}
	return err
}
