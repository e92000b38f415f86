package config

const (
	defaultListen       = ":8080"
	defaultModel        = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	defaultStreamFormat = "text"

	defaultStorageDriver = "sqlite"

	defaultBedrockRegion    = "us-east-1"
	defaultBedrockTransport = "bedrock"

	defaultEventsPublisher = "nop"
	defaultKafkaTopic      = "relay.turns"

	defaultNumWorkers = 3
	defaultQueueSize  = 256

	defaultClientTarget = "http://localhost:8080"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen:       defaultListen,
			DefaultModel: defaultModel,
			StreamFormat: defaultStreamFormat,
			EnableMCP:    true,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Bedrock: BedrockConfig{
			Region:    defaultBedrockRegion,
			Transport: defaultBedrockTransport,
		},
		Events: EventsConfig{
			Publisher:  defaultEventsPublisher,
			KafkaTopic: defaultKafkaTopic,
		},
		Worker: WorkerConfig{
			NumWorkers: defaultNumWorkers,
			QueueSize:  defaultQueueSize,
		},
		Client: ClientConfig{
			Target: defaultClientTarget,
		},
	}
}
