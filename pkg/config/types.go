package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent relay configuration stored as config.toml
// in the .relay/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Bedrock  BedrockConfig  `toml:"bedrock"`
	Vendors  VendorsConfig  `toml:"vendors"`
	Events   EventsConfig   `toml:"events"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Workflow WorkflowConfig `toml:"workflow"`
	Worker   WorkerConfig   `toml:"worker"`
	Client   ClientConfig   `toml:"client"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen       string `toml:"listen,omitempty"`
	DefaultModel string `toml:"default_model,omitempty"`

	// StreamFormat is "text" or "sse".
	StreamFormat string `toml:"stream_format,omitempty"`
	EnableMCP    bool   `toml:"enable_mcp"`
}

// StorageConfig selects and configures the storage driver.
type StorageConfig struct {
	// Driver is one of "memory", "sqlite", "postgres".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// BedrockConfig holds Bedrock routing settings. Keys come from the
// environment or credentials.toml, never from config.toml.
type BedrockConfig struct {
	Region string `toml:"region,omitempty"`

	// Transport is the default transport for Bedrock models: "bedrock" (SDK)
	// or "bedrock-signed" (direct SigV4 HTTPS).
	Transport string `toml:"transport,omitempty"`
	Endpoint  string `toml:"endpoint,omitempty"`
}

// VendorsConfig overrides vendor API base URLs.
type VendorsConfig struct {
	AnthropicBaseURL string `toml:"anthropic_base_url,omitempty"`
	OpenAIBaseURL    string `toml:"openai_base_url,omitempty"`
}

// EventsConfig configures turn event publishing.
type EventsConfig struct {
	// Publisher is "nop" or "kafka".
	Publisher    string `toml:"publisher,omitempty"`
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// CatalogConfig holds model catalog settings.
type CatalogConfig struct {
	// PricingPath is a JSON or YAML price override file, watched for changes.
	PricingPath string `toml:"pricing_path,omitempty"`
}

// WorkflowConfig holds workflow settings.
type WorkflowConfig struct {
	// TemplatesPath is a YAML file of additional workflow templates.
	TemplatesPath string `toml:"templates_path,omitempty"`
}

// WorkerConfig sizes the async recording pool.
type WorkerConfig struct {
	NumWorkers uint `toml:"num_workers,omitempty"`
	QueueSize  uint `toml:"queue_size,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running relay
// server (e.g. relay chat). Target is a full URL (scheme + host + port).
type ClientConfig struct {
	Target string `toml:"target,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// oneOfKey restricts a string key to a fixed set of values.
func oneOfKey(name string, field func(c *Config) *string, allowed ...string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			for _, a := range allowed {
				if v == a {
					*field(c) = v
					return nil
				}
			}
			return fmt.Errorf("invalid value for %s: %q (allowed: %v)", name, v, allowed)
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen":        stringKey(func(c *Config) *string { return &c.Server.Listen }),
	"server.default_model": stringKey(func(c *Config) *string { return &c.Server.DefaultModel }),
	"server.stream_format": oneOfKey("server.stream_format",
		func(c *Config) *string { return &c.Server.StreamFormat }, "text", "sse"),
	"server.enable_mcp": boolKey("server.enable_mcp", func(c *Config) *bool { return &c.Server.EnableMCP }),

	"storage.driver": oneOfKey("storage.driver",
		func(c *Config) *string { return &c.Storage.Driver }, "memory", "sqlite", "postgres"),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"bedrock.region": stringKey(func(c *Config) *string { return &c.Bedrock.Region }),
	"bedrock.transport": oneOfKey("bedrock.transport",
		func(c *Config) *string { return &c.Bedrock.Transport }, "bedrock", "bedrock-signed"),
	"bedrock.endpoint": stringKey(func(c *Config) *string { return &c.Bedrock.Endpoint }),

	"vendors.anthropic_base_url": stringKey(func(c *Config) *string { return &c.Vendors.AnthropicBaseURL }),
	"vendors.openai_base_url":    stringKey(func(c *Config) *string { return &c.Vendors.OpenAIBaseURL }),

	"events.publisher": oneOfKey("events.publisher",
		func(c *Config) *string { return &c.Events.Publisher }, "nop", "kafka"),
	"events.kafka_brokers": stringKey(func(c *Config) *string { return &c.Events.KafkaBrokers }),
	"events.kafka_topic":   stringKey(func(c *Config) *string { return &c.Events.KafkaTopic }),

	"catalog.pricing_path": stringKey(func(c *Config) *string { return &c.Catalog.PricingPath }),

	"workflow.templates_path": stringKey(func(c *Config) *string { return &c.Workflow.TemplatesPath }),

	"worker.num_workers": uintKey("worker.num_workers", func(c *Config) *uint { return &c.Worker.NumWorkers }),
	"worker.queue_size":  uintKey("worker.queue_size", func(c *Config) *uint { return &c.Worker.QueueSize }),

	"client.target": stringKey(func(c *Config) *string { return &c.Client.Target }),
}
