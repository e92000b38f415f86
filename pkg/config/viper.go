package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/relay/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable relay reads its
// configuration from.
const EnvPrefix = "RELAY"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the RELAY_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (RELAY_SERVER_LISTEN, RELAY_STORAGE_DRIVER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the resolved configuration.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen:       v.GetString("server.listen"),
			DefaultModel: v.GetString("server.default_model"),
			StreamFormat: v.GetString("server.stream_format"),
			EnableMCP:    v.GetBool("server.enable_mcp"),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Bedrock: BedrockConfig{
			Region:    v.GetString("bedrock.region"),
			Transport: v.GetString("bedrock.transport"),
			Endpoint:  v.GetString("bedrock.endpoint"),
		},
		Vendors: VendorsConfig{
			AnthropicBaseURL: v.GetString("vendors.anthropic_base_url"),
			OpenAIBaseURL:    v.GetString("vendors.openai_base_url"),
		},
		Events: EventsConfig{
			Publisher:    v.GetString("events.publisher"),
			KafkaBrokers: v.GetString("events.kafka_brokers"),
			KafkaTopic:   v.GetString("events.kafka_topic"),
		},
		Catalog: CatalogConfig{
			PricingPath: v.GetString("catalog.pricing_path"),
		},
		Workflow: WorkflowConfig{
			TemplatesPath: v.GetString("workflow.templates_path"),
		},
		Worker: WorkerConfig{
			NumWorkers: v.GetUint("worker.num_workers"),
			QueueSize:  v.GetUint("worker.queue_size"),
		},
		Client: ClientConfig{
			Target: v.GetString("client.target"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.default_model", d.Server.DefaultModel)
	v.SetDefault("server.stream_format", d.Server.StreamFormat)
	v.SetDefault("server.enable_mcp", d.Server.EnableMCP)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("bedrock.region", d.Bedrock.Region)
	v.SetDefault("bedrock.transport", d.Bedrock.Transport)
	v.SetDefault("bedrock.endpoint", d.Bedrock.Endpoint)

	v.SetDefault("vendors.anthropic_base_url", d.Vendors.AnthropicBaseURL)
	v.SetDefault("vendors.openai_base_url", d.Vendors.OpenAIBaseURL)

	v.SetDefault("events.publisher", d.Events.Publisher)
	v.SetDefault("events.kafka_brokers", d.Events.KafkaBrokers)
	v.SetDefault("events.kafka_topic", d.Events.KafkaTopic)

	v.SetDefault("catalog.pricing_path", d.Catalog.PricingPath)
	v.SetDefault("workflow.templates_path", d.Workflow.TemplatesPath)

	v.SetDefault("worker.num_workers", d.Worker.NumWorkers)
	v.SetDefault("worker.queue_size", d.Worker.QueueSize)

	v.SetDefault("client.target", d.Client.Target)
}
