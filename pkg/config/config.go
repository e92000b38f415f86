package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/relay/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// No .relay/ directory: LoadConfig returns defaults and SaveConfig
	// errors clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// keyOrder is the listing order of config keys, matching the TOML layout.
var keyOrder = []string{
	"server.listen",
	"server.default_model",
	"server.stream_format",
	"server.enable_mcp",
	"storage.driver",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"bedrock.region",
	"bedrock.transport",
	"bedrock.endpoint",
	"vendors.anthropic_base_url",
	"vendors.openai_base_url",
	"events.publisher",
	"events.kafka_brokers",
	"events.kafka_topic",
	"catalog.pricing_path",
	"workflow.templates_path",
	"worker.num_workers",
	"worker.queue_size",
	"client.target",
}

// ValidConfigKeys returns every supported configuration key in a stable order.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range keyOrder {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	var rest []string
	for k := range configKeys {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	// Keep output deterministic for keys missing from keyOrder.
	slices.Sort(rest)

	return append(result, rest...)
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .relay/ directory. A missing
// file yields NewDefaultConfig(); keys present in the file override the
// defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills string and numeric fields left empty in cfg.
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fillUint := func(dst *uint, def uint) {
		if *dst == 0 {
			*dst = def
		}
	}

	fill(&cfg.Server.Listen, d.Server.Listen)
	fill(&cfg.Server.DefaultModel, d.Server.DefaultModel)
	fill(&cfg.Server.StreamFormat, d.Server.StreamFormat)

	fill(&cfg.Storage.Driver, d.Storage.Driver)

	fill(&cfg.Bedrock.Region, d.Bedrock.Region)
	fill(&cfg.Bedrock.Transport, d.Bedrock.Transport)

	fill(&cfg.Events.Publisher, d.Events.Publisher)
	fill(&cfg.Events.KafkaTopic, d.Events.KafkaTopic)

	fillUint(&cfg.Worker.NumWorkers, d.Worker.NumWorkers)
	fillUint(&cfg.Worker.QueueSize, d.Worker.QueueSize)

	fill(&cfg.Client.Target, d.Client.Target)
}

// SaveConfig persists the configuration to config.toml in the target .relay/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with defaults for the named routing preset.
// Supported presets: "bedrock", "anthropic", "openai".
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "bedrock":
		return cfg, nil

	case "anthropic":
		cfg.Server.DefaultModel = "claude-3-5-sonnet-20241022"
		cfg.Vendors.AnthropicBaseURL = "https://api.anthropic.com"
		return cfg, nil

	case "openai":
		cfg.Server.DefaultModel = "gpt-4o"
		cfg.Vendors.OpenAIBaseURL = "https://api.openai.com"
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"bedrock", "anthropic", "openai"}
}

// ParseConfigTOML parses raw TOML bytes on top of NewDefaultConfig(), so
// keys absent from the file, booleans included, keep their defaults.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
