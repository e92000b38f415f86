// Package servecmder provides the serve command that runs the relay server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/logger"
)

type ServeCommander struct {
	flags     config.Config
	configDir string
	debug     bool
	jsonLogs  bool
	logLevel  string
	logFile   string
	envFile   string
}

const serveLongDesc string = `Run the relay server.

The server accepts chat and invoke calls, routes them to Bedrock, Anthropic,
or OpenAI, and streams the vendor output back. Conversations, usage, and
per-model parameters are stored in the configured storage driver.

Configuration is read from config.toml in the .relay/ directory, then
RELAY_* environment variables, then flags. Vendor secrets come from
"relay auth" or the usual environment variables (AWS_ACCESS_KEY_ID,
ANTHROPIC_API_KEY, OPENAI_API_KEY). A .env file in the working directory
is loaded first when present.

Examples:
  relay serve
  relay serve --listen :9000 --storage memory
  relay serve --bedrock-transport bedrock-signed --region us-west-2
  relay serve --publisher kafka --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the relay server"

var serveFlags = config.FlagSet{
	config.FlagListen:       {Name: "listen", Shorthand: "l", ViperKey: "server.listen", Description: "Address for the relay server to listen on"},
	config.FlagModel:        {Name: "model", Shorthand: "m", ViperKey: "server.default_model", Description: "Model used when a request names none"},
	config.FlagStreamFormat: {Name: "stream-format", ViperKey: "server.stream_format", Description: "Default stream framing (text, sse)"},
	config.FlagEnableMCP:    {Name: "mcp", ViperKey: "server.enable_mcp", Description: "Serve the MCP endpoint at /mcp"},
	config.FlagStorage:      {Name: "storage", ViperKey: "storage.driver", Description: "Storage driver (memory, sqlite, postgres)"},
	config.FlagSQLite:       {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to SQLite database (default: .relay/relay.db)"},
	config.FlagPostgresDSN:  {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	config.FlagRegion:       {Name: "region", Shorthand: "r", ViperKey: "bedrock.region", Description: "AWS region for Bedrock"},
	config.FlagBedrockTrans: {Name: "bedrock-transport", ViperKey: "bedrock.transport", Description: "Default Bedrock transport (bedrock, bedrock-signed)"},
	config.FlagPublisher:    {Name: "publisher", ViperKey: "events.publisher", Description: "Turn event publisher (nop, kafka)"},
	config.FlagKafkaBrokers: {Name: "kafka-brokers", ViperKey: "events.kafka_brokers", Description: "Comma separated Kafka brokers"},
	config.FlagKafkaTopic:   {Name: "kafka-topic", ViperKey: "events.kafka_topic", Description: "Kafka topic for turn events"},
	config.FlagPricing:      {Name: "pricing", ViperKey: "catalog.pricing_path", Description: "TOML pricing overrides, reloaded on change"},
	config.FlagTemplates:    {Name: "templates", ViperKey: "workflow.templates_path", Description: "YAML workflow templates file"},
	config.FlagWorkers:      {Name: "workers", ViperKey: "worker.num_workers", Description: "Number of recording workers"},
	config.FlagQueueSize:    {Name: "queue-size", ViperKey: "worker.queue_size", Description: "Recording job queue capacity"},
}

var serveStringFlags = []string{
	config.FlagListen,
	config.FlagModel,
	config.FlagStreamFormat,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagRegion,
	config.FlagBedrockTrans,
	config.FlagPublisher,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagPricing,
	config.FlagTemplates,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := cmder.resolveConfig(cmd)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg)
		},
	}

	targets := map[string]*string{
		config.FlagListen:       &cmder.flags.Server.Listen,
		config.FlagModel:        &cmder.flags.Server.DefaultModel,
		config.FlagStreamFormat: &cmder.flags.Server.StreamFormat,
		config.FlagStorage:      &cmder.flags.Storage.Driver,
		config.FlagSQLite:       &cmder.flags.Storage.SQLitePath,
		config.FlagPostgresDSN:  &cmder.flags.Storage.PostgresDSN,
		config.FlagRegion:       &cmder.flags.Bedrock.Region,
		config.FlagBedrockTrans: &cmder.flags.Bedrock.Transport,
		config.FlagPublisher:    &cmder.flags.Events.Publisher,
		config.FlagKafkaBrokers: &cmder.flags.Events.KafkaBrokers,
		config.FlagKafkaTopic:   &cmder.flags.Events.KafkaTopic,
		config.FlagPricing:      &cmder.flags.Catalog.PricingPath,
		config.FlagTemplates:    &cmder.flags.Workflow.TemplatesPath,
	}
	for _, key := range serveStringFlags {
		config.AddStringFlag(cmd, serveFlags, key, targets[key])
	}
	config.AddBoolFlag(cmd, serveFlags, config.FlagEnableMCP, &cmder.flags.Server.EnableMCP)
	config.AddUintFlag(cmd, serveFlags, config.FlagWorkers, &cmder.flags.Worker.NumWorkers)
	config.AddUintFlag(cmd, serveFlags, config.FlagQueueSize, &cmder.flags.Worker.QueueSize)

	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Write structured JSON logs")
	cmd.Flags().StringVar(&cmder.logLevel, "log-level", "", "Minimum log level (debug, info, warn, error); overrides --debug")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs with source locations to this file")
	cmd.Flags().StringVar(&cmder.envFile, "env-file", ".env", "Dotenv file loaded before resolving configuration")

	return cmd
}

// resolveConfig merges defaults, config.toml, RELAY_* env vars, and flags.
func (c *ServeCommander) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", c.envFile, err)
		}
	}

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return nil, err
	}

	keys := append([]string{config.FlagEnableMCP, config.FlagWorkers, config.FlagQueueSize}, serveStringFlags...)
	config.BindRegisteredFlags(v, cmd, serveFlags, keys)

	return config.FromViper(v), nil
}

// newLogger builds the console logger and, with --log-file, pairs it with a
// JSON file logger. The returned func closes the file.
func (c *ServeCommander) newLogger() (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if c.debug {
		level = slog.LevelDebug
	}
	if c.logLevel != "" {
		var err error
		if level, err = logger.ParseLevel(c.logLevel); err != nil {
			return nil, nil, err
		}
	}

	console := logger.New(
		logger.WithLevel(level),
		logger.WithJSON(c.jsonLogs),
		logger.WithPretty(!c.jsonLogs && cliui.IsTerminal(os.Stdout)),
	)
	if c.logFile == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(
		logger.WithLevel(level),
		logger.WithJSON(true),
		logger.WithSource(true),
		logger.WithWriter(f),
	)
	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

func (c *ServeCommander) run(ctx context.Context, cfg *config.Config) error {
	log, closeLog, err := c.newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		a       *app
		cleanup func()
	)
	err = cliui.Step(os.Stderr, "Starting relay", func() error {
		var err error
		a, cleanup, err = initializeApp(ctx, cfg, ConfigDir(c.configDir), log)
		return err
	})
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info("relay configured",
		"listen", cfg.Server.Listen,
		"storage", cfg.Storage.Driver,
		"bedrock_transport", cfg.Bedrock.Transport,
		"publisher", cfg.Events.Publisher,
		"models", len(a.Catalog.All()),
		"mcp", cfg.Server.EnableMCP,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := a.Server.Run(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
	}

	return a.Server.Close()
}
