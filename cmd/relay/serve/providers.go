package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/wire"

	"github.com/papercomputeco/relay/api/mcp"
	"github.com/papercomputeco/relay/cmd/relay/sqlitepath"
	"github.com/papercomputeco/relay/pkg/catalog"
	"github.com/papercomputeco/relay/pkg/chat"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/credentials"
	"github.com/papercomputeco/relay/pkg/eventstream"
	"github.com/papercomputeco/relay/pkg/eventstream/kafka"
	"github.com/papercomputeco/relay/pkg/eventstream/nop"
	"github.com/papercomputeco/relay/pkg/storage"
	"github.com/papercomputeco/relay/pkg/storage/inmemory"
	"github.com/papercomputeco/relay/pkg/storage/postgres"
	"github.com/papercomputeco/relay/pkg/storage/sqlite"
	"github.com/papercomputeco/relay/pkg/transport"
	"github.com/papercomputeco/relay/pkg/transport/anthropic"
	"github.com/papercomputeco/relay/pkg/transport/bedrock"
	"github.com/papercomputeco/relay/pkg/transport/bedrocksigned"
	"github.com/papercomputeco/relay/pkg/transport/openai"
	"github.com/papercomputeco/relay/pkg/workflow"
	"github.com/papercomputeco/relay/server"
	"github.com/papercomputeco/relay/server/worker"
)

// ConfigDir is the --config-dir override.
type ConfigDir string

var providerSet = wire.NewSet(
	provideVendor,
	provideRegistry,
	provideChatService,
	provideDriver,
	providePublisher,
	provideCatalog,
	provideWorkflows,
	providePool,
	provideMCP,
	provideServer,
	wire.Struct(new(app), "*"),
)

// app is the assembled server with the resources it owns.
type app struct {
	Server    *server.Server
	Catalog   *catalog.Catalog
	Driver    storage.Driver
	Publisher eventstream.Publisher
}

func provideVendor(dir ConfigDir) (credentials.Vendor, error) {
	mgr, err := credentials.NewManager(string(dir))
	if err != nil {
		return credentials.Vendor{}, fmt.Errorf("loading credentials: %w", err)
	}
	return mgr.Resolve()
}

// provideRegistry builds every transport. Constructor errors are kept in
// the registry so one missing credential does not stop the server.
func provideRegistry(ctx context.Context, cfg *config.Config, vendor credentials.Vendor, log *slog.Logger) *transport.Registry {
	reg := transport.NewRegistry(cfg.Bedrock.Transport)

	br, err := bedrock.New(ctx, bedrock.Config{
		Region:          cfg.Bedrock.Region,
		AccessKeyID:     vendor.AWS.AccessKeyID,
		SecretAccessKey: vendor.AWS.SecretAccessKey,
		SessionToken:    vendor.AWS.SessionToken,
		Endpoint:        cfg.Bedrock.Endpoint,
	})
	reg.Register(transport.Bedrock, br, err)

	signed, err := bedrocksigned.New(bedrocksigned.Config{
		Region:          cfg.Bedrock.Region,
		AccessKeyID:     vendor.AWS.AccessKeyID,
		SecretAccessKey: vendor.AWS.SecretAccessKey,
		SessionToken:    vendor.AWS.SessionToken,
		Endpoint:        cfg.Bedrock.Endpoint,
	})
	reg.Register(transport.BedrockSigned, signed, err)

	an, err := anthropic.New(anthropic.Config{
		APIKey:  vendor.AnthropicAPIKey,
		BaseURL: cfg.Vendors.AnthropicBaseURL,
	})
	reg.Register(transport.Anthropic, an, err)

	oa, err := openai.New(openai.Config{
		APIKey:  vendor.OpenAIAPIKey,
		BaseURL: cfg.Vendors.OpenAIBaseURL,
	})
	reg.Register(transport.OpenAI, oa, err)

	for name, err := range reg.Errors() {
		log.Warn("transport unavailable", "transport", name, "error", err)
	}

	return reg
}

func provideChatService(reg *transport.Registry, log *slog.Logger) *chat.Service {
	return chat.NewService(reg, log)
}

func provideDriver(ctx context.Context, cfg *config.Config, dir ConfigDir, log *slog.Logger) (storage.Driver, func(), error) {
	var (
		driver storage.Driver
		err    error
	)

	switch cfg.Storage.Driver {
	case "memory":
		log.Info("using in-memory storage")
		driver = inmemory.NewDriver()
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
		log.Info("using PostgreSQL storage")
		driver, err = postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
	default:
		var path string
		path, err = sqlitepath.ResolveSQLitePath(cfg.Storage.SQLitePath, string(dir))
		if err != nil {
			return nil, nil, err
		}
		log.Info("using SQLite storage", "path", path)
		driver, err = sqlite.NewDriver(ctx, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}

	cleanup := func() {
		if err := driver.Close(); err != nil {
			log.Warn("closing storage failed", "error", err)
		}
	}
	return driver, cleanup, nil
}

func providePublisher(cfg *config.Config, log *slog.Logger) (eventstream.Publisher, func(), error) {
	var pub eventstream.Publisher

	switch cfg.Events.Publisher {
	case "kafka":
		brokers := splitList(cfg.Events.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, nil, fmt.Errorf("events.kafka_brokers is required for the kafka publisher")
		}
		kp, err := kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   cfg.Events.KafkaTopic,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		log.Info("publishing turn events to kafka", "brokers", brokers, "topic", cfg.Events.KafkaTopic)
		pub = kp
	default:
		pub = nop.NewPublisher(log)
	}

	cleanup := func() {
		if err := pub.Close(); err != nil {
			log.Warn("closing publisher failed", "error", err)
		}
	}
	return pub, cleanup, nil
}

// provideCatalog loads the built-in catalog and starts the pricing watcher
// when a pricing file is configured. The watcher stops with ctx.
func provideCatalog(ctx context.Context, cfg *config.Config, log *slog.Logger) (*catalog.Catalog, error) {
	c, err := catalog.DefaultWithPricing(cfg.Catalog.PricingPath)
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.PricingPath == "" {
		return c, nil
	}

	if err := c.WatchPricing(ctx, cfg.Catalog.PricingPath, log); err != nil {
		return nil, fmt.Errorf("watching pricing file: %w", err)
	}
	return c, nil
}

func provideWorkflows(cfg *config.Config) (*workflow.Library, error) {
	lib := workflow.NewLibrary(workflow.Builtin()...)
	if cfg.Workflow.TemplatesPath == "" {
		return lib, nil
	}

	templates, err := workflow.LoadTemplates(cfg.Workflow.TemplatesPath)
	if err != nil {
		return nil, err
	}
	lib.Add(templates...)
	return lib, nil
}

// providePool starts the recording workers. The server drains the pool on
// Close.
func providePool(cfg *config.Config, driver storage.Driver, c *catalog.Catalog, pub eventstream.Publisher, log *slog.Logger) (*worker.Pool, error) {
	return worker.NewPool(&worker.Config{
		Driver:     driver,
		Catalog:    c,
		Publisher:  pub,
		NumWorkers: cfg.Worker.NumWorkers,
		QueueSize:  cfg.Worker.QueueSize,
		Logger:     log,
	})
}

func provideMCP(cfg *config.Config, svc *chat.Service, c *catalog.Catalog, log *slog.Logger) (*mcp.Server, error) {
	return mcp.NewServer(mcp.Config{
		Completer:    svc,
		Catalog:      c,
		DefaultModel: cfg.Server.DefaultModel,
		Noop:         !cfg.Server.EnableMCP,
		Logger:       log,
	})
}

func provideServer(
	cfg *config.Config,
	svc *chat.Service,
	c *catalog.Catalog,
	driver storage.Driver,
	workflows *workflow.Library,
	pool *worker.Pool,
	mcpServer *mcp.Server,
	log *slog.Logger,
) (*server.Server, error) {
	return server.New(server.Config{
		ListenAddr:   cfg.Server.Listen,
		DefaultModel: cfg.Server.DefaultModel,
		StreamFormat: cfg.Server.StreamFormat,
		EnableMCP:    cfg.Server.EnableMCP,
	}, server.Dependencies{
		Chat:      svc,
		Catalog:   c,
		Driver:    driver,
		Workflows: workflows,
		Pool:      pool,
		MCP:       mcpServer,
	}, log)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
