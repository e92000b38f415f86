// Package server exposes relay over HTTP: chat and invoke calls routed to
// vendor transports, the model catalog, cost estimates, workflows,
// comparisons, conversations, usage, and per-model parameters.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/tidwall/gjson"

	"github.com/papercomputeco/relay/api/mcp"
	"github.com/papercomputeco/relay/pkg/catalog"
	"github.com/papercomputeco/relay/pkg/chat"
	"github.com/papercomputeco/relay/pkg/compare"
	"github.com/papercomputeco/relay/pkg/storage"
	"github.com/papercomputeco/relay/pkg/workflow"
	"github.com/papercomputeco/relay/server/header"
	"github.com/papercomputeco/relay/server/worker"
)

// Dependencies are the collaborators the server is built from.
type Dependencies struct {
	Chat      *chat.Service
	Catalog   *catalog.Catalog
	Driver    storage.Driver
	Workflows *workflow.Library

	// Pool records finished turns. Optional.
	Pool *worker.Pool

	// MCP is mounted at /mcp when Config.EnableMCP is set.
	MCP *mcp.Server
}

// Server is the relay HTTP server.
type Server struct {
	config        Config
	chat          *chat.Service
	catalog       *catalog.Catalog
	driver        storage.Driver
	workflows     *workflow.Library
	runner        *workflow.Runner
	comparer      *compare.Comparer
	workerPool    *worker.Pool
	schemas       *schemas
	headerHandler *header.Handler
	logger        *slog.Logger
	server        *fiber.App
}

// New creates a new Server and registers its routes.
func New(config Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if deps.Chat == nil {
		return nil, errors.New("chat service is required")
	}
	if deps.Driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Workflows == nil {
		deps.Workflows = workflow.NewLibrary(workflow.Builtin()...)
	}
	if config.StreamFormat == "" {
		config.StreamFormat = StreamFormatText
	}
	if config.StreamFormat != StreamFormatText && config.StreamFormat != StreamFormatSSE {
		return nil, fmt.Errorf("unknown stream format %q", config.StreamFormat)
	}

	compiled, err := compileSchemas()
	if err != nil {
		return nil, fmt.Errorf("compiling request schemas: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Streamed bodies are written through a pipe chunk by chunk; compressing
	// them would buffer deltas until the encoder flushes.
	app.Use(compress.New(compress.Config{
		Next: isStreamingRequest,
	}))

	s := &Server{
		config:        config,
		chat:          deps.Chat,
		catalog:       deps.Catalog,
		driver:        deps.Driver,
		workflows:     deps.Workflows,
		runner:        workflow.NewRunner(deps.Chat, logger),
		comparer:      compare.New(deps.Chat, deps.Catalog, compare.DefaultConcurrency),
		workerPool:    deps.Pool,
		schemas:       compiled,
		headerHandler: header.NewHandler(),
		logger:        logger,
		server:        app,
	}

	app.Get("/ping", s.handlePing)

	api := app.Group("/api")
	api.Post("/chat", s.handleChat)
	api.Post("/invoke", s.handleInvoke)

	api.Get("/models", s.handleListModels)
	api.Get("/models/:id", s.handleGetModel)
	api.Post("/cost/estimate", s.handleEstimateCost)

	api.Get("/workflow/templates", s.handleListTemplates)
	api.Post("/workflow", s.handleRunWorkflow)
	api.Post("/compare", s.handleCompare)

	api.Get("/conversations", s.handleListConversations)
	api.Post("/conversations", s.handleSaveConversation)
	api.Get("/conversations/:id", s.handleGetConversation)
	api.Delete("/conversations/:id", s.handleDeleteConversation)
	api.Get("/conversations/:id/export", s.handleExportConversation)

	api.Get("/usage", s.handleListUsage)
	api.Get("/usage/summary", s.handleUsageSummary)
	api.Delete("/usage", s.handleClearUsage)

	api.Get("/parameters/:model", s.handleGetParameters)
	api.Put("/parameters/:model", s.handleSaveParameters)
	api.Delete("/parameters/:model", s.handleResetParameters)

	if config.EnableMCP && deps.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(deps.MCP.Handler()))
	}

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting relay server",
		"listen", s.config.ListenAddr,
		"transports", s.chat.Registry().Names(),
	)
	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting relay server",
		"listen", listener.Addr().String(),
		"transports", s.chat.Registry().Names(),
	)
	return s.server.Listener(listener)
}

// Close shuts the HTTP server down, then drains the worker pool.
func (s *Server) Close() error {
	err := s.server.Shutdown()
	if s.workerPool != nil {
		s.workerPool.Close()
	}
	return err
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// isStreamingRequest reports whether the request body asks for a stream.
func isStreamingRequest(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodPost {
		return false
	}
	return gjson.GetBytes(c.Body(), "stream").Bool()
}
