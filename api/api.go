package api

import (
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/queue"
)

// Server is the HTTP server for managing and querying the graphmem system
type Server struct {
	config  Config
	queue   *queue.Manager
	service *graph.Service
	logger  *zap.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The queue manager and graph service
// are injected so they can be shared with the MCP tool handlers. When
// mcpHandler is non-nil it is mounted at /mcp.
func NewServer(config Config, manager *queue.Manager, service *graph.Service, mcpHandler http.Handler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		queue:   manager,
		service: service,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/status", s.handleStatus)
	app.Get("/queues", s.handleListQueues)
	app.Get("/queues/:group", s.handleGetQueue)

	if mcpHandler != nil {
		app.All("/mcp", s.requireAuth, adaptor.HTTPHandler(mcpHandler))
		app.All("/mcp/*", s.requireAuth, adaptor.HTTPHandler(mcpHandler))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
