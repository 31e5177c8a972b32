package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RationallyPrime/found-family/pkg/memory"
)

// Memories is the surface of the memory service the API depends on.
type Memories interface {
	StoreTurn(ctx context.Context, in memory.StoreTurnInput) (*memory.Turn, error)
	Recall(ctx context.Context, opts memory.RecallOptions) (*memory.RecallResult, error)
	Forget(ctx context.Context, id uuid.UUID) error
}

// Server is the API server for storing and querying the memory graph
type Server struct {
	config   Config
	memories Memories
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The memory service is injected to allow sharing with other surfaces
// (e.g., the MCP server).
func NewServer(config Config, memories Memories, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		memories: memories,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/turns", s.handleStoreTurn)
	app.Post("/v1/recall", s.handleRecall)
	app.Delete("/v1/memories/:id", s.handleForget)

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
