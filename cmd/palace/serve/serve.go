// Package servecmder provides the serve command that runs the palace
// service: graph driver, embedder, event publisher, HTTP API, and MCP
// server wired together.
package servecmder

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RationallyPrime/found-family/api"
	"github.com/RationallyPrime/found-family/api/mcp"
	"github.com/RationallyPrime/found-family/pkg/config"
	"github.com/RationallyPrime/found-family/pkg/embeddings/voyage"
	"github.com/RationallyPrime/found-family/pkg/eventstream"
	"github.com/RationallyPrime/found-family/pkg/eventstream/kafka"
	"github.com/RationallyPrime/found-family/pkg/eventstream/nop"
	"github.com/RationallyPrime/found-family/pkg/graph/neo4j"
	"github.com/RationallyPrime/found-family/pkg/logger"
	"github.com/RationallyPrime/found-family/pkg/memory"
)

type serveCommander struct {
	listen        string
	mcpListen     string
	graphURI      string
	graphUser     string
	graphPassword string
	graphDatabase string
	vectorIndex   string
	embeddingTgt  string
	embeddingMdl  string
	embeddingDims uint
	eventsBrokers []string
	eventsTopic   string

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const serveLongDesc string = `Run the palace service.

Starts the HTTP API for storing and recalling memories, plus the MCP
server exposing the same memory graph as tools.`

const serveShortDesc string = "Run the palace service"

// serveFlagKeys lists every registry flag the serve command registers,
// in the order they are bound to viper.
var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagMCPListen,
	config.FlagGraphURI,
	config.FlagGraphUser,
	config.FlagGraphPassword,
	config.FlagGraphDatabase,
	config.FlagVectorIndex,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v := config.InitViper()
			config.BindRegisteredFlags(v, cmd, config.ServeFlags, serveFlagKeys)
			cmder.cfg = config.Resolve(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	fs := config.ServeFlags
	config.AddStringFlag(cmd, fs, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagMCPListen, &cmder.mcpListen)
	config.AddStringFlag(cmd, fs, config.FlagGraphURI, &cmder.graphURI)
	config.AddStringFlag(cmd, fs, config.FlagGraphUser, &cmder.graphUser)
	config.AddStringFlag(cmd, fs, config.FlagGraphPassword, &cmder.graphPassword)
	config.AddStringFlag(cmd, fs, config.FlagGraphDatabase, &cmder.graphDatabase)
	config.AddStringFlag(cmd, fs, config.FlagVectorIndex, &cmder.vectorIndex)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embeddingMdl)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringSliceFlag(cmd, fs, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, fs, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *serveCommander) run() error {
	cfg := c.cfg
	c.logger = logger.NewLogger(c.debug || cfg.Debug)
	defer c.logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Graph driver
	graphDriver, err := neo4j.NewDriver(ctx, neo4j.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("connecting to graph: %w", err)
	}
	defer graphDriver.Close(context.Background())

	// Vector index: create when missing, then snapshot dimensionality so
	// the similarity planner can guard against mismatched vectors.
	if err := graphDriver.EnsureVectorIndex(
		ctx,
		cfg.Graph.VectorIndex,
		memory.LabelMemory,
		"embedding",
		cfg.Embedding.Dimensions,
	); err != nil {
		return fmt.Errorf("ensuring vector index: %w", err)
	}

	indexMeta, err := graphDriver.FetchIndexDimensions(ctx)
	if err != nil {
		return fmt.Errorf("fetching index dimensions: %w", err)
	}

	// Embedder
	embedder, err := voyage.NewEmbedder(voyage.EmbedderConfig{
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.Target,
		Model:   cfg.Embedding.Model,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	// Event publisher
	publisher, err := c.newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Memory service
	memories := memory.NewService(memory.Config{
		IndexName: cfg.Graph.VectorIndex,
		IndexMeta: indexMeta,
	}, graphDriver, embedder, publisher, c.logger)

	// HTTP API
	apiServer := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
	}, memories, c.logger)

	// MCP server
	mcpServer, err := mcp.NewServer(mcp.Config{
		Memories: memories,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	mcpMux := http.NewServeMux()
	mcpMux.Handle("/mcp", mcpServer.Handler())
	mcpHTTP := &http.Server{
		Addr:              cfg.API.MCPListen,
		Handler:           mcpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	go func() {
		c.logger.Info("starting MCP server",
			zap.String("listen", cfg.API.MCPListen),
		)
		if err := mcpHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		_ = apiServer.Shutdown()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = mcpHTTP.Shutdown(shutdownCtx)
		return nil
	}
}

// newPublisher returns the Kafka publisher when brokers are configured,
// the no-op publisher otherwise.
func (c *serveCommander) newPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	if len(cfg.Events.Brokers) == 0 {
		c.logger.Info("event publishing disabled: no brokers configured")
		return nop.NewPublisher(), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	return publisher, nil
}
