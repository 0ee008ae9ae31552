// Package servecmder provides the serve command for running the graphmem
// memory server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/api"
	mcpapi "github.com/graphmemco/graphmem/api/mcp"
	"github.com/graphmemco/graphmem/pkg/config"
	"github.com/graphmemco/graphmem/pkg/embeddings"
	embeddingutils "github.com/graphmemco/graphmem/pkg/embeddings/utils"
	"github.com/graphmemco/graphmem/pkg/episodestore"
	"github.com/graphmemco/graphmem/pkg/episodestore/inmemory"
	"github.com/graphmemco/graphmem/pkg/episodestore/postgres"
	"github.com/graphmemco/graphmem/pkg/episodestore/sqlite"
	"github.com/graphmemco/graphmem/pkg/eventstream"
	kafkastream "github.com/graphmemco/graphmem/pkg/eventstream/kafka"
	"github.com/graphmemco/graphmem/pkg/eventstream/nop"
	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/graph/local"
	"github.com/graphmemco/graphmem/pkg/ingest"
	"github.com/graphmemco/graphmem/pkg/llm/provider"
	"github.com/graphmemco/graphmem/pkg/logger"
	"github.com/graphmemco/graphmem/pkg/queue"
	"github.com/graphmemco/graphmem/pkg/vector"
	"github.com/graphmemco/graphmem/pkg/vector/qdrant"
)

// serveFlags is the flag registry for the serve command. Each entry maps a
// registry key to its flag definition and the viper key it binds to.
var serveFlags = config.FlagSet{
	config.FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address for the server to listen on",
	},
	config.FlagSemaphoreLimit: {
		Name:        "semaphore-limit",
		ViperKey:    "graph.semaphore_limit",
		Description: "Maximum concurrent graph engine operations",
	},
	config.FlagGroupID: {
		Name:        "group-id",
		Shorthand:   "g",
		ViperKey:    "graph.default_group_id",
		Description: "Default group for requests that do not name one",
	},
	config.FlagLLMProvider: {
		Name:        "llm-provider",
		ViperKey:    "llm.provider",
		Description: "LLM provider for entity extraction (anthropic, openai, ollama)",
	},
	config.FlagLLMTarget: {
		Name:        "llm-target",
		ViperKey:    "llm.target",
		Description: "LLM provider URL override",
	},
	config.FlagLLMModel: {
		Name:        "llm-model",
		ViperKey:    "llm.model",
		Description: "LLM model for entity extraction",
	},
	config.FlagEmbeddingProv: {
		Name:        "embedding-provider",
		ViperKey:    "embedding.provider",
		Description: "Embedding provider (ollama, openai)",
	},
	config.FlagEmbeddingTgt: {
		Name:        "embedding-target",
		ViperKey:    "embedding.target",
		Description: "Embedding provider URL",
	},
	config.FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model",
	},
	config.FlagEmbeddingDims: {
		Name:        "embedding-dimensions",
		ViperKey:    "embedding.dimensions",
		Description: "Embedding vector dimensions",
	},
	config.FlagDatabaseProv: {
		Name:        "database-provider",
		ViperKey:    "database.provider",
		Description: "Episode store provider (memory, sqlite, postgres)",
	},
	config.FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "database.sqlite_path",
		Description: "Path to SQLite episode database",
	},
	config.FlagPostgres: {
		Name:        "postgres",
		ViperKey:    "database.postgres_dsn",
		Description: "Postgres connection string for the episode store",
	},
	config.FlagVectorStoreProv: {
		Name:        "vector-store-provider",
		ViperKey:    "vector_store.provider",
		Description: "Vector store provider (none, qdrant)",
	},
	config.FlagVectorStoreTgt: {
		Name:        "vector-store-target",
		ViperKey:    "vector_store.target",
		Description: "Vector store address (host:port)",
	},
	config.FlagEventsProvider: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Event stream provider (nop, kafka)",
	},
	config.FlagEventsBrokers: {
		Name:        "events-brokers",
		ViperKey:    "events.brokers",
		Description: "Kafka bootstrap brokers (comma-separated)",
	},
	config.FlagEventsTopic: {
		Name:        "events-topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for episode events",
	},
}

// serveFlagKeys lists every registry key the serve command binds.
var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagSemaphoreLimit,
	config.FlagGroupID,
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagLLMModel,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagDatabaseProv,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

type ServeCommander struct {
	listen         string
	semaphoreLimit uint
	groupID        string
	llmProvider    string
	llmTarget      string
	llmModel       string
	embProvider    string
	embTarget      string
	embModel       string
	embDims        uint
	dbProvider     string
	sqlitePath     string
	postgresDSN    string
	vsProvider     string
	vsTarget       string
	eventsProvider string
	eventsBrokers  string
	eventsTopic    string

	debug  bool
	viper  *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the graphmem memory server.

Serves the HTTP API and the MCP memory tools on a single listener:
  /mcp         MCP endpoint (streamable HTTP)
  /status      Engine and queue health
  /queues      Per-group ingestion queue state

Episodes submitted through add_memory are queued per group and processed
sequentially within each group; different groups process in parallel.

Configuration precedence: flags > environment (GRAPHMEM_*) > config.toml > defaults.`

const serveShortDesc string = "Run the graphmem memory server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)
			cmder.viper = v
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

	config.AddStringFlag(cmd, serveFlags, config.FlagListen, &cmder.listen)
	config.AddUintFlag(cmd, serveFlags, config.FlagSemaphoreLimit, &cmder.semaphoreLimit)
	config.AddStringFlag(cmd, serveFlags, config.FlagGroupID, &cmder.groupID)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMModel, &cmder.llmModel)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embModel)
	config.AddUintFlag(cmd, serveFlags, config.FlagEmbeddingDims, &cmder.embDims)
	config.AddStringFlag(cmd, serveFlags, config.FlagDatabaseProv, &cmder.dbProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreProv, &cmder.vsProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreTgt, &cmder.vsTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *ServeCommander) run() error {
	cfg := config.FromViper(c.viper)

	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	// Episode events
	publisher, err := c.newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Engine lifecycle manager. The engine itself (episode store, LLM,
	// embedder, vector index) is constructed lazily, on the first request
	// that needs it.
	service, err := graph.NewService(graph.ServiceConfig{
		Build: func(ctx context.Context) (graph.Engine, error) {
			return c.buildEngine(ctx, cfg)
		},
		SemaphoreLimit: int(cfg.Graph.SemaphoreLimit),
		Logger:         c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating graph service: %w", err)
	}
	defer service.Close()

	// Ingestion pipeline
	executor, err := ingest.NewExecutor(ingest.Config{
		Service:   service,
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating ingest executor: %w", err)
	}

	manager, err := queue.NewManager(queue.Config{
		Exec:   executor.Execute,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating queue manager: %w", err)
	}

	// MCP surface
	mcpServer, err := mcpapi.NewServer(mcpapi.Config{
		Queue:   manager,
		Service: service,
		GroupID: cfg.Graph.DefaultGroupID,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	// HTTP surface
	apiConfig := api.Config{
		ListenAddr: cfg.Server.Listen,
		AuthToken:  cfg.Server.AuthToken,
	}
	apiServer := api.NewServer(apiConfig, manager, service, mcpServer.Handler(), c.logger)

	c.logger.Info("starting graphmem server",
		zap.String("listen", cfg.Server.Listen),
		zap.String("database", cfg.Database.Provider),
		zap.String("vector_store", cfg.VectorStore.Provider),
		zap.String("events", cfg.Events.Provider),
		zap.Bool("llm_enabled", cfg.LLM.Enabled),
		zap.Bool("auth_enabled", cfg.Server.AuthToken != ""),
		zap.Uint("semaphore_limit", cfg.Graph.SemaphoreLimit),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

// buildEngine constructs the local graph engine and its backends. Invoked
// at most once, by the first request that needs the engine.
func (c *ServeCommander) buildEngine(ctx context.Context, cfg *config.Config) (graph.Engine, error) {
	store, err := c.newEpisodeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var llmClient provider.Client
	if cfg.LLM.Enabled {
		llmClient, err = provider.New(provider.Config{
			Type:    cfg.LLM.Provider,
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.Target,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("creating LLM client: %w", err)
		}
	}

	var embedder embeddings.Embedder
	var vectorDriver vector.Driver
	switch cfg.VectorStore.Provider {
	case "", "none":
	case "qdrant":
		embedder, err = embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: cfg.Embedding.Provider,
			TargetURL:    cfg.Embedding.Target,
			Model:        cfg.Embedding.Model,
			APIKey:       cfg.Embedding.APIKey,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("creating embedder: %w", err)
		}

		vectorDriver, err = qdrant.NewDriver(ctx, qdrant.Config{
			Target:     cfg.VectorStore.Target,
			Collection: cfg.VectorStore.Collection,
			Dimensions: cfg.Embedding.Dimensions,
		}, c.logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
	default:
		store.Close()
		return nil, fmt.Errorf("%w: vector store provider %q", graph.ErrUnsupportedProvider, cfg.VectorStore.Provider)
	}

	return local.NewEngine(local.Config{
		Store:    store,
		LLM:      llmClient,
		Embedder: embedder,
		Vector:   vectorDriver,
		Logger:   c.logger,
	})
}

func (c *ServeCommander) newEpisodeStore(ctx context.Context, cfg *config.Config) (episodestore.Driver, error) {
	switch cfg.Database.Provider {
	case "", "memory":
		c.logger.Info("using in-memory episode store")
		return inmemory.NewDriver(), nil
	case "sqlite":
		if cfg.Database.SQLitePath == "" {
			return nil, fmt.Errorf("database.sqlite_path is required for the sqlite provider")
		}
		driver, err := sqlite.NewDriver(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("creating SQLite episode store: %w", err)
		}
		c.logger.Info("using SQLite episode store", zap.String("path", cfg.Database.SQLitePath))
		return driver, nil
	case "postgres":
		if cfg.Database.PostgresDSN == "" {
			return nil, fmt.Errorf("database.postgres_dsn is required for the postgres provider")
		}
		driver, err := postgres.NewDriver(ctx, cfg.Database.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres episode store: %w", err)
		}
		c.logger.Info("using Postgres episode store")
		return driver, nil
	default:
		return nil, fmt.Errorf("%w: database provider %q", graph.ErrUnsupportedProvider, cfg.Database.Provider)
	}
}

func (c *ServeCommander) newPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		publisher, err := kafkastream.NewPublisher(kafkastream.Config{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing episode events to kafka",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic),
		)
		return publisher, nil
	default:
		return nil, fmt.Errorf("%w: events provider %q", graph.ErrUnsupportedProvider, cfg.Events.Provider)
	}
}
