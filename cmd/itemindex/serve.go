package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivrstand/itemindex/application/service"
	"github.com/ivrstand/itemindex/domain/index"
	"github.com/ivrstand/itemindex/infrastructure/api"
	"github.com/ivrstand/itemindex/infrastructure/persistence"
	"github.com/ivrstand/itemindex/infrastructure/provider"
	"github.com/ivrstand/itemindex/infrastructure/qdrant"
	"github.com/ivrstand/itemindex/internal/config"
	"github.com/ivrstand/itemindex/internal/database"
	"github.com/ivrstand/itemindex/internal/log"
)

func serveCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is read from environment variables, optionally seeded from a
.env file:

  HOST                          Server host to bind to (default: 0.0.0.0)
  PORT                          Server port to listen on (default: 5004)
  LOG_LEVEL                     DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                    pretty, json (default: pretty)
  DB_URL                        Relational source URL (postgres://... or sqlite:///...)
  QDRANT_HOST                   Vector index host (default: localhost)
  QDRANT_PORT                   Vector index gRPC port (default: 6334)
  QDRANT_COLLECTION             Collection name (default: item_embeddings)
  MODEL_DIR                     Local ONNX encoder directory (default: models)
  EMBEDDING_ENDPOINT_*          Remote OpenAI-compatible encoder
    BASE_URL, MODEL, API_KEY, TIMEOUT, MAX_RETRIES
  SYNC_BATCH_SIZE               Source reader batch size (default: 10)
  SCROLL_LIMIT                  Bounded index scan size (default: 10000)
  SEARCH_TOP_K                  Retrieval result count (default: 4)
  PERIODIC_SYNC_ENABLED         Background resyncs (default: false)
  PERIODIC_SYNC_INTERVAL_SECONDS  Resync interval (default: 1800)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runServe(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	store, err := qdrant.NewStore(qdrant.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		Collection: cfg.Collection,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect vector index: %w", err)
	}

	embedder := newEmbedder(cfg)

	source := persistence.NewItemSource(db, logger)
	syncer := service.NewSyncer(source, embedder, store, logger,
		service.WithBatchSize(cfg.SyncBatchSize),
		service.WithScrollLimit(cfg.ScrollLimit),
	)
	retrieval := service.NewRetrieval(embedder, store, logger,
		service.WithTopK(cfg.SearchTopK),
	)

	// Create the collection if needed and bring the index up to date
	// before serving.
	if err := syncer.EnsureReady(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	periodic := service.NewPeriodicSync(syncer, cfg.PeriodicSync.Interval(), cfg.PeriodicSync.Enabled, logger)
	periodic.Start(ctx)

	server := api.NewServer(cfg.Addr(), logger)
	api.NewRouter(retrieval, syncer, logger).Mount(server.Router())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		periodic.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newEmbedder picks the remote encoder when one is configured, the local
// ONNX encoder otherwise.
func newEmbedder(cfg config.Config) index.Embedder {
	if cfg.EmbeddingEndpoint.IsConfigured() {
		return provider.NewOpenAIEmbedder(provider.OpenAIConfig{
			APIKey:     cfg.EmbeddingEndpoint.APIKey,
			BaseURL:    cfg.EmbeddingEndpoint.BaseURL,
			Model:      cfg.EmbeddingEndpoint.Model,
			Timeout:    cfg.EmbeddingEndpoint.TimeoutDuration(),
			MaxRetries: cfg.EmbeddingEndpoint.MaxRetries,
		})
	}
	return provider.NewHugotEmbedder(cfg.ModelDir)
}
