// Package main provides the HTTP server for Elimu.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elimu-hub/elimu-go/internal/config"
	"github.com/elimu-hub/elimu-go/internal/embedding"
	"github.com/elimu-hub/elimu-go/internal/extract"
	"github.com/elimu-hub/elimu-go/internal/jobs"
	"github.com/elimu-hub/elimu-go/internal/llm"
	"github.com/elimu-hub/elimu-go/internal/metrics"
	"github.com/elimu-hub/elimu-go/internal/progress"
	"github.com/elimu-hub/elimu-go/internal/retrieval"
	"github.com/elimu-hub/elimu-go/internal/server"
	"github.com/elimu-hub/elimu-go/internal/service"
	"github.com/elimu-hub/elimu-go/internal/store"
	"github.com/elimu-hub/elimu-go/internal/vectorstore"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	slog.SetDefault(logger)
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()

	slog.Info("starting elimu-server", "port", cfg.Port,
		"embed_provider", cfg.EmbedProvider, "llm_provider", cfg.LLMProvider,
		"vector_backend", cfg.VectorBackend)

	if err := run(cfg, logger); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg := config.Load()
	return cfg, cfg.Validate()
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	docs, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open bookkeeping store: %w", err)
	}
	defer func() {
		if err := docs.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	var index vectorstore.Store
	switch cfg.VectorBackend {
	case config.VectorBackendQdrant:
		index = vectorstore.NewQdrant(vectorstore.QdrantConfig{
			URL:    cfg.QdrantURL,
			APIKey: cfg.QdrantAPIKey,
		})
	default:
		index = vectorstore.NewMemory()
	}

	embedder, err := embedding.New(cfg)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	generator, err := llm.New(cfg)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}

	collector := metrics.NewCollector()
	broadcaster := progress.NewBroadcaster(logger)

	manager := jobs.NewManager(cfg.Workers,
		jobs.WithLogger(logger),
		jobs.WithProgressHook(func(job jobs.Job) {
			broadcaster.Publish(job.Owner, job.ID, progress.Payload{
				Status:   string(job.Status),
				Progress: job.Progress,
				Message:  job.Message,
			})
		}),
	)
	manager.Start()
	defer manager.Stop()

	ingestSvc := service.NewIngestService(service.IngestConfig{
		Extractors: extract.DefaultRegistry(),
		Embedder:   embedder,
		Index:      index,
		Docs:       docs,
		Manager:    manager,
		ChunkCfg:   extract.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
		DataDir:    cfg.DataDir,
		Collector:  collector,
		Logger:     logger,
	})

	chatSvc, err := service.NewChatService(service.ChatConfig{
		Embedder:    embedder,
		Index:       index,
		Gate:        retrieval.NewGate(cfg.ConfidenceThreshold),
		Generator:   generator,
		Fallback:    cfg.Fallback,
		TopK:        cfg.TopK,
		Concurrency: cfg.QueryConcurrency,
		Collector:   collector,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("init chat service: %w", err)
	}
	defer chatSvc.Close()

	topicSvc := service.NewTopicService(docs, index, logger)

	srv := server.New(server.Config{
		Ingest:      ingestSvc,
		Chat:        chatSvc,
		Topics:      topicSvc,
		Manager:     manager,
		Broadcaster: broadcaster,
		Collector:   collector,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Minute, // uploads can be large
		WriteTimeout: 0,               // WebSocket connections stay open
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
