package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/chunk"
	"github.com/docdex-io/docdex/internal/config"
	dbRedis "github.com/docdex-io/docdex/internal/db/redis"
	"github.com/docdex-io/docdex/internal/extract"
	logpkg "github.com/docdex-io/docdex/internal/logger"
	"github.com/docdex-io/docdex/internal/metrics"
	sqliterepo "github.com/docdex-io/docdex/internal/repository/sqlite"
	vectorrepo "github.com/docdex-io/docdex/internal/repository/vector"
	chiTransport "github.com/docdex-io/docdex/internal/transport/chi"
	openaiTransport "github.com/docdex-io/docdex/internal/transport/openai"
	answeruc "github.com/docdex-io/docdex/internal/usecase/answer"
	chatuc "github.com/docdex-io/docdex/internal/usecase/chat"
	healthuc "github.com/docdex-io/docdex/internal/usecase/health"
	ingestuc "github.com/docdex-io/docdex/internal/usecase/ingest"
	retrievaluc "github.com/docdex-io/docdex/internal/usecase/retrieval"
	"github.com/docdex-io/docdex/internal/version"
	"github.com/docdex-io/docdex/internal/watcher"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docdex daemon",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("watch_root", cfg.Watcher.Root),
	)

	metrics.Register()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	relational, err := sqliterepo.Open(cfg.Relational.Path)
	if err != nil {
		logger.Fatal("Failed to open relational store", zap.Error(err))
	}
	defer func() { _ = relational.Close() }()
	logger.Info("Opened relational store", zap.String("path", cfg.Relational.Path))

	vectors := vectorrepo.New(store, cfg.Database.KeyPrefix, cfg.Embedding.Dimensions)
	if err := vectors.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:      cfg.Completion.APIKey,
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		Logger:      logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("completion_model", cfg.Completion.Model),
	)

	tokenizer, err := chunk.NewTokenizer()
	if err != nil {
		logger.Fatal("Failed to load tokenizer", zap.Error(err))
	}
	chunker := chunk.NewChunker(tokenizer, cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens)

	ingestSvc := ingestuc.New(extract.New(), chunker, relational, vectors, embedder)
	retrievalSvc := retrievaluc.New(vectors, relational, embedder, cfg.Retrieval.TopK)
	answerSvc := answeruc.New(retrievalSvc, relational, completer, cfg.Retrieval.TopK)
	chatSvc := chatuc.New(relational, answerSvc)

	// The watcher context carries the root logger so pipeline code can
	// pull it back out per event.
	watchCtx, cancelWatch := context.WithCancel(logpkg.WithContext(ctx, logger))
	defer cancelWatch()

	fw := watcher.New(watcher.Config{
		Root:       cfg.Watcher.Root,
		Extensions: cfg.Watcher.Extensions,
		Recursive:  *cfg.Watcher.Recursive,
		QueueSize:  cfg.Watcher.QueueSize,
	}, ingestSvc)
	// Start returns after the existing backlog is indexed.
	if err := fw.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start file watcher", zap.Error(err))
	}
	logger.Info("Watching for documents", zap.String("root", cfg.Watcher.Root))

	healthSvc := healthuc.New(store, relational, embedder)

	server := chiTransport.NewServer(relational, relational, chatSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	cancelWatch()
	fw.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Daemon stopped gracefully")
}
