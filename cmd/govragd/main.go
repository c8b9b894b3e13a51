package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/auth"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/config"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/embedder"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/ingest"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/llm"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/repository/postgres"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/reranker"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/server"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/service"
	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/vectorstore"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration; reranking parameters are validated here so a bad
	// alpha or timeout fails fast instead of per request.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting govrag service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
		"rerank_alpha", cfg.RerankAlpha,
	)
	if cfg.APIKey == "" {
		slog.Warn("API_KEY is empty, query endpoints are unauthenticated")
	}

	// Initialize PostgreSQL
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("connected to PostgreSQL")

	docRepo := postgres.NewDocumentRepo(db)

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(ctx, cfg.QdrantGRPCURL, cfg.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer vectorStore.Close()
	slog.Info("connected to Qdrant", "collection", cfg.CollectionName)

	// Initialize Ollama embedder
	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaEmbeddingModel,
	})
	slog.Info("initialized embedder", "model", cfg.OllamaEmbeddingModel)

	if err := vectorStore.EnsureCollection(ctx, embed.Dimension()); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	// Initialize the relevance judge and reranker
	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaJudgeModel),
	)
	var judge reranker.Judge = reranker.NewLLMJudge(llmClient, reranker.WithModel(cfg.OllamaJudgeModel))
	if cfg.JudgeCacheTTL > 0 {
		judge = reranker.NewCachedJudge(judge, cfg.JudgeCacheTTL)
	}

	rr, err := reranker.New(judge,
		reranker.WithJudgeTimeout(cfg.JudgeTimeout),
		reranker.WithMaxConcurrency(cfg.JudgeConcurrency),
		reranker.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("failed to create reranker: %w", err)
	}
	slog.Info("initialized reranker",
		"judge_model", cfg.OllamaJudgeModel,
		"judge_timeout", cfg.JudgeTimeout,
		"judge_concurrency", cfg.JudgeConcurrency,
	)

	// Initialize services
	chunker := ingest.NewChunker(ingest.ChunkerConfig{})
	pipeline := ingest.NewPipeline(docRepo, embed, vectorStore, chunker, slog.Default())
	documentSvc := service.NewDocumentService(docRepo, pipeline)
	searchSvc, err := service.NewSearchService(embed, vectorStore, rr, service.SearchServiceConfig{
		TopK:     cfg.RetrievalTopK,
		MinScore: cfg.RetrievalMinScore,
		Alpha:    cfg.RerankAlpha,
		Logger:   slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("failed to create search service: %w", err)
	}

	// Create HTTP server
	jwtManager := auth.NewJWTManager(&auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Expiry: cfg.JWTExpiry,
		Issuer: "govrag",
	})
	handlers := server.NewHandlers(searchSvc, documentSvc, rr, cfg.RerankAlpha)
	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
		APIKey:         cfg.APIKey,
		JWT:            jwtManager,
		Ready:          db.Ping,
	}, handlers)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// Ensure interfaces are satisfied at compile time
var (
	_ server.Searcher        = (*service.SearchService)(nil)
	_ server.DocumentManager = (*service.DocumentService)(nil)
	_ reranker.Reranker      = (*reranker.FusionReranker)(nil)
)
