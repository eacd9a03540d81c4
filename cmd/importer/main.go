package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Asterovim/jina-reader-crawler/internal/adapter/dify"
	"github.com/Asterovim/jina-reader-crawler/internal/adapter/fs"
	"github.com/Asterovim/jina-reader-crawler/internal/usecase"
	"github.com/Asterovim/jina-reader-crawler/pkg/config"
	"github.com/Asterovim/jina-reader-crawler/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	// --- Configuration ---
	cfg := config.Load()

	// --- Logger ---
	logLevel := logger.Level(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	if cfg.DifyAPIKey == "" {
		slog.Error("DIFY_API_KEY is required for the import step")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Knowledge-base client ---
	kb := dify.NewClient(cfg.DifyBaseURL, cfg.DifyAPIKey, cfg.DifyDatasetID, dify.DatasetSettings{
		Name:                   cfg.DifyKnowledgeName,
		Description:            cfg.DifyKnowledgeDescription,
		EmbeddingModel:         cfg.DifyEmbeddingModel,
		EmbeddingModelProvider: cfg.DifyEmbeddingModelProvider,
		IndexingTechnique:      cfg.DifyIndexingTechnique,
		Permission:             cfg.DifyPermission,
		SearchMethod:           cfg.DifySearchMethod,
		TopK:                   cfg.DifyTopK,
		ScoreThresholdEnabled:  cfg.DifyScoreThresholdEnabled,
		ScoreThreshold:         cfg.DifyScoreThreshold,
		RerankingEnabled:       cfg.DifyRerankingEnabled,
		Weights:                cfg.DifyWeights,
	})

	store := fs.NewStore(cfg.CrawlResultDir)
	importer := usecase.NewImporter(kb, store, cfg.DifyDatasetID, cfg.EUCompliance, cfg.ImportPause)

	summary, err := importer.Run(ctx)
	if err != nil {
		slog.Error("Import failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Import finished",
		"dataset_id", summary.DatasetID,
		"imported", summary.Imported,
		"failed", summary.Failed,
	)
	for _, path := range summary.FailedPaths {
		slog.Warn("Document was not imported", "path", path)
	}
}
