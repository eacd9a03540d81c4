package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/Asterovim/jina-reader-crawler/internal/adapter/fs"
	"github.com/Asterovim/jina-reader-crawler/internal/adapter/jina"
	"github.com/Asterovim/jina-reader-crawler/internal/delivery/http/handler"
	"github.com/Asterovim/jina-reader-crawler/internal/delivery/http/router"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Target resolution ---
	resolver := usecase.NewResolver(30 * time.Second)
	targets, err := resolver.Resolve(ctx, cfg.SitemapURL)
	if err != nil {
		slog.Error("Unable to resolve crawl targets", "input", cfg.SitemapURL, "error", err)
		os.Exit(1)
	}
	slog.Info("Crawl targets resolved", "count", len(targets), "input", cfg.SitemapURL)

	runID := uuid.NewString()
	progress := usecase.NewProgress(runID, len(targets))

	// --- Status listener (optional) ---
	if cfg.StatusAddr != "" {
		statusHandler := handler.NewHandler(progress)
		server := &http.Server{
			Addr:         cfg.StatusAddr,
			Handler:      router.New(statusHandler),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		go func() {
			slog.Info("Starting status listener", "addr", cfg.StatusAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Status listener stopped", "addr", cfg.StatusAddr, "error", err)
			}
		}()
		defer server.Close()
	}

	// --- Extraction client ---
	baseURL := jina.DefaultBaseURL
	if cfg.EUCompliance {
		baseURL = jina.EUBaseURL
	}
	extractor := jina.NewClient(jina.Options{
		BaseURL:         baseURL,
		APIKey:          cfg.JinaAPIKey,
		RemoveSelector:  cfg.CSSSelector,
		WaitForSelector: cfg.WaitForSelector,
		NoCache:         cfg.NoCache,
	})

	// --- Crawl pipeline ---
	pacer := usecase.NewPacer(cfg.MinDelay, cfg.MaxDelay, cfg.RetryBaseDelay)
	fetcher := usecase.NewFetcher(extractor, pacer, cfg.RequestTimeout, cfg.RetryCount)
	store := fs.NewStore(cfg.CrawlResultDir)
	coordinator := usecase.NewCoordinator(
		fetcher,
		pacer,
		usecase.NewDedupRegistry(),
		store,
		progress,
		cfg.StartFromIndex,
		cfg.CrawlerTimeout,
	)

	summary, err := coordinator.Run(ctx, runID, targets)
	if err != nil {
		slog.Error("Crawl could not start", "error", err)
		os.Exit(1)
	}

	// Per-target failures are reported in the summary, not via the exit
	// code. Only unresolvable input is fatal.
	slog.Info("Crawl finished",
		"run_id", summary.RunID,
		"succeeded", summary.Succeeded,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
		"output_dir", store.Root(),
	)
}
