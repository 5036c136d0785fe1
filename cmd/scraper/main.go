package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/switchlove/FragileCityScraper/config"
	"github.com/switchlove/FragileCityScraper/models"
	"github.com/switchlove/FragileCityScraper/pipeline"
	"github.com/switchlove/FragileCityScraper/scraper"
	"github.com/switchlove/FragileCityScraper/storage"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Duration("batch_pause", cfg.BatchPause),
		slog.Bool("reuse_list_fetch", cfg.ReuseListFetch),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, err := s.Run(ctx)
	if err != nil {
		// only a list or wars fetch exhausting retries gets here
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Output failures are survivable once the scrape itself succeeded: a
	// snapshot file that cannot be written is logged in the run's error
	// list and the remaining outputs still get their chance.
	writeSnapshots(cfg, result)
	persist(ctx, cfg, result)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputDir)
}

func writeSnapshots(cfg *config.Config, result *models.RunResult) {
	writer := pipeline.NewSnapshotWriter(cfg.OutputDir)
	if err := writer.WriteAll(result); err != nil {
		recordOutputError(result, "snapshot", err)
	}
}

func persist(ctx context.Context, cfg *config.Config, result *models.RunResult) {
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		recordOutputError(result, "persistence", err)
		return
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		recordOutputError(result, "persistence", err)
		return
	}

	runID, err := store.SaveScrapeRun(ctx, result.Metadata)
	if err != nil {
		recordOutputError(result, "persistence", err)
		return
	}
	if err := store.SaveGlobalStats(ctx, runID, result.Stats); err != nil {
		recordOutputError(result, "persistence", err)
	}
	if err := store.SaveCities(ctx, runID, result.Cities); err != nil {
		recordOutputError(result, "persistence", err)
	}
	if err := store.SaveWars(ctx, runID, result.Wars); err != nil {
		recordOutputError(result, "persistence", err)
	}
	if err := store.SaveCityDetails(ctx, runID, result.Details); err != nil {
		recordOutputError(result, "persistence", err)
	}
	slog.Info("run persisted", slog.Int64("run_id", runID))
}

func recordOutputError(result *models.RunResult, item string, err error) {
	slog.Error("output failed", slog.String("stage", item), slog.Any("error", err))
	result.Errors = append(result.Errors, models.RunError{
		Item:      item,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
	result.Metadata.ErrorCount = len(result.Errors)
}

func loadConfig() (*config.Config, error) {
	defaults := config.DefaultConfig()

	if value, ok := config.EnvString("SCRAPER_BASE_URL"); ok {
		defaults.BaseURL = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_CONCURRENCY"); err != nil {
		return nil, err
	} else if ok {
		defaults.Concurrency = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_MAX_RETRIES"); err != nil {
		return nil, err
	} else if ok {
		defaults.MaxRetries = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_RETRY_DELAY"); err != nil {
		return nil, err
	} else if ok {
		defaults.RetryDelay = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_BATCH_PAUSE"); err != nil {
		return nil, err
	} else if ok {
		defaults.BatchPause = value
	}
	if value, ok, err := config.EnvBool("SCRAPER_REUSE_LIST_FETCH"); err != nil {
		return nil, err
	} else if ok {
		defaults.ReuseListFetch = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT_DIR"); ok {
		defaults.OutputDir = value
	}
	if value, ok := config.EnvString("SCRAPER_DB_PATH"); ok {
		defaults.DatabasePath = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		defaults.MetricsAddr = value
	}

	baseURL := flag.String("base-url", defaults.BaseURL, "Game base URL")
	concurrency := flag.Int("concurrency", defaults.Concurrency, "Detail fetches per batch window")
	batchPauseMs := flag.Int("batch-pause", int(defaults.BatchPause.Milliseconds()), "Pause between batch windows (milliseconds)")
	maxRetries := flag.Int("max-retries", defaults.MaxRetries, "Maximum retry attempts per fetch")
	retryDelayMs := flag.Int("retry-delay", int(defaults.RetryDelay.Milliseconds()), "Initial retry backoff (milliseconds)")
	reuseListFetch := flag.Bool("reuse-list-fetch", defaults.ReuseListFetch, "Extract wars from the cached index document instead of re-fetching")
	outputDir := flag.String("output-dir", defaults.OutputDir, "Directory for JSON snapshot files")
	dbPath := flag.String("db", defaults.DatabasePath, "Path to the sqlite history database")
	metricsAddr := flag.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", defaults.Verbose, "Enable verbose logging")
	flag.Parse()

	cfg := defaults
	cfg.BaseURL = *baseURL
	cfg.Concurrency = *concurrency
	cfg.BatchPause = time.Duration(*batchPauseMs) * time.Millisecond
	cfg.MaxRetries = *maxRetries
	cfg.RetryDelay = time.Duration(*retryDelayMs) * time.Millisecond
	cfg.ReuseListFetch = *reuseListFetch
	cfg.OutputDir = *outputDir
	cfg.DatabasePath = *dbPath
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	return cfg, nil
}

func newLogger(verbose bool) (*slog.Logger, slog.Level) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler), level
}

func printSummary(result *models.RunResult, outputDir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Cities:        %d\n", result.Metadata.CityCount)
	fmt.Printf("  Wars:          %d\n", result.Metadata.WarCount)
	fmt.Printf("  Details:       %d ok / %d failed\n", result.Metadata.DetailOK, result.Metadata.DetailFailed)
	fmt.Printf("  Errors:        %d\n", result.Metadata.ErrorCount)
	fmt.Printf("  Warnings:      %d\n", result.Metadata.WarningCount)
	fmt.Printf("  Duration:      %v\n", result.Metadata.Duration)
	fmt.Printf("  Output:        %s\n", outputDir)
	fmt.Println(separator)
}
