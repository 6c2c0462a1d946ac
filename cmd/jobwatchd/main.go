package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/d-melnychenko/jobwatch/internal/async"
	"github.com/d-melnychenko/jobwatch/internal/common"
	"github.com/d-melnychenko/jobwatch/internal/ingest"
	"github.com/d-melnychenko/jobwatch/internal/jobfact"
	"github.com/d-melnychenko/jobwatch/internal/pipeline"
	repo "github.com/d-melnychenko/jobwatch/internal/repository"
	"github.com/d-melnychenko/jobwatch/internal/vision"
)

func main() {
	var (
		watchDir    = flag.String("watch", "", "screenshots directory to watch (overrides WATCH_DIR)")
		initialScan = flag.Bool("initial-scan", false, "process screenshots already present at startup")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *watchDir != "" {
		cfg.Watch.Root = *watchDir
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Watch.Root == "" {
		logger.Error("no watch directory: set --watch or WATCH_DIR")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := repo.Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	extractions := repo.NewExtractionRepository(db, logger)
	snapshots := repo.NewSnapshotRepository(db, logger)

	visionClient := vision.NewClient(vision.Config{
		Model:       cfg.Vision.Model,
		APIKey:      cfg.Vision.APIKey,
		BaseURL:     cfg.Vision.BaseURL,
		Prompt:      cfg.Vision.Prompt,
		Temperature: cfg.Vision.Temperature,
		MaxTokens:   cfg.Vision.MaxTokens,
		Timeout:     cfg.Vision.Timeout,
	}, logger)

	factClient := jobfact.NewClient(jobfact.Config{
		Model:       cfg.Fact.Model,
		APIKey:      cfg.Fact.APIKey,
		BaseURL:     cfg.Fact.BaseURL,
		Temperature: cfg.Fact.Temperature,
		MaxTokens:   cfg.Fact.MaxTokens,
		Timeout:     cfg.Fact.Timeout,
		CacheTTL:    cfg.Fact.CacheTTL,
	}, logger)

	orch := pipeline.NewOrchestrator(logger, visionClient, factClient, extractions, snapshots, pipeline.Config{
		TransportRetries: cfg.Pipeline.TransportRetries,
		RetryDelay:       cfg.Pipeline.RetryDelay,
		RatePerSecond:    cfg.Pipeline.RatePerSecond,
		RateBurst:        cfg.Pipeline.RateBurst,
	})

	queue := async.NewQueue(func(jobCtx context.Context, job async.Job) error {
		data, err := os.ReadFile(job.Path)
		if err != nil {
			return err
		}
		_, err = orch.ProcessImage(jobCtx, job.SubjectRef, data)
		return err
	}, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
	)

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        cfg.Watch.Root,
		InitialScan: *initialScan,
		Debounce:    cfg.Watch.Debounce,
	})
	if err != nil {
		logger.Error("failed to start watcher", "root", cfg.Watch.Root, "error", err)
		os.Exit(1)
	}

	logger.Info("jobwatchd started", "watch", cfg.Watch.Root, "workers", cfg.Pipeline.Workers)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			queue.Shutdown(shutdownCtx)
			cancel()
			return
		case path, ok := <-events:
			if !ok {
				continue
			}
			_ = queue.Enqueue(ctx, async.Job{
				SubjectRef: ingest.SubjectFromPath(cfg.Watch.Root, path),
				Path:       path,
			})
		case werr, ok := <-errs:
			if ok && werr != nil {
				logger.Warn("watcher reported error", "error", werr)
			}
		}
	}
}
