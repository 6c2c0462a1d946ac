package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/d-melnychenko/jobwatch/internal/common"
	"github.com/d-melnychenko/jobwatch/internal/ingest"
	"github.com/d-melnychenko/jobwatch/internal/jobfact"
	"github.com/d-melnychenko/jobwatch/internal/pipeline"
	repo "github.com/d-melnychenko/jobwatch/internal/repository"
	"github.com/d-melnychenko/jobwatch/internal/vision"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		image   = flag.String("image", "", "path to one screenshot to process")
		dir     = flag.String("dir", "", "directory of screenshots to process (<dir>/<subject>/*.jpg)")
		subject = flag.String("subject", "", "subject reference (required with --image, inferred with --dir)")
	)
	flag.Parse()

	if *image == "" && *dir == "" {
		printError("Error: --image or --dir is required\n")
		os.Exit(1)
	}
	if *image != "" && *subject == "" {
		printError("Error: --subject is required with --image\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

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

	if *image != "" {
		if err := processOne(ctx, orch, *subject, *image, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	paths, stats, err := ingest.ScanDirectory(*dir, nil)
	if err != nil {
		logger.Error("directory scan failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("directory scanned", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched)

	failed := 0
	for _, p := range paths {
		sub := *subject
		if sub == "" {
			sub = ingest.SubjectFromPath(*dir, p)
		}
		if err := processOne(ctx, orch, sub, p, logger); err != nil {
			failed++
		}
	}
	if failed > 0 {
		logger.Warn("finished with failures", "failed", failed, "total", len(paths))
		os.Exit(1)
	}
}

func processOne(ctx context.Context, orch *pipeline.Orchestrator, subject, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read image", "path", path, "error", err)
		return err
	}
	res, err := orch.ProcessImage(ctx, subject, data)
	if err != nil {
		logger.Error("pipeline run failed", "subject_ref", subject, "path", path, "error", err)
		return err
	}
	logger.Info("pipeline run finished",
		"subject_ref", subject, "path", path,
		"extraction_id", res.ExtractionID, "status", string(res.Status),
		"state", string(res.FinalState), "attempts", res.Attempts)
	return nil
}
