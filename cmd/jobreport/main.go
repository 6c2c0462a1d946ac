package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/d-melnychenko/jobwatch/internal/common"
	"github.com/d-melnychenko/jobwatch/internal/diff"
	"github.com/d-melnychenko/jobwatch/internal/entity"
	"github.com/d-melnychenko/jobwatch/internal/export"
	repo "github.com/d-melnychenko/jobwatch/internal/repository"
)

func main() {
	var (
		subject = flag.String("subject", "", "subject reference to report on (required)")
		xlsxOut = flag.String("xlsx", "", "write the full history workbook to this path")
	)
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "Error: --subject is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

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

	snaps, err := snapshots.ListBySubject(ctx, *subject)
	if err != nil {
		logger.Error("failed to list snapshots", "subject_ref", *subject, "error", err)
		os.Exit(1)
	}

	report := diff.BuildReport(*subject, snaps)
	printReport(report)

	if *xlsxOut != "" {
		svc := export.NewService(extractions, snapshots, logger)
		data, err := svc.ExportHistoryXLSX(ctx, *subject)
		if err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, data, 0o644); err != nil {
			logger.Error("failed to write workbook", "path", *xlsxOut, "error", err)
			os.Exit(1)
		}
		fmt.Printf("\nHistory workbook written to %s\n", *xlsxOut)
	}
}

func printReport(r *entity.ChangeReport) {
	fmt.Printf("Subject:   %s\n", r.SubjectRef)
	fmt.Printf("Snapshots: %d (current job found in %d)\n", r.SnapshotCount, r.FoundCount)

	if r.InsufficientData {
		fmt.Println("Not enough data to compare (need at least 2 found snapshots).")
		return
	}

	fmt.Println("\nCompanies:")
	printGroups(r.DistinctCompanies)
	fmt.Println("\nPositions:")
	printGroups(r.DistinctPositions)

	if r.Changed {
		fmt.Println("\nResult: CHANGED: different companies or positions detected.")
	} else {
		fmt.Println("\nResult: unchanged.")
	}
}

func printGroups(groups []entity.FieldGroup) {
	if len(groups) == 0 {
		fmt.Println("  (no usable values)")
		return
	}
	for i, g := range groups {
		ids := make([]string, len(g.ExtractionIDs))
		for j, id := range g.ExtractionIDs {
			ids[j] = strconv.FormatInt(id, 10)
		}
		fmt.Printf("  %d. %q (extractions: %s)\n", i+1, g.Value, strings.Join(ids, ", "))
	}
}
