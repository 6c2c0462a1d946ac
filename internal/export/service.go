// Package export is collaborator glue: it consumes the stores and renders
// the audit trail for humans. Nothing in the core depends on it.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/d-melnychenko/jobwatch/internal/repository"
)

// Service produces XLSX bytes for a subject's extraction history and
// snapshot timeline.
type Service struct {
	extractions repository.ExtractionRepository
	snapshots   repository.SnapshotRepository
	logger      *slog.Logger
}

func NewService(extractions repository.ExtractionRepository, snapshots repository.SnapshotRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractions: extractions, snapshots: snapshots, logger: logger}
}

// ExportHistoryXLSX returns a workbook with one sheet of extraction attempts
// and one sheet of derived snapshots for the subject.
func (s *Service) ExportHistoryXLSX(ctx context.Context, subjectRef string) ([]byte, error) {
	start := time.Now()

	recs, err := s.extractions.ListBySubject(ctx, subjectRef)
	if err != nil {
		return nil, fmt.Errorf("query extraction records: %w", err)
	}
	snaps, err := s.snapshots.ListBySubject(ctx, subjectRef)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	f := excelize.NewFile()

	const extSheet = "Extractions"
	if index, _ := f.GetSheetIndex(extSheet); index == -1 {
		if _, err := f.NewSheet(extSheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(extSheet)
	f.SetActiveSheet(activeIndex)

	extHeaders := []string{"ID", "Requested At", "Status", "Text Length", "Diagnostic", "Total Tokens"}
	for i, h := range extHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(extSheet, cell, h)
	}
	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(extSheet, cell, v)
		}
		write(1, r.ID)
		write(2, r.RequestedAt.UTC().Format(time.RFC3339))
		write(3, string(r.Status))
		write(4, len(r.RawText))
		write(5, truncate(r.Diagnostic, 140))
		write(6, r.TokenUsage.Total)
		row++
	}

	const snapSheet = "Snapshots"
	if _, err := f.NewSheet(snapSheet); err != nil {
		return nil, err
	}
	snapHeaders := []string{"ID", "Extraction ID", "Derived At", "Found", "Company", "Position", "Period", "Current", "Parse Error"}
	for i, h := range snapHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(snapSheet, cell, h)
	}
	row = 2
	for _, sn := range snaps {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(snapSheet, cell, v)
		}
		write(1, sn.ID)
		write(2, sn.ExtractionID)
		write(3, sn.DerivedAt.UTC().Format(time.RFC3339))
		write(4, sn.Found)
		write(5, sn.Company)
		write(6, sn.Position)
		write(7, sn.Period)
		write(8, sn.IsCurrent)
		write(9, truncate(sn.ParseError, 140))
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(extSheet, "B", "B", 22)
	_ = f.SetColWidth(extSheet, "E", "E", 48)
	_ = f.SetColWidth(snapSheet, "C", "C", 22)
	_ = f.SetColWidth(snapSheet, "E", "G", 26)
	_ = f.SetColWidth(snapSheet, "I", "I", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"subject_ref", subjectRef,
		"extractions", len(recs),
		"snapshots", len(snaps),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
