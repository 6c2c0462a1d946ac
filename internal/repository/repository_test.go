package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/d-melnychenko/jobwatch/constants"
	"github.com/d-melnychenko/jobwatch/internal/common"
	"github.com/d-melnychenko/jobwatch/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, common.DatabaseConfig{DSN: filepath.Join(t.TempDir(), "jobwatch_test.db")}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(nil) })
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestExtractionRepository_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionRepository(openTestDB(t), nil)

	rawText := "Dmytro Melnychenko\nFounder at Marble\nApril 2021 - Present\n\ttabbed line"
	rec := &entity.ExtractionRecord{
		SubjectRef: "dmytro",
		Status:     constants.StatusSuccess,
		RawText:    rawText,
		TokenUsage: entity.TokenUsage{Input: 800, Output: 120, Total: 920},
	}
	id, err := repo.Append(ctx, rec)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id == 0 || rec.ID != id {
		t.Fatalf("append id = %d, rec.ID = %d", id, rec.ID)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RawText != rawText {
		t.Errorf("raw text not byte-identical after round trip:\ngot  %q\nwant %q", got.RawText, rawText)
	}
	if got.Status != constants.StatusSuccess {
		t.Errorf("status = %s", got.Status)
	}
	if got.TokenUsage != rec.TokenUsage {
		t.Errorf("token usage = %+v, want %+v", got.TokenUsage, rec.TokenUsage)
	}
	if got.RequestedAt.IsZero() {
		t.Error("requested_at is zero after round trip")
	}
}

func TestExtractionRepository_GetMissing(t *testing.T) {
	repo := NewExtractionRepository(openTestDB(t), nil)
	if _, err := repo.GetByID(context.Background(), 42); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExtractionRepository_ListBySubject(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionRepository(openTestDB(t), nil)

	for i, status := range []constants.ExtractionStatus{
		constants.StatusTransportError, constants.StatusSuccess,
	} {
		_, err := repo.Append(ctx, &entity.ExtractionRecord{
			SubjectRef: "dmytro",
			Status:     status,
			RawText:    "",
			Diagnostic: "",
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if _, err := repo.Append(ctx, &entity.ExtractionRecord{SubjectRef: "other", Status: constants.StatusSuccess}); err != nil {
		t.Fatalf("append other: %v", err)
	}

	recs, err := repo.ListBySubject(ctx, "dmytro")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Status != constants.StatusTransportError || recs[1].Status != constants.StatusSuccess {
		t.Errorf("append order not preserved: %s, %s", recs[0].Status, recs[1].Status)
	}
}

func TestExtractionRepository_ListRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionRepository(openTestDB(t), nil)

	var lastID int64
	for i := 0; i < 7; i++ {
		id, err := repo.Append(ctx, &entity.ExtractionRecord{SubjectRef: "dmytro", Status: constants.StatusSuccess})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		lastID = id
	}

	recs, err := repo.ListRecent(ctx, 5)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("len = %d, want 5", len(recs))
	}
	if recs[0].ID != lastID {
		t.Errorf("first recent id = %d, want newest %d", recs[0].ID, lastID)
	}
}

func TestSnapshotRepository_AppendAndListOrdering(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	extractions := NewExtractionRepository(db, nil)
	snapshots := NewSnapshotRepository(db, nil)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var extIDs []int64
	for i := 0; i < 3; i++ {
		id, err := extractions.Append(ctx, &entity.ExtractionRecord{SubjectRef: "dmytro", Status: constants.StatusSuccess})
		if err != nil {
			t.Fatalf("append extraction %d: %v", i, err)
		}
		extIDs = append(extIDs, id)
	}

	// appended out of derived_at order so the query has to sort
	order := []int{2, 0, 1}
	for _, i := range order {
		_, err := snapshots.Append(ctx, &entity.JobSnapshot{
			ExtractionID: extIDs[i],
			SubjectRef:   "dmytro",
			DerivedAt:    base.Add(time.Duration(i) * time.Hour),
			Found:        true,
			Company:      "Marble",
			Position:     "Founder",
			Period:       "April 2021 - Present",
			IsCurrent:    true,
		})
		if err != nil {
			t.Fatalf("append snapshot %d: %v", i, err)
		}
	}

	snaps, err := snapshots.ListBySubject(ctx, "dmytro")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("len = %d, want 3", len(snaps))
	}
	for i, s := range snaps {
		if s.ExtractionID != extIDs[i] {
			t.Errorf("position %d: extraction_id = %d, want %d (derived_at ascending)", i, s.ExtractionID, extIDs[i])
		}
	}
	if !snaps[0].Found || snaps[0].Company != "Marble" || !snaps[0].IsCurrent {
		t.Errorf("snapshot fields lost in round trip: %+v", snaps[0])
	}
}

func TestSnapshotRepository_ParseFailureRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	extractions := NewExtractionRepository(db, nil)
	snapshots := NewSnapshotRepository(db, nil)

	extID, err := extractions.Append(ctx, &entity.ExtractionRecord{SubjectRef: "dmytro", Status: constants.StatusSuccess})
	if err != nil {
		t.Fatalf("append extraction: %v", err)
	}

	raw := "the model said something that was not JSON"
	id, err := snapshots.Append(ctx, &entity.JobSnapshot{
		ExtractionID: extID,
		SubjectRef:   "dmytro",
		Found:        false,
		ParseError:   "parse: invalid character 't'",
		RawResponse:  raw,
	})
	if err != nil {
		t.Fatalf("append snapshot: %v", err)
	}

	got, err := snapshots.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Found {
		t.Error("Found = true for a parse failure")
	}
	if got.ParseError == "" || got.RawResponse != raw {
		t.Errorf("failure diagnostics lost: parse_error=%q raw=%q", got.ParseError, got.RawResponse)
	}
}
