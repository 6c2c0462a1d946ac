package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/d-melnychenko/jobwatch/constants"
	"github.com/d-melnychenko/jobwatch/internal/common"
	"github.com/d-melnychenko/jobwatch/internal/entity"
)

// SnapshotRepository is the append-only store for derived employment facts.
type SnapshotRepository interface {
	Append(ctx context.Context, snap *entity.JobSnapshot) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.JobSnapshot, error)
	ListBySubject(ctx context.Context, subjectRef string) ([]*entity.JobSnapshot, error)
}

type snapshotRepo struct {
	db  *DB
	log *slog.Logger
}

func NewSnapshotRepository(db *DB, log *slog.Logger) SnapshotRepository {
	if log == nil {
		log = slog.Default()
	}
	return &snapshotRepo{db: db, log: log}
}

var snapshotCols = []string{
	"id", "extraction_id", "subject_ref", "derived_at", "found",
	"company", "position", "period", "is_current", "parse_error", "raw_response",
}

func (r *snapshotRepo) Append(ctx context.Context, snap *entity.JobSnapshot) (int64, error) {
	if snap.DerivedAt.IsZero() {
		snap.DerivedAt = time.Now().UTC()
	}
	ins := r.db.Builder().
		Insert("job_snapshot").
		Columns("extraction_id", "subject_ref", "derived_at", "found",
			"company", "position", "period", "is_current", "parse_error", "raw_response").
		Values(snap.ExtractionID, snap.SubjectRef, snap.DerivedAt, snap.Found,
			snap.Company, snap.Position, snap.Period, snap.IsCurrent, snap.ParseError, snap.RawResponse)

	id, err := execInsert(ctx, r.db, ins)
	if err != nil {
		r.log.Error("snapshot append failed", "subject_ref", snap.SubjectRef, "extraction_id", snap.ExtractionID, "err", err)
		return 0, common.NewAppError("STORE_APPEND", "append job snapshot", err)
	}
	snap.ID = id
	r.log.Info("snapshot recorded",
		"snapshot_id", id, "extraction_id", snap.ExtractionID, "subject_ref", snap.SubjectRef,
		"found", snap.Found, "company", snap.Company, "position", snap.Position)
	return id, nil
}

func (r *snapshotRepo) GetByID(ctx context.Context, id int64) (*entity.JobSnapshot, error) {
	q, args, err := r.db.Builder().
		Select(snapshotCols...).
		From("job_snapshot").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	snap, err := scanSnapshot(r.db.SQL.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return snap, err
}

func (r *snapshotRepo) ListBySubject(ctx context.Context, subjectRef string) ([]*entity.JobSnapshot, error) {
	q, args, err := r.db.Builder().
		Select(snapshotCols...).
		From("job_snapshot").
		Where(sq.Eq{"subject_ref": subjectRef}).
		OrderBy("derived_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query job snapshots: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.log.Warn("close rows", "err", cerr)
		}
	}()

	var snaps []*entity.JobSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return snaps, nil
}

func scanSnapshot(row rowScanner) (*entity.JobSnapshot, error) {
	var snap entity.JobSnapshot
	if err := row.Scan(&snap.ID, &snap.ExtractionID, &snap.SubjectRef, &snap.DerivedAt, &snap.Found,
		&snap.Company, &snap.Position, &snap.Period, &snap.IsCurrent, &snap.ParseError, &snap.RawResponse); err != nil {
		return nil, err
	}
	return &snap, nil
}

func statusFromString(s string) constants.ExtractionStatus {
	return constants.ExtractionStatus(s)
}
