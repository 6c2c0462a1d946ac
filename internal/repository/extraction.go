package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/d-melnychenko/jobwatch/internal/common"
	"github.com/d-melnychenko/jobwatch/internal/entity"
)

// ExtractionRepository is the append-only store for OCR attempts.
type ExtractionRepository interface {
	Append(ctx context.Context, rec *entity.ExtractionRecord) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.ExtractionRecord, error)
	ListBySubject(ctx context.Context, subjectRef string) ([]*entity.ExtractionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ExtractionRecord, error)
}

type extractionRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionRepository(db *DB, log *slog.Logger) ExtractionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionRepo{db: db, log: log}
}

var extractionCols = []string{
	"id", "subject_ref", "requested_at", "status", "raw_text", "diagnostic",
	"input_tokens", "output_tokens", "total_tokens",
}

func (r *extractionRepo) Append(ctx context.Context, rec *entity.ExtractionRecord) (int64, error) {
	if rec.RequestedAt.IsZero() {
		rec.RequestedAt = time.Now().UTC()
	}
	ins := r.db.Builder().
		Insert("extraction_record").
		Columns("subject_ref", "requested_at", "status", "raw_text", "diagnostic",
			"input_tokens", "output_tokens", "total_tokens").
		Values(rec.SubjectRef, rec.RequestedAt, string(rec.Status), rec.RawText, rec.Diagnostic,
			rec.TokenUsage.Input, rec.TokenUsage.Output, rec.TokenUsage.Total)

	id, err := r.insertReturningID(ctx, ins)
	if err != nil {
		r.log.Error("extraction append failed", "subject_ref", rec.SubjectRef, "err", err)
		return 0, common.NewAppError("STORE_APPEND", "append extraction record", err)
	}
	rec.ID = id
	r.log.Info("extraction recorded",
		"extraction_id", id, "subject_ref", rec.SubjectRef, "status", string(rec.Status),
		"text_len", len(rec.RawText), "total_tokens", rec.TokenUsage.Total)
	return id, nil
}

func (r *extractionRepo) GetByID(ctx context.Context, id int64) (*entity.ExtractionRecord, error) {
	q, args, err := r.db.Builder().
		Select(extractionCols...).
		From("extraction_record").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rec, err := scanExtraction(r.db.SQL.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return rec, err
}

func (r *extractionRepo) ListBySubject(ctx context.Context, subjectRef string) ([]*entity.ExtractionRecord, error) {
	q, args, err := r.db.Builder().
		Select(extractionCols...).
		From("extraction_record").
		Where(sq.Eq{"subject_ref": subjectRef}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.queryMany(ctx, q, args)
}

func (r *extractionRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ExtractionRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	q, args, err := r.db.Builder().
		Select(extractionCols...).
		From("extraction_record").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.queryMany(ctx, q, args)
}

func (r *extractionRepo) queryMany(ctx context.Context, q string, args []any) ([]*entity.ExtractionRecord, error) {
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query extraction records: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.log.Warn("close rows", "err", cerr)
		}
	}()

	var recs []*entity.ExtractionRecord
	for rows.Next() {
		rec, err := scanExtraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extraction record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return recs, nil
}

// insertReturningID handles the dialect split: postgres needs RETURNING,
// sqlite reports LastInsertId.
func (r *extractionRepo) insertReturningID(ctx context.Context, ins sq.InsertBuilder) (int64, error) {
	return execInsert(ctx, r.db, ins)
}

func execInsert(ctx context.Context, db *DB, ins sq.InsertBuilder) (int64, error) {
	if db.dialect == dialectPostgres {
		q, args, err := ins.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		var id int64
		if err := db.SQL.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		return id, nil
	}
	q, args, err := ins.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	res, err := db.SQL.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExtraction(row rowScanner) (*entity.ExtractionRecord, error) {
	var rec entity.ExtractionRecord
	var status string
	if err := row.Scan(&rec.ID, &rec.SubjectRef, &rec.RequestedAt, &status, &rec.RawText, &rec.Diagnostic,
		&rec.TokenUsage.Input, &rec.TokenUsage.Output, &rec.TokenUsage.Total); err != nil {
		return nil, err
	}
	rec.Status = statusFromString(status)
	return &rec, nil
}
