package repository

import (
	"context"
	"fmt"
)

// Both tables are append-only: no UPDATE or DELETE statement exists anywhere
// in this package.
var sqliteDDL = []string{
	`CREATE TABLE IF NOT EXISTS extraction_record (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_ref TEXT NOT NULL,
		requested_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		raw_text TEXT NOT NULL DEFAULT '',
		diagnostic TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_subject ON extraction_record(subject_ref, id)`,
	`CREATE TABLE IF NOT EXISTS job_snapshot (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		extraction_id INTEGER NOT NULL REFERENCES extraction_record(id),
		subject_ref TEXT NOT NULL,
		derived_at TIMESTAMP NOT NULL,
		found INTEGER NOT NULL DEFAULT 0,
		company TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		period TEXT NOT NULL DEFAULT '',
		is_current INTEGER NOT NULL DEFAULT 0,
		parse_error TEXT NOT NULL DEFAULT '',
		raw_response TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshot_subject ON job_snapshot(subject_ref, derived_at, id)`,
}

var postgresDDL = []string{
	`CREATE TABLE IF NOT EXISTS extraction_record (
		id BIGSERIAL PRIMARY KEY,
		subject_ref TEXT NOT NULL,
		requested_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		raw_text TEXT NOT NULL DEFAULT '',
		diagnostic TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_subject ON extraction_record(subject_ref, id)`,
	`CREATE TABLE IF NOT EXISTS job_snapshot (
		id BIGSERIAL PRIMARY KEY,
		extraction_id BIGINT NOT NULL REFERENCES extraction_record(id),
		subject_ref TEXT NOT NULL,
		derived_at TIMESTAMPTZ NOT NULL,
		found BOOLEAN NOT NULL DEFAULT FALSE,
		company TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		period TEXT NOT NULL DEFAULT '',
		is_current BOOLEAN NOT NULL DEFAULT FALSE,
		parse_error TEXT NOT NULL DEFAULT '',
		raw_response TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshot_subject ON job_snapshot(subject_ref, derived_at, id)`,
}

// Migrate creates the schema if missing. Safe to call on every startup.
func Migrate(ctx context.Context, db *DB) error {
	ddl := sqliteDDL
	if db.dialect == dialectPostgres {
		ddl = postgresDDL
	}
	for _, stmt := range ddl {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
