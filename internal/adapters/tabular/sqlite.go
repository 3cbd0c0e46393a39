package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSink mirrors every result table into one SQLite database, one
// database table per Table, plus a runs bookkeeping table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path and records the
// run ID and start time in the runs table.
func NewSQLiteSink(path, runID string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS "runs" ("run_id" TEXT, "started_at" TEXT)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	startedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(`INSERT INTO "runs" ("run_id", "started_at") VALUES (?, ?)`, runID, startedAt); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return &SQLiteSink{db: db}, nil
}

// Write replaces the database table named after t with its current rows.
// All columns are TEXT; the first column gets an index.
func (s *SQLiteSink) Write(ctx context.Context, t Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("%w: table %s has no columns", ErrWriteOutput, t.Name)
	}

	defs := make([]string, 0, len(t.Columns))
	qCols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, fmt.Sprintf("%q TEXT", c))
		qCols = append(qCols, fmt.Sprintf("%q", c))
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, t.Name)); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	create := fmt.Sprintf(`CREATE TABLE %q (`, t.Name) + strings.Join(defs, ",") + `)`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(t.Columns)), ",")
	insert := fmt.Sprintf(`INSERT INTO %q (`, t.Name) + strings.Join(qCols, ",") + `) VALUES (` + ph + `)`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	for _, row := range t.Rows {
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	idxName := "idx_" + t.Name + "_" + foldHeader(t.Columns[0])
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (%q)`, idxName, t.Name, t.Columns[0])
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
