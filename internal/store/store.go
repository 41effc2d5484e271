// Package store persists prepared fire records and answers the aggregation
// queries behind the dashboard API. The default database is in-memory, so a
// dataset lives exactly as long as the serving process, matching the
// load-once-per-session lifecycle of the source data.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS fires (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	lat            REAL NOT NULL,
	lon            REAL NOT NULL,
	year           INTEGER NOT NULL,
	total_acres    REAL NOT NULL,
	cause          TEXT NOT NULL,
	cause_category TEXT NOT NULL,
	size_category  TEXT NOT NULL,
	prepared_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fires_year ON fires(year);
CREATE INDEX IF NOT EXISTS idx_fires_state ON fires(state);
CREATE INDEX IF NOT EXISTS idx_fires_size ON fires(size_category);
`

// Store wraps the SQLite database holding the analysis-ready table.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the database at path and ensures the schema.
// An empty path or ":memory:" yields an in-memory database.
func Open(path string) (*Store, error) {
	inMemory := path == "" || path == ":memory:"
	dsn := path
	if inMemory {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory SQLite database vanishes when its last connection
	// closes, so the pool must hold exactly one connection.
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const insertSQL = `
INSERT INTO fires (id, name, state, lat, lon, year, total_acres, cause, cause_category, size_category, prepared_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING`

// ReplaceAll swaps the entire table for the given records in one
// transaction. Used by full dataset refreshes.
func (s *Store) ReplaceAll(ctx context.Context, records []domain.FireRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refresh: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM fires`); err != nil {
		return fmt.Errorf("clear fires: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		if err := execInsert(ctx, stmt, &records[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refresh: %w", err)
	}
	return nil
}

// InsertBatch appends records, silently skipping IDs already present.
// Deterministic IDs make topic replays a no-op. Returns the inserted count.
func (s *Store) InsertBatch(ctx context.Context, records []domain.FireRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range records {
		res, err := stmt.ExecContext(ctx,
			records[i].ID, records[i].Name, records[i].State,
			records[i].Geo.Lat, records[i].Geo.Lon,
			records[i].Year, records[i].TotalAcres,
			records[i].Cause, records[i].CauseCategory, records[i].SizeCategory,
			records[i].PreparedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return 0, fmt.Errorf("insert record %s: %w", records[i].ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return inserted, nil
}

func execInsert(ctx context.Context, stmt *sql.Stmt, rec *domain.FireRecord) error {
	_, err := stmt.ExecContext(ctx,
		rec.ID, rec.Name, rec.State,
		rec.Geo.Lat, rec.Geo.Lon,
		rec.Year, rec.TotalAcres,
		rec.Cause, rec.CauseCategory, rec.SizeCategory,
		rec.PreparedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

// Count returns the number of records in the analysis table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fires`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fires: %w", err)
	}
	return n, nil
}
