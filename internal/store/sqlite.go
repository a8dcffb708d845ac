package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/parallax/internal/catalog"
)

// SQLiteFileName is the database file created inside the state directory.
const SQLiteFileName = "parallax.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stars (
    seq       INTEGER PRIMARY KEY,
    system    TEXT    NOT NULL,
    body_id   INTEGER NOT NULL,
    star_type TEXT    NOT NULL,
    UNIQUE(system, body_id)
);

CREATE TABLE IF NOT EXISTS processed_files (
    name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS processed_bodies (
    name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS classifications (
    label          TEXT PRIMARY KEY,
    earthlike_body INTEGER NOT NULL DEFAULT 0,
    ammonia_world  INTEGER NOT NULL DEFAULT 0,
    water_world    INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore keeps the snapshot in a local SQLite database in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database in dir, enables WAL mode
// and busy timeout, and creates the schema if it does not exist.
func NewSQLiteStore(ctx context.Context, dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, SQLiteFileName))
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// One writer; a single connection keeps the PRAGMAs below in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads every table. Each table is read independently; a failing table
// loads as empty and is reported in the returned error.
func (s *SQLiteStore) Load(ctx context.Context) (catalog.Snapshot, error) {
	snap := catalog.Snapshot{Table: make(catalog.Table)}
	var errs []error

	stars, err := s.loadStars(ctx)
	if err != nil {
		errs = append(errs, &ReadError{Document: "stars", Err: err})
	}
	snap.Stars = stars

	if snap.ProcessedFiles, err = s.loadNames(ctx, "processed_files"); err != nil {
		errs = append(errs, &ReadError{Document: "processed_files", Err: err})
	}
	if snap.ProcessedBodies, err = s.loadNames(ctx, "processed_bodies"); err != nil {
		errs = append(errs, &ReadError{Document: "processed_bodies", Err: err})
	}
	if table, err := s.loadTable(ctx); err != nil {
		errs = append(errs, &ReadError{Document: "classifications", Err: err})
	} else {
		snap.Table = table
	}
	return snap, errors.Join(errs...)
}

func (s *SQLiteStore) loadStars(ctx context.Context) ([]catalog.StarRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT system, body_id, star_type FROM stars ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.StarRecord
	for rows.Next() {
		var rec catalog.StarRecord
		if err := rows.Scan(&rec.System, &rec.BodyID, &rec.StarType); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadNames(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM "+table+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadTable(ctx context.Context) (catalog.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT label, earthlike_body, ammonia_world, water_world FROM classifications")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := make(catalog.Table)
	for rows.Next() {
		var label string
		var c catalog.Counts
		if err := rows.Scan(&label, &c.EarthlikeBody, &c.AmmoniaWorld, &c.WaterWorld); err != nil {
			return nil, err
		}
		table[label] = c
	}
	return table, rows.Err()
}

// Save replaces every table's contents in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap catalog.Snapshot) error {
	if err := s.save(ctx, snap); err != nil {
		return &WriteError{Document: SQLiteFileName, Err: err}
	}
	return nil
}

func (s *SQLiteStore) save(ctx context.Context, snap catalog.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := clearTables(ctx, tx); err != nil {
		return err
	}

	for i, rec := range snap.Stars {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO stars (seq, system, body_id, star_type) VALUES (?, ?, ?, ?)",
			i, rec.System, rec.BodyID, rec.StarType); err != nil {
			return fmt.Errorf("insert star %q/%d: %w", rec.System, rec.BodyID, err)
		}
	}
	for _, name := range snap.ProcessedFiles {
		if _, err := tx.ExecContext(ctx, "INSERT INTO processed_files (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("insert processed file %q: %w", name, err)
		}
	}
	for _, name := range snap.ProcessedBodies {
		if _, err := tx.ExecContext(ctx, "INSERT INTO processed_bodies (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("insert processed body %q: %w", name, err)
		}
	}
	for label, c := range snap.Table {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO classifications (label, earthlike_body, ammonia_world, water_world) VALUES (?, ?, ?, ?)",
			label, c.EarthlikeBody, c.AmmoniaWorld, c.WaterWorld); err != nil {
			return fmt.Errorf("insert classification %q: %w", label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func clearTables(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"stars", "processed_files", "processed_bodies", "classifications"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Reset empties every table.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	return s.Save(ctx, catalog.Snapshot{})
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
