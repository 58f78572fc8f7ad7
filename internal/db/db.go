// Package db manages the database connection
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
// Day, hour and weekday bucketing uses the configured location so snapshots
// near a timezone midnight land on the right local day.
type DB struct {
	*sql.DB
	path string
	loc  *time.Location
}

// New creates a new database connection bucketed in local time.
func New(path string) (*DB, error) {
	return NewWithLocation(path, time.Local)
}

// NewWithLocation creates a connection with an explicit bucketing location.
func NewWithLocation(path string, loc *time.Location) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}
	db := &DB{
		DB:   sqlDB,
		path: path,
		loc:  loc,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := db.migrateLegacySchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate legacy schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Location returns the bucketing location.
func (db *DB) Location() *time.Location {
	return db.loc
}

// configure sets up database pragmas for optimal performance.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createPollSnapshotsTable(); err != nil {
		return err
	}
	return db.createSessionStartsTable()
}

func (db *DB) createPollSnapshotsTable() error {
	// local_day/local_hour/local_weekday are computed in Go at insert time.
	// SQLite's strftime would bucket the UTC timestamp and misclassify rows
	// near a local midnight.
	query := `
	CREATE TABLE IF NOT EXISTS poll_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		session_used_pct REAL NOT NULL DEFAULT 0,
		session_remaining_min REAL NOT NULL DEFAULT 0,
		weekly_used_pct REAL NOT NULL DEFAULT 0,
		weekly_remaining_min REAL NOT NULL DEFAULT 0,
		calibrator REAL NOT NULL DEFAULT 0,
		session_target REAL NOT NULL DEFAULT 100,
		combined_pct REAL NOT NULL DEFAULT 0,
		budget_burn REAL,
		local_day TEXT NOT NULL,
		local_hour INTEGER NOT NULL,
		local_weekday INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_poll_snapshots_timestamp ON poll_snapshots(timestamp);
	CREATE INDEX IF NOT EXISTS idx_poll_snapshots_day ON poll_snapshots(local_day);
	CREATE INDEX IF NOT EXISTS idx_poll_snapshots_hour ON poll_snapshots(local_day, local_hour);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createSessionStartsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS session_starts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		weekly_used_pct_at_start REAL NOT NULL DEFAULT 0,
		weekly_remaining_min REAL NOT NULL DEFAULT 0,
		local_day TEXT NOT NULL,
		local_weekday INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_starts_timestamp ON session_starts(timestamp);
	CREATE INDEX IF NOT EXISTS idx_session_starts_day ON session_starts(local_day);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
