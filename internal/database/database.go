// Package database keeps the aircraft catalog in SQLite.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the catalog.
type DB struct {
	*sql.DB
}

// NewDB opens database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS aircraft (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			min_lease INTEGER NOT NULL DEFAULT 1,
			max_lease INTEGER NOT NULL DEFAULT 365,
			position INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS aircraft_booked_dates (
			aircraft_id TEXT NOT NULL,
			date TEXT NOT NULL,
			PRIMARY KEY (aircraft_id, date),
			FOREIGN KEY (aircraft_id) REFERENCES aircraft(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_aircraft_active ON aircraft(is_active, position)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
