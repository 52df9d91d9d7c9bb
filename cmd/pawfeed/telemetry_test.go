package main

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pawprint-systems/pawfeed-core/internal/events"
)

// newTestRepository builds an events repository over an in-memory SQLite
// database carrying the activity log schema.
func newTestRepository(t *testing.T) *events.SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			payload TEXT,
			created_at TEXT NOT NULL
		);
		CREATE TABLE feeding_records (
			id TEXT PRIMARY KEY,
			portion_grams REAL NOT NULL,
			cat_weight_kg REAL,
			daily_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE weight_readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			weight_kg REAL NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			value REAL NOT NULL,
			created_at TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return events.NewSQLiteRepository(db)
}
