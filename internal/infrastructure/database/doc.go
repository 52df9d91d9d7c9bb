// Package database provides the SQLite persistence layer for Pawfeed Core.
//
// It wraps database/sql with the mattn/go-sqlite3 driver, configured for an
// embedded single-writer deployment: WAL journaling, foreign keys enforced,
// busy timeout, and a one-connection pool.
//
// Schema migrations are embedded into the binary via the migrations package
// and applied at startup with Migrate(). Each migration file is named
// NNN_description.up.sql (with an optional .down.sql rollback) and runs in
// its own transaction.
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
