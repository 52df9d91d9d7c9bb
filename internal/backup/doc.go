// Package backup snapshots the SQLite database into a retention-bounded
// backup directory.
//
// Snapshots are gzip copies of the database file, named with the creation
// timestamp so the directory listing alone is enough to order them. After
// each snapshot the store prunes the oldest files beyond the configured
// retention count.
//
// Restoring is a manual operation: stop the daemon, gunzip the chosen
// snapshot over the database path, start the daemon.
package backup
