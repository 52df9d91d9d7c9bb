package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
)

const (
	snapshotPrefix = "pawfeed-backup-"
	snapshotSuffix = ".db.gz"

	// snapshotTimeLayout is embedded in snapshot filenames.
	snapshotTimeLayout = "20060102_150405"

	defaultMaxBackups = 7
)

// ErrSourceMissing is returned when the database file does not exist at
// snapshot time.
var ErrSourceMissing = errors.New("backup: database file missing")

// Snapshot describes one backup file on disk.
type Snapshot struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// Store writes and prunes database snapshots in a single directory.
type Store struct {
	dir        string
	dbPath     string
	maxBackups int
	log        *logging.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New builds a Store from the maintenance configuration and the path of
// the live database file.
//
// Parameters:
//   - cfg: maintenance section of the daemon configuration
//   - dbPath: path of the SQLite database to snapshot
//   - log: parent logger, scoped to the backup component
//
// Returns:
//   - *Store: ready to use; the backup directory is created lazily
func New(cfg config.MaintenanceConfig, dbPath string, log *logging.Logger) *Store {
	max := cfg.MaxBackups
	if max <= 0 {
		max = defaultMaxBackups
	}
	return &Store{
		dir:        cfg.BackupDir,
		dbPath:     dbPath,
		maxBackups: max,
		log:        log.With("component", "backup"),
		now:        time.Now,
	}
}

// CreateBackup writes a gzip snapshot of the database file and prunes
// snapshots beyond the retention count.
//
// The snapshot is written to a temporary file and renamed into place, so
// a crash mid-write never leaves a half-written file that ListBackups
// would report.
//
// Returns:
//   - Snapshot: the snapshot just written
//   - error: ErrSourceMissing if the database file does not exist, or a
//     wrapped I/O error
func (s *Store) CreateBackup(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	source, err := os.Open(s.dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrSourceMissing
		}
		return Snapshot{}, fmt.Errorf("backup: opening database: %w", err)
	}
	defer source.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("backup: creating directory: %w", err)
	}

	createdAt := s.now().UTC()
	name := snapshotPrefix + createdAt.Format(snapshotTimeLayout) + snapshotSuffix
	finalPath := filepath.Join(s.dir, name)
	tempPath := finalPath + ".tmp"

	if err := s.writeSnapshot(tempPath, source); err != nil {
		os.Remove(tempPath)
		return Snapshot{}, err
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return Snapshot{}, fmt.Errorf("backup: finalizing snapshot: %w", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("backup: reading snapshot size: %w", err)
	}

	snap := Snapshot{
		Name:      name,
		Path:      finalPath,
		CreatedAt: createdAt,
		SizeBytes: info.Size(),
	}
	s.log.Info("backup created", "name", name, "size_bytes", snap.SizeBytes)

	if err := s.prune(); err != nil {
		s.log.Warn("pruning old backups failed", "error", err)
	}
	return snap, nil
}

func (s *Store) writeSnapshot(path string, source io.Reader) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("backup: creating snapshot file: %w", err)
	}

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, source); err != nil {
		gz.Close()
		out.Close()
		return fmt.Errorf("backup: compressing database: %w", err)
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return fmt.Errorf("backup: flushing compressor: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("backup: closing snapshot file: %w", err)
	}
	return nil
}

// ListBackups returns the snapshots currently on disk, oldest first.
// Files that do not match the snapshot naming scheme are ignored.
//
// Returns:
//   - []Snapshot: never nil; empty when the directory is absent or empty
//   - error: directory read failure other than absence
func (s *Store) ListBackups() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Snapshot{}, nil
		}
		return nil, fmt.Errorf("backup: listing directory: %w", err)
	}

	snapshots := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		createdAt, ok := parseSnapshotName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Name:      entry.Name(),
			Path:      filepath.Join(s.dir, entry.Name()),
			CreatedAt: createdAt,
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// LatestBackup returns the most recent snapshot, or ok=false when the
// directory holds none.
func (s *Store) LatestBackup() (Snapshot, bool, error) {
	snapshots, err := s.ListBackups()
	if err != nil {
		return Snapshot{}, false, err
	}
	if len(snapshots) == 0 {
		return Snapshot{}, false, nil
	}
	return snapshots[len(snapshots)-1], true, nil
}

// prune removes the oldest snapshots until at most maxBackups remain.
func (s *Store) prune() error {
	snapshots, err := s.ListBackups()
	if err != nil {
		return err
	}
	excess := len(snapshots) - s.maxBackups
	for i := 0; i < excess; i++ {
		if err := os.Remove(snapshots[i].Path); err != nil {
			return fmt.Errorf("backup: removing %s: %w", snapshots[i].Name, err)
		}
		s.log.Info("old backup pruned", "name", snapshots[i].Name)
	}
	return nil
}

// parseSnapshotName extracts the creation time from a snapshot filename.
func parseSnapshotName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	createdAt, err := time.Parse(snapshotTimeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return createdAt.UTC(), true
}
