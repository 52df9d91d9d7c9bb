package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/pawprint-systems/pawfeed-core/internal/backup"
	"github.com/pawprint-systems/pawfeed-core/internal/events"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
	"github.com/pawprint-systems/pawfeed-core/internal/system"
)

// restartDelay gives in-flight work a moment to finish before an armed
// restart fires.
const restartDelay = time.Minute

// Cleaner prunes old persisted rows.
type Cleaner interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// Backups creates and inspects database snapshots.
type Backups interface {
	CreateBackup(ctx context.Context) (backup.Snapshot, error)
	LatestBackup() (backup.Snapshot, bool, error)
}

// Restarter reports uptime and arms deferred restarts.
type Restarter interface {
	Uptime() time.Duration
	RestartPending() (bool, time.Time)
	ScheduleRestart(delay time.Duration) error
}

// Recorder persists maintenance events.
type Recorder interface {
	AppendEvent(ctx context.Context, kind string, payload map[string]any) error
}

// Runner executes the housekeeping pass on a fixed cadence.
type Runner struct {
	cfg      config.MaintenanceConfig
	interval time.Duration

	cleaner  Cleaner
	backups  Backups
	restarts Restarter
	recorder Recorder
	log      *logging.Logger
}

// New builds a Runner from the maintenance configuration and its
// collaborators.
func New(cfg config.MaintenanceConfig, cleaner Cleaner, backups Backups, restarts Restarter, recorder Recorder, log *logging.Logger) *Runner {
	interval := time.Duration(cfg.Interval) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	return &Runner{
		cfg:      cfg,
		interval: interval,
		cleaner:  cleaner,
		backups:  backups,
		restarts: restarts,
		recorder: recorder,
		log:      log.With("component", "maintenance"),
	}
}

// Run executes passes until the context is cancelled. The first pass
// runs immediately so a fresh install gets its initial backup without
// waiting a full interval.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("maintenance started", "interval", r.interval.String())
	r.Pass(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("maintenance stopped")
			return nil
		case <-ticker.C:
			r.Pass(ctx)
		}
	}
}

// Pass runs one housekeeping pass. Action failures are logged and do
// not stop the remaining actions.
func (r *Runner) Pass(ctx context.Context) {
	r.cleanup(ctx)
	r.backupIfDue(ctx)
	r.restartIfDue(ctx)
}

func (r *Runner) cleanup(ctx context.Context) {
	deleted, err := r.cleaner.DeleteOlderThan(ctx, r.cfg.CleanupDays)
	if err != nil {
		r.log.Error("cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		r.log.Info("old records pruned", "deleted", deleted, "retention_days", r.cfg.CleanupDays)
	}
}

func (r *Runner) backupIfDue(ctx context.Context) {
	latest, ok, err := r.backups.LatestBackup()
	if err != nil {
		r.log.Error("inspecting backups failed", "error", err)
		return
	}

	interval := time.Duration(r.cfg.BackupIntervalHours) * time.Hour
	if ok && time.Since(latest.CreatedAt) < interval {
		return
	}

	snap, err := r.backups.CreateBackup(ctx)
	if err != nil {
		r.log.Error("backup failed", "error", err)
		return
	}
	if err := r.recorder.AppendEvent(ctx, events.KindBackupCreated, map[string]any{
		"name":       snap.Name,
		"size_bytes": snap.SizeBytes,
	}); err != nil {
		r.log.Warn("recording backup event failed", "error", err)
	}
}

func (r *Runner) restartIfDue(ctx context.Context) {
	if r.cfg.AutoRestartHours <= 0 {
		return
	}
	if pending, _ := r.restarts.RestartPending(); pending {
		return
	}

	threshold := time.Duration(r.cfg.AutoRestartHours) * time.Hour
	uptime := r.restarts.Uptime()
	if uptime < threshold {
		return
	}

	if err := r.restarts.ScheduleRestart(restartDelay); err != nil {
		if !errors.Is(err, system.ErrRestartPending) {
			r.log.Error("scheduling restart failed", "error", err)
		}
		return
	}
	r.log.Warn("auto restart armed",
		"uptime_hours", uptime.Hours(), "threshold_hours", r.cfg.AutoRestartHours)
	if err := r.recorder.AppendEvent(ctx, events.KindRestartScheduled, map[string]any{
		"uptime_hours":  uptime.Hours(),
		"delay_seconds": restartDelay.Seconds(),
	}); err != nil {
		r.log.Warn("recording restart event failed", "error", err)
	}
}
