package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pawprint-systems/pawfeed-core/internal/backup"
	"github.com/pawprint-systems/pawfeed-core/internal/events"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
)

// === Mocks ===

type mockCleaner struct {
	days    []int
	deleted int64
	err     error
}

func (m *mockCleaner) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	m.days = append(m.days, days)
	return m.deleted, m.err
}

type mockBackups struct {
	latest    backup.Snapshot
	hasLatest bool
	listErr   error

	created   int
	createErr error
}

func (m *mockBackups) CreateBackup(context.Context) (backup.Snapshot, error) {
	if m.createErr != nil {
		return backup.Snapshot{}, m.createErr
	}
	m.created++
	snap := backup.Snapshot{Name: "pawfeed-backup-test.db.gz", CreatedAt: time.Now(), SizeBytes: 64}
	m.latest = snap
	m.hasLatest = true
	return snap, nil
}

func (m *mockBackups) LatestBackup() (backup.Snapshot, bool, error) {
	return m.latest, m.hasLatest, m.listErr
}

type mockRestarter struct {
	uptime    time.Duration
	pending   bool
	scheduled int
}

func (m *mockRestarter) Uptime() time.Duration { return m.uptime }

func (m *mockRestarter) RestartPending() (bool, time.Time) { return m.pending, time.Time{} }

func (m *mockRestarter) ScheduleRestart(time.Duration) error {
	m.scheduled++
	m.pending = true
	return nil
}

type mockRecorder struct {
	kinds []string
	err   error
}

func (m *mockRecorder) AppendEvent(_ context.Context, kind string, _ map[string]any) error {
	m.kinds = append(m.kinds, kind)
	return m.err
}

// === Helpers ===

func testMaintenanceConfig() config.MaintenanceConfig {
	return config.MaintenanceConfig{
		AutoRestartHours:    168,
		BackupIntervalHours: 24,
		MaxBackups:          7,
		CleanupDays:         30,
		Interval:            60,
	}
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

func newTestRunner(cfg config.MaintenanceConfig) (*Runner, *mockCleaner, *mockBackups, *mockRestarter, *mockRecorder) {
	cleaner := &mockCleaner{}
	backups := &mockBackups{}
	restarts := &mockRestarter{}
	recorder := &mockRecorder{}
	return New(cfg, cleaner, backups, restarts, recorder, testLogger()), cleaner, backups, restarts, recorder
}

// === Tests ===

func TestPassRunsCleanup(t *testing.T) {
	r, cleaner, _, _, _ := newTestRunner(testMaintenanceConfig())
	cleaner.deleted = 12

	r.Pass(context.Background())

	if len(cleaner.days) != 1 || cleaner.days[0] != 30 {
		t.Errorf("DeleteOlderThan days = %v, want [30]", cleaner.days)
	}
}

func TestPassCreatesFirstBackup(t *testing.T) {
	r, _, backups, _, recorder := newTestRunner(testMaintenanceConfig())

	r.Pass(context.Background())

	if backups.created != 1 {
		t.Fatalf("CreateBackup called %d times, want 1", backups.created)
	}
	if len(recorder.kinds) != 1 || recorder.kinds[0] != events.KindBackupCreated {
		t.Errorf("recorded event kinds = %v, want [%s]", recorder.kinds, events.KindBackupCreated)
	}
}

func TestPassSkipsRecentBackup(t *testing.T) {
	r, _, backups, _, _ := newTestRunner(testMaintenanceConfig())
	backups.hasLatest = true
	backups.latest = backup.Snapshot{CreatedAt: time.Now().Add(-time.Hour)}

	r.Pass(context.Background())

	if backups.created != 0 {
		t.Errorf("CreateBackup called %d times for a fresh backup, want 0", backups.created)
	}
}

func TestPassReplacesStaleBackup(t *testing.T) {
	r, _, backups, _, _ := newTestRunner(testMaintenanceConfig())
	backups.hasLatest = true
	backups.latest = backup.Snapshot{CreatedAt: time.Now().Add(-25 * time.Hour)}

	r.Pass(context.Background())

	if backups.created != 1 {
		t.Errorf("CreateBackup called %d times for a stale backup, want 1", backups.created)
	}
}

func TestPassSchedulesRestartOnce(t *testing.T) {
	r, _, _, restarts, recorder := newTestRunner(testMaintenanceConfig())
	restarts.uptime = 169 * time.Hour

	r.Pass(context.Background())
	r.Pass(context.Background())

	if restarts.scheduled != 1 {
		t.Errorf("ScheduleRestart called %d times, want 1", restarts.scheduled)
	}
	found := false
	for _, kind := range recorder.kinds {
		if kind == events.KindRestartScheduled {
			found = true
		}
	}
	if !found {
		t.Errorf("restart event not recorded; kinds = %v", recorder.kinds)
	}
}

func TestPassRestartBelowThreshold(t *testing.T) {
	r, _, _, restarts, _ := newTestRunner(testMaintenanceConfig())
	restarts.uptime = 100 * time.Hour

	r.Pass(context.Background())

	if restarts.scheduled != 0 {
		t.Errorf("ScheduleRestart called %d times below threshold, want 0", restarts.scheduled)
	}
}

func TestPassRestartDisabled(t *testing.T) {
	cfg := testMaintenanceConfig()
	cfg.AutoRestartHours = 0
	r, _, _, restarts, _ := newTestRunner(cfg)
	restarts.uptime = 10000 * time.Hour

	r.Pass(context.Background())

	if restarts.scheduled != 0 {
		t.Errorf("ScheduleRestart called %d times while disabled, want 0", restarts.scheduled)
	}
}

func TestPassActionFailuresIsolated(t *testing.T) {
	r, cleaner, backups, restarts, _ := newTestRunner(testMaintenanceConfig())
	cleaner.err = errors.New("locked")
	restarts.uptime = 200 * time.Hour

	r.Pass(context.Background())

	if backups.created != 1 {
		t.Errorf("backup skipped after cleanup failure; created = %d, want 1", backups.created)
	}
	if restarts.scheduled != 1 {
		t.Errorf("restart skipped after cleanup failure; scheduled = %d, want 1", restarts.scheduled)
	}
}

func TestPassBackupFailureIsolated(t *testing.T) {
	r, cleaner, backups, _, recorder := newTestRunner(testMaintenanceConfig())
	backups.createErr = errors.New("disk full")

	r.Pass(context.Background())

	if len(cleaner.days) != 1 {
		t.Errorf("cleanup ran %d times, want 1", len(cleaner.days))
	}
	if len(recorder.kinds) != 0 {
		t.Errorf("recorded events %v after backup failure, want none", recorder.kinds)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testMaintenanceConfig()
	cfg.Interval = 1
	r, cleaner, _, _, _ := newTestRunner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}

	if len(cleaner.days) == 0 {
		t.Error("first pass did not run immediately")
	}
}
