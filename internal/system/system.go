package system

import (
	"errors"
	"sync"
	"time"

	"github.com/shirou/gopsutil/host"

	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
)

// ErrRestartPending is returned when a restart is already armed.
var ErrRestartPending = errors.New("system: restart already scheduled")

// hostUptime is swappable for tests.
var hostUptime = host.Uptime

// RestartFunc performs the actual restart. The default implementation is
// injected by the daemon entrypoint.
type RestartFunc func() error

// Manager tracks process lifetime and arms a one-shot deferred restart.
type Manager struct {
	mu             sync.Mutex
	restartPending bool
	restartAt      time.Time
	timer          *time.Timer

	startedAt time.Time
	restart   RestartFunc
	log       *logging.Logger
}

// New builds a Manager. The restart function runs once when an armed
// restart fires; a nil function makes ScheduleRestart log and do nothing
// else, which is useful in tests.
func New(restart RestartFunc, log *logging.Logger) *Manager {
	return &Manager{
		startedAt: time.Now(),
		restart:   restart,
		log:       log.With("component", "system"),
	}
}

// Uptime returns how long the host has been up. Falls back to the age of
// this process when the kernel boot time is unreadable.
func (m *Manager) Uptime() time.Duration {
	seconds, err := hostUptime()
	if err != nil || seconds == 0 {
		return time.Since(m.startedAt)
	}
	return time.Duration(seconds) * time.Second
}

// ProcessUptime returns how long this daemon process has been running.
func (m *Manager) ProcessUptime() time.Duration {
	return time.Since(m.startedAt)
}

// ScheduleRestart arms a restart after the given delay. Only one restart
// can be armed per process lifetime.
//
// Parameters:
//   - delay: how long to wait before firing; zero fires immediately
//
// Returns:
//   - error: ErrRestartPending when already armed
func (m *Manager) ScheduleRestart(delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.restartPending {
		return ErrRestartPending
	}
	m.restartPending = true
	m.restartAt = time.Now().Add(delay)
	m.log.Warn("restart scheduled", "delay", delay.String())

	m.timer = time.AfterFunc(delay, m.fireRestart)
	return nil
}

// RestartPending reports whether a restart is armed, and for when.
func (m *Manager) RestartPending() (bool, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restartPending, m.restartAt
}

// CancelRestart disarms a pending restart. Reports whether one was armed.
func (m *Manager) CancelRestart() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.restartPending {
		return false
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.restartPending = false
	m.log.Info("restart cancelled")
	return true
}

func (m *Manager) fireRestart() {
	if m.restart == nil {
		m.log.Warn("restart fired with no restart function configured")
		return
	}
	m.log.Warn("restarting")
	if err := m.restart(); err != nil {
		m.log.Error("restart failed", "error", err)
		m.mu.Lock()
		m.restartPending = false
		m.timer = nil
		m.mu.Unlock()
	}
}
