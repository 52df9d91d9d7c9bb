package system

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
)

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

func TestUptimeFromHost(t *testing.T) {
	orig := hostUptime
	hostUptime = func() (uint64, error) { return 7200, nil }
	defer func() { hostUptime = orig }()

	m := New(nil, testLogger())
	if got := m.Uptime(); got != 2*time.Hour {
		t.Errorf("Uptime() = %v, want 2h", got)
	}
}

func TestUptimeFallsBackToProcess(t *testing.T) {
	orig := hostUptime
	hostUptime = func() (uint64, error) { return 0, errors.New("no boot time") }
	defer func() { hostUptime = orig }()

	m := New(nil, testLogger())
	m.startedAt = time.Now().Add(-30 * time.Minute)

	got := m.Uptime()
	if got < 29*time.Minute || got > 31*time.Minute {
		t.Errorf("Uptime() = %v, want about 30m", got)
	}
}

func TestScheduleRestartFiresOnce(t *testing.T) {
	var (
		mu    sync.Mutex
		fired int
	)
	m := New(func() error {
		mu.Lock()
		fired++
		mu.Unlock()
		return nil
	}, testLogger())

	if err := m.ScheduleRestart(5 * time.Millisecond); err != nil {
		t.Fatalf("ScheduleRestart() error = %v", err)
	}
	if err := m.ScheduleRestart(5 * time.Millisecond); !errors.Is(err, ErrRestartPending) {
		t.Errorf("second ScheduleRestart() error = %v, want ErrRestartPending", err)
	}

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := fired
		mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("restart fired %d times, want 1", n)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestCancelRestart(t *testing.T) {
	var (
		mu    sync.Mutex
		fired int
	)
	m := New(func() error {
		mu.Lock()
		fired++
		mu.Unlock()
		return nil
	}, testLogger())

	if err := m.ScheduleRestart(50 * time.Millisecond); err != nil {
		t.Fatalf("ScheduleRestart() error = %v", err)
	}
	if !m.CancelRestart() {
		t.Error("CancelRestart() = false, want true")
	}
	if pending, _ := m.RestartPending(); pending {
		t.Error("RestartPending() = true after cancel")
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Errorf("restart fired %d times after cancel, want 0", fired)
	}

	if m.CancelRestart() {
		t.Error("CancelRestart() = true with nothing armed")
	}
}

func TestRestartPendingReportsDeadline(t *testing.T) {
	m := New(nil, testLogger())

	if pending, _ := m.RestartPending(); pending {
		t.Fatal("RestartPending() = true before arming")
	}
	if err := m.ScheduleRestart(time.Hour); err != nil {
		t.Fatalf("ScheduleRestart() error = %v", err)
	}
	pending, at := m.RestartPending()
	if !pending {
		t.Fatal("RestartPending() = false after arming")
	}
	if until := time.Until(at); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("restart deadline in %v, want about 1h", until)
	}
	m.CancelRestart()
}
