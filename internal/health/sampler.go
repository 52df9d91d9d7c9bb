package health

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"

	"github.com/pawprint-systems/pawfeed-core/internal/events"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
)

const (
	// rawRetention bounds each in-memory metric window.
	rawRetention = 24 * time.Hour

	// maxAlerts bounds the alert ring buffer; oldest evicted first.
	maxAlerts = 100

	bytesPerMB = 1024 * 1024
)

// thermalZonePaths are tried in order when reading the CPU temperature.
var thermalZonePaths = []string{
	"/sys/class/thermal/thermal_zone0/temp",
	"/sys/class/hwmon/hwmon0/temp1_input",
	"/sys/class/hwmon/hwmon1/temp1_input",
}

// Recorder persists metrics and alert events.
type Recorder interface {
	AppendEvent(ctx context.Context, kind string, payload map[string]any) error
	AppendMetric(ctx context.Context, kind string, value float64) error
}

// Sampler collects system health metrics on a fixed cadence.
//
// The sampler's buffers use their own lock, independent of the feeding
// state mutex.
type Sampler struct {
	mu        sync.Mutex
	windows   map[string][]MetricSample
	alerts    []Alert
	lastCheck time.Time

	cfg      config.HealthConfig
	recorder Recorder
	dbSize   func() int64
	logPath  string
	log      *logging.Logger

	// Optional telemetry hooks, set before Run.
	onAlert  func(Alert)
	onMetric func(kind string, value float64)

	// Probes are swappable for testing.
	probeCPU    func() (float64, error)
	probeMemory func() (float64, error)
	probeDisk   func() (float64, error)
	probeTemp   func() (float64, error)
}

// New creates a Sampler wired to the real system probes.
//
// dbSize reports the database file size in bytes; logPath locates the log
// file whose size is monitored (empty disables that metric).
func New(cfg config.HealthConfig, recorder Recorder, dbSize func() int64, logPath string, log *logging.Logger) *Sampler {
	return &Sampler{
		windows:     make(map[string][]MetricSample),
		cfg:         cfg,
		recorder:    recorder,
		dbSize:      dbSize,
		logPath:     logPath,
		log:         log.With("component", "health"),
		probeCPU:    probeCPU,
		probeMemory: probeMemory,
		probeDisk:   probeDisk,
		probeTemp:   probeTemperature,
	}
}

// SetAlertHook registers a callback invoked for every new alert.
// Must be called before Run.
func (s *Sampler) SetAlertHook(hook func(Alert)) {
	s.onAlert = hook
}

// SetMetricHook registers a callback invoked for every collected metric.
// Must be called before Run.
func (s *Sampler) SetMetricHook(hook func(kind string, value float64)) {
	s.onMetric = hook
}

// Run executes sampling passes until the context is cancelled.
// The first pass runs immediately. Always returns nil.
func (s *Sampler) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	s.log.Info("health sampling started", "interval", interval.String())

	s.Pass(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("health sampling stopped")
			return nil
		case <-ticker.C:
			s.Pass(ctx)
		}
	}
}

// Pass runs one collection pass: gather every metric, evict stale window
// entries, and raise alerts for threshold violations. One failing probe
// never blocks the others.
func (s *Sampler) Pass(ctx context.Context) {
	now := time.Now().UTC()

	type probe struct {
		kind string
		fn   func() (float64, error)
	}
	probes := []probe{
		{MetricCPU, s.probeCPU},
		{MetricMemory, s.probeMemory},
		{MetricDisk, s.probeDisk},
		{MetricTemperature, s.probeTemp},
		{MetricDatabaseMB, s.probeDatabaseSize},
		{MetricLogMB, s.probeLogSize},
	}

	latest := make(map[string]float64, len(probes))
	for _, p := range probes {
		value, err := p.fn()
		if err != nil {
			// Temperature is routinely unavailable off-device.
			s.log.Debug("metric collection failed", "kind", p.kind, "error", err)
			continue
		}
		latest[p.kind] = value
		s.record(ctx, p.kind, value, now)
	}

	s.checkThresholds(ctx, latest, now)

	s.mu.Lock()
	s.lastCheck = now
	s.mu.Unlock()
}

// record appends a sample to its window, evicts entries beyond retention,
// and forwards the value to persistence and telemetry.
func (s *Sampler) record(ctx context.Context, kind string, value float64, now time.Time) {
	s.mu.Lock()
	window := append(s.windows[kind], MetricSample{Value: value, Timestamp: now})
	cutoff := now.Add(-rawRetention)
	for len(window) > 0 && window[0].Timestamp.Before(cutoff) {
		window = window[1:]
	}
	s.windows[kind] = window
	s.mu.Unlock()

	if err := s.recorder.AppendMetric(ctx, kind, value); err != nil {
		s.log.Warn("persisting metric failed", "kind", kind, "error", err)
	}
	if s.onMetric != nil {
		s.onMetric(kind, value)
	}
}

// checkThresholds raises an alert for every metric over its limit.
func (s *Sampler) checkThresholds(ctx context.Context, latest map[string]float64, now time.Time) {
	checks := []struct {
		kind      string
		threshold float64
		unit      string
	}{
		{MetricCPU, s.cfg.CPUPercent, "%"},
		{MetricMemory, s.cfg.MemoryPercent, "%"},
		{MetricDisk, s.cfg.DiskPercent, "%"},
		{MetricTemperature, s.cfg.TemperatureC, "°C"},
		{MetricDatabaseMB, s.cfg.DatabaseMB, "MB"},
		{MetricLogMB, s.cfg.LogMB, "MB"},
	}

	for _, c := range checks {
		value, ok := latest[c.kind]
		if !ok || c.threshold <= 0 || value <= c.threshold {
			continue
		}
		s.raiseAlert(ctx, Alert{
			Kind:      alertKind(c.kind),
			Message:   fmt.Sprintf("%s: %.1f%s (threshold %.1f%s)", c.kind, value, c.unit, c.threshold, c.unit),
			Severity:  severityFor(c.kind),
			Timestamp: now,
		})
	}
}

// raiseAlert appends to the ring buffer, persists the alert event, and
// notifies the telemetry hook.
func (s *Sampler) raiseAlert(ctx context.Context, alert Alert) {
	s.mu.Lock()
	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > maxAlerts {
		s.alerts = s.alerts[len(s.alerts)-maxAlerts:]
	}
	s.mu.Unlock()

	if alert.Severity == SeverityCritical {
		s.log.Error("health alert", "kind", alert.Kind, "message", alert.Message)
	} else {
		s.log.Warn("health alert", "kind", alert.Kind, "message", alert.Message)
	}

	err := s.recorder.AppendEvent(ctx, events.KindHealthAlert, map[string]any{
		"kind":     alert.Kind,
		"message":  alert.Message,
		"severity": alert.Severity,
	})
	if err != nil {
		s.log.Warn("persisting alert failed", "error", err)
	}

	if s.onAlert != nil {
		s.onAlert(alert)
	}
}

// Snapshot returns copies of the metric windows and recent alerts.
func (s *Sampler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics := make(map[string][]MetricSample, len(s.windows))
	for kind, window := range s.windows {
		cp := make([]MetricSample, len(window))
		copy(cp, window)
		metrics[kind] = cp
	}

	alerts := make([]Alert, len(s.alerts))
	copy(alerts, s.alerts)

	return Snapshot{
		Metrics:   metrics,
		Alerts:    alerts,
		LastCheck: s.lastCheck,
	}
}

// probeDatabaseSize reports the database file size in MB.
func (s *Sampler) probeDatabaseSize() (float64, error) {
	if s.dbSize == nil {
		return 0, fmt.Errorf("database size probe not configured")
	}
	return float64(s.dbSize()) / bytesPerMB, nil
}

// probeLogSize reports the log file size in MB. A missing file reads as 0.
func (s *Sampler) probeLogSize() (float64, error) {
	if s.logPath == "" {
		return 0, fmt.Errorf("log path not configured")
	}
	info, err := os.Stat(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return float64(info.Size()) / bytesPerMB, nil
}

// probeCPU reports instantaneous CPU load percent.
func probeCPU() (float64, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu readings")
	}
	return percents[0], nil
}

// probeMemory reports used memory percent.
func probeMemory() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// probeDisk reports root filesystem use percent.
func probeDisk() (float64, error) {
	usage, err := disk.Usage("/")
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}

// probeTemperature reads the CPU temperature from the thermal sysfs,
// trying the usual zone paths. Returns an error when none is readable.
func probeTemperature() (float64, error) {
	for _, path := range thermalZonePaths {
		data, err := os.ReadFile(path) // #nosec G304 -- fixed sysfs paths
		if err != nil {
			continue
		}
		raw, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			continue
		}
		return float64(raw) / 1000.0, nil // millidegrees
	}
	return 0, fmt.Errorf("no readable thermal zone")
}
