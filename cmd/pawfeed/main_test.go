package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pawprint-systems/pawfeed-core/internal/feeder"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
)

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("PAWFEED_CONFIG")
	defer os.Setenv("PAWFEED_CONFIG", originalEnv)

	os.Unsetenv("PAWFEED_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("PAWFEED_CONFIG")
	defer os.Setenv("PAWFEED_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("PAWFEED_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("PAWFEED_CONFIG")
	defer os.Setenv("PAWFEED_CONFIG", originalEnv)

	os.Setenv("PAWFEED_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_StartupAndShutdown exercises the full wiring with MQTT and
// InfluxDB disabled, then shuts down via context timeout.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")
	backupDir := filepath.Join(tmpDir, "backups")

	configContent := `
site:
  id: test-feeder

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout

maintenance:
  backup_dir: "` + backupDir + `"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("PAWFEED_CONFIG")
	defer os.Setenv("PAWFEED_CONFIG", originalEnv)
	os.Setenv("PAWFEED_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v, want clean shutdown", err)
	}

	// The first maintenance pass runs at startup, so a backup exists.
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("reading backup dir: %v", err)
	}
	if len(entries) == 0 {
		t.Error("no backup created during startup maintenance pass")
	}
}

// TestTelemetrySink_OfflineFallsBackToRepo verifies the sink persists
// through the repository with no MQTT or InfluxDB wired.
func TestTelemetrySink_OfflineFallsBackToRepo(t *testing.T) {
	repo := newTestRepository(t)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	sink := newTelemetrySink(repo, nil, nil, 1, log)
	ctx := context.Background()

	if err := sink.RecordEvent(ctx, "cat_detected", map[string]any{"weight_kg": 4.2}); err != nil {
		t.Errorf("RecordEvent() error = %v", err)
	}
	if err := sink.RecordFeeding(ctx, 50, 4.2, 1); err != nil {
		t.Errorf("RecordFeeding() error = %v", err)
	}
	if err := sink.RecordWeight(ctx, 4.2); err != nil {
		t.Errorf("RecordWeight() error = %v", err)
	}

	recent, err := repo.RecentEvents(ctx, 50)
	if err != nil {
		t.Fatalf("RecentEvents() error = %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("RecentEvents() returned %d events, want 1", len(recent))
	}
}

// TestStatusMarshalling verifies the retained status payload encodes the
// presence state by name.
func TestStatusMarshalling(t *testing.T) {
	status := feeder.Status{
		WeightKg: 4.2,
		Presence: feeder.Present,
		Running:  true,
	}

	data, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("marshalling status: %v", err)
	}
	if !strings.Contains(string(data), `"presence":"present"`) {
		t.Errorf("status payload %s does not encode presence by name", data)
	}
}

// TestFeedCommandDecoding verifies feed command payload handling.
func TestFeedCommandDecoding(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
	}{
		{"explicit portion", `{"portion_grams": 30}`, 30},
		{"zero portion falls back", `{"portion_grams": 0}`, defaultManualPortionGrams},
		{"empty object falls back", `{}`, defaultManualPortionGrams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command := feedCommand{PortionGrams: defaultManualPortionGrams}
			if err := json.Unmarshal([]byte(tt.payload), &command); err != nil {
				t.Fatalf("decoding %q: %v", tt.payload, err)
			}
			if command.PortionGrams <= 0 {
				command.PortionGrams = defaultManualPortionGrams
			}
			if command.PortionGrams != tt.want {
				t.Errorf("portion = %v, want %v", command.PortionGrams, tt.want)
			}
		})
	}
}
