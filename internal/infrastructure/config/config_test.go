package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes YAML content to a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "site:\n  id: test-feeder\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-feeder" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-feeder")
	}
	if cfg.Scale.WindowSize != 10 {
		t.Errorf("Scale.WindowSize = %d, want 10", cfg.Scale.WindowSize)
	}
	if cfg.Safety.MaxDailyFeedings != 10 {
		t.Errorf("Safety.MaxDailyFeedings = %d, want 10", cfg.Safety.MaxDailyFeedings)
	}
	if cfg.Safety.MaxPortionGrams != 200 {
		t.Errorf("Safety.MaxPortionGrams = %v, want 200", cfg.Safety.MaxPortionGrams)
	}
	if len(cfg.Schedules) != 3 {
		t.Fatalf("len(Schedules) = %d, want 3", len(cfg.Schedules))
	}
	if cfg.Schedules[0].Name != "Breakfast" || cfg.Schedules[0].Time != "08:00" {
		t.Errorf("Schedules[0] = %+v, want Breakfast at 08:00", cfg.Schedules[0])
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  id: feeder-42
safety:
  max_daily_feedings: 4
  min_feeding_interval_minutes: 60
scale:
  min_cat_weight: 1.5
  max_cat_weight: 9.0
schedules:
  - time: "07:30"
    portion: 40
    enabled: true
    name: Early
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Safety.MaxDailyFeedings != 4 {
		t.Errorf("Safety.MaxDailyFeedings = %d, want 4", cfg.Safety.MaxDailyFeedings)
	}
	if got := cfg.MinFeedingInterval(); got != time.Hour {
		t.Errorf("MinFeedingInterval() = %v, want 1h", got)
	}
	if len(cfg.Schedules) != 1 || cfg.Schedules[0].Name != "Early" {
		t.Errorf("Schedules = %+v, want single Early entry", cfg.Schedules)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "site:\n  id: env-test\n")

	t.Setenv("PAWFEED_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("PAWFEED_MQTT_HOST", "broker.local")
	t.Setenv("PAWFEED_MQTT_PORT", "8883")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want broker.local", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() with missing file should return error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty site id",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: "site.id",
		},
		{
			name:    "bad qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "zero window",
			mutate:  func(c *Config) { c.Scale.WindowSize = 0 },
			wantErr: "window_size",
		},
		{
			name:    "inverted weight bounds",
			mutate:  func(c *Config) { c.Scale.MinCatWeight = 9; c.Scale.MaxCatWeight = 2 },
			wantErr: "min_cat_weight",
		},
		{
			name:    "bad schedule time",
			mutate:  func(c *Config) { c.Schedules = []ScheduleConfig{{Time: "25:99", PortionGrams: 50}} },
			wantErr: "HH:MM",
		},
		{
			name:    "non-positive portion",
			mutate:  func(c *Config) { c.Schedules = []ScheduleConfig{{Time: "08:00", PortionGrams: 0}} },
			wantErr: "portion",
		},
		{
			name:    "excessive daily limit",
			mutate:  func(c *Config) { c.Safety.MaxDailyFeedings = 99 },
			wantErr: "max_daily_feedings",
		},
		{
			name:    "zero max portion",
			mutate:  func(c *Config) { c.Safety.MaxPortionGrams = 0 },
			wantErr: "max_portion_grams",
		},
		{
			name:    "negative restart hours",
			mutate:  func(c *Config) { c.Maintenance.AutoRestartHours = -1 },
			wantErr: "auto_restart_hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidTimeOfDay(t *testing.T) {
	valid := []string{"00:00", "08:00", "23:59"}
	invalid := []string{"24:00", "8am", "08:60", "", "8:0:0"}

	for _, s := range valid {
		if !validTimeOfDay(s) {
			t.Errorf("validTimeOfDay(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if validTimeOfDay(s) {
			t.Errorf("validTimeOfDay(%q) = true, want false", s)
		}
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.SampleInterval(); got != 500*time.Millisecond {
		t.Errorf("SampleInterval() = %v, want 500ms", got)
	}
	if got := cfg.FeedPollInterval(); got != 30*time.Second {
		t.Errorf("FeedPollInterval() = %v, want 30s", got)
	}
	if got := cfg.MinFeedingInterval(); got != 2*time.Hour {
		t.Errorf("MinFeedingInterval() = %v, want 2h", got)
	}
	if got := cfg.HealthInterval(); got != 30*time.Minute {
		t.Errorf("HealthInterval() = %v, want 30m", got)
	}
	if got := cfg.MaintenanceInterval(); got != time.Hour {
		t.Errorf("MaintenanceInterval() = %v, want 1h", got)
	}
}
