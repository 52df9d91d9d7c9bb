package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Pawfeed Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site        SiteConfig        `yaml:"site"`
	Database    DatabaseConfig    `yaml:"database"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
	Scale       ScaleConfig       `yaml:"scale"`
	Dispenser   DispenserConfig   `yaml:"dispenser"`
	Schedules   []ScheduleConfig  `yaml:"schedules"`
	Safety      SafetyConfig      `yaml:"safety"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Health      HealthConfig      `yaml:"health"`
}

// SiteConfig contains deployment-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// ScaleConfig contains weight sensor settings.
//
// The pin assignments are consumed by the hardware driver; the thresholds
// drive presence classification in the feeder core.
type ScaleConfig struct {
	// DoutPin is the GPIO pin for the load cell amplifier data line.
	DoutPin int `yaml:"dout_pin"`

	// SckPin is the GPIO pin for the load cell amplifier clock line.
	SckPin int `yaml:"sck_pin"`

	// CalibrationFactor converts raw amplifier counts to grams.
	CalibrationFactor float64 `yaml:"calibration_factor"`

	// SampleInterval is the weight sampling period in milliseconds.
	SampleInterval int `yaml:"sample_interval_ms"`

	// WindowSize is the number of recent samples averaged for smoothing.
	WindowSize int `yaml:"window_size"`

	// MinCatWeight is the lower bound (kg) for a qualifying presence load.
	MinCatWeight float64 `yaml:"min_cat_weight"`

	// MaxCatWeight is the upper bound (kg) for a qualifying presence load.
	MaxCatWeight float64 `yaml:"max_cat_weight"`

	// TareThreshold is the minimum load (kg) distinguishable from an empty scale.
	TareThreshold float64 `yaml:"tare_threshold"`
}

// DispenserConfig contains food dispenser actuator settings.
type DispenserConfig struct {
	// Pin is the GPIO pin driving the dispenser servo.
	Pin int `yaml:"pin"`

	// GramsPerSecond is the calibrated dispensing rate.
	GramsPerSecond float64 `yaml:"grams_per_second"`

	// MinDispenseSeconds clamps the shortest dispense run.
	MinDispenseSeconds float64 `yaml:"min_dispense_seconds"`

	// MaxDispenseSeconds clamps the longest dispense run.
	MaxDispenseSeconds float64 `yaml:"max_dispense_seconds"`
}

// ScheduleConfig describes one time-of-day feeding slot.
type ScheduleConfig struct {
	// Time is the slot in HH:MM (24h, local time).
	Time string `yaml:"time"`

	// PortionGrams is the amount to dispense when the slot fires.
	PortionGrams float64 `yaml:"portion"`

	// Enabled toggles the slot without removing it.
	Enabled bool `yaml:"enabled"`

	// Name is a human-readable label (e.g. "Breakfast").
	Name string `yaml:"name"`
}

// SafetyConfig contains feeding safety limits enforced by the gate.
type SafetyConfig struct {
	// MaxDailyFeedings caps the number of dispenses per calendar date.
	MaxDailyFeedings int `yaml:"max_daily_feedings"`

	// MinFeedingIntervalMinutes is the minimum spacing between dispenses.
	MinFeedingIntervalMinutes int `yaml:"min_feeding_interval_minutes"`

	// MaxPortionGrams caps a single dispense.
	MaxPortionGrams float64 `yaml:"max_portion_grams"`

	// FeedPollInterval is the schedule evaluation period in seconds.
	FeedPollInterval int `yaml:"feed_poll_interval_seconds"`
}

// MaintenanceConfig contains background maintenance cadences.
type MaintenanceConfig struct {
	// AutoRestartHours requests a deferred restart once uptime exceeds this.
	// Zero disables the restart cadence.
	AutoRestartHours int `yaml:"auto_restart_hours"`

	// BackupIntervalHours is the minimum spacing between backups.
	BackupIntervalHours int `yaml:"backup_interval_hours"`

	// BackupDir is where backup snapshots are written.
	BackupDir string `yaml:"backup_dir"`

	// MaxBackups is how many snapshots to retain; older ones are pruned.
	MaxBackups int `yaml:"max_backups"`

	// CleanupDays is the retention horizon for persisted events and metrics.
	CleanupDays int `yaml:"cleanup_days"`

	// Interval is the maintenance pass period in minutes.
	Interval int `yaml:"interval_minutes"`
}

// HealthConfig contains health sampling settings and alert thresholds.
type HealthConfig struct {
	// IntervalMinutes is the sampling pass period.
	IntervalMinutes int `yaml:"interval_minutes"`

	// CPUPercent is the CPU load alert threshold.
	CPUPercent float64 `yaml:"cpu_percent"`

	// MemoryPercent is the memory use alert threshold.
	MemoryPercent float64 `yaml:"memory_percent"`

	// DiskPercent is the storage use alert threshold.
	DiskPercent float64 `yaml:"disk_percent"`

	// TemperatureC is the CPU temperature alert threshold in Celsius.
	TemperatureC float64 `yaml:"temperature_c"`

	// DatabaseMB is the database file size alert threshold.
	DatabaseMB float64 `yaml:"database_mb"`

	// LogMB is the log file size alert threshold.
	LogMB float64 `yaml:"log_mb"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PAWFEED_SECTION_KEY
// For example: PAWFEED_DATABASE_PATH, PAWFEED_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "feeder-001",
			Name:     "Pawfeed",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/pawfeed.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "pawfeed-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File:   "./data/pawfeed.log",
		},
		Scale: ScaleConfig{
			DoutPin:           5,
			SckPin:            6,
			CalibrationFactor: 2280.0,
			SampleInterval:    500,
			WindowSize:        10,
			MinCatWeight:      2.0,
			MaxCatWeight:      8.0,
			TareThreshold:     0.1,
		},
		Dispenser: DispenserConfig{
			Pin:                18,
			GramsPerSecond:     10,
			MinDispenseSeconds: 0.5,
			MaxDispenseSeconds: 5.0,
		},
		Schedules: []ScheduleConfig{
			{Time: "08:00", PortionGrams: 50, Enabled: true, Name: "Breakfast"},
			{Time: "12:00", PortionGrams: 50, Enabled: true, Name: "Lunch"},
			{Time: "18:00", PortionGrams: 50, Enabled: true, Name: "Dinner"},
		},
		Safety: SafetyConfig{
			MaxDailyFeedings:          10,
			MinFeedingIntervalMinutes: 120,
			MaxPortionGrams:           200,
			FeedPollInterval:          30,
		},
		Maintenance: MaintenanceConfig{
			AutoRestartHours:    168,
			BackupIntervalHours: 24,
			BackupDir:           "./data/backups",
			MaxBackups:          7,
			CleanupDays:         30,
			Interval:            60,
		},
		Health: HealthConfig{
			IntervalMinutes: 30,
			CPUPercent:      80.0,
			MemoryPercent:   85.0,
			DiskPercent:     90.0,
			TemperatureC:    70.0,
			DatabaseMB:      100,
			LogMB:           50,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PAWFEED_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("PAWFEED_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("PAWFEED_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PAWFEED_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("PAWFEED_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PAWFEED_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("PAWFEED_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Maintenance
	if v := os.Getenv("PAWFEED_BACKUP_DIR"); v != "" {
		cfg.Maintenance.BackupDir = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Scale validation
	if c.Scale.WindowSize < 1 {
		errs = append(errs, "scale.window_size must be at least 1")
	}
	if c.Scale.MinCatWeight <= 0 || c.Scale.MaxCatWeight <= c.Scale.MinCatWeight {
		errs = append(errs, "scale weight bounds must satisfy 0 < min_cat_weight < max_cat_weight")
	}
	if c.Scale.TareThreshold < 0 {
		errs = append(errs, "scale.tare_threshold must be non-negative")
	}

	// Dispenser validation
	if c.Dispenser.GramsPerSecond <= 0 {
		errs = append(errs, "dispenser.grams_per_second must be positive")
	}

	// Schedule validation
	for i, s := range c.Schedules {
		if !validTimeOfDay(s.Time) {
			errs = append(errs, fmt.Sprintf("schedules[%d].time %q must be HH:MM", i, s.Time))
		}
		if s.PortionGrams <= 0 {
			errs = append(errs, fmt.Sprintf("schedules[%d].portion must be positive", i))
		}
	}

	// Safety validation
	if c.Safety.MaxDailyFeedings < 1 || c.Safety.MaxDailyFeedings > 50 {
		errs = append(errs, "safety.max_daily_feedings must be 1-50")
	}
	if c.Safety.MinFeedingIntervalMinutes < 0 {
		errs = append(errs, "safety.min_feeding_interval_minutes must be non-negative")
	}
	if c.Safety.MaxPortionGrams <= 0 {
		errs = append(errs, "safety.max_portion_grams must be positive")
	}

	// Maintenance validation
	if c.Maintenance.AutoRestartHours < 0 {
		errs = append(errs, "maintenance.auto_restart_hours must be non-negative")
	}
	if c.Maintenance.BackupIntervalHours < 1 {
		errs = append(errs, "maintenance.backup_interval_hours must be at least 1")
	}
	if c.Maintenance.CleanupDays < 1 {
		errs = append(errs, "maintenance.cleanup_days must be at least 1")
	}

	// Health validation
	if c.Health.IntervalMinutes < 1 {
		errs = append(errs, "health.interval_minutes must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validTimeOfDay reports whether s is a valid HH:MM time-of-day string.
func validTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// SampleInterval returns the weight sampling period as a Duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Scale.SampleInterval) * time.Millisecond
}

// FeedPollInterval returns the schedule evaluation period as a Duration.
func (c *Config) FeedPollInterval() time.Duration {
	return time.Duration(c.Safety.FeedPollInterval) * time.Second
}

// MinFeedingInterval returns the minimum spacing between dispenses as a Duration.
func (c *Config) MinFeedingInterval() time.Duration {
	return time.Duration(c.Safety.MinFeedingIntervalMinutes) * time.Minute
}

// HealthInterval returns the health sampling period as a Duration.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.Health.IntervalMinutes) * time.Minute
}

// MaintenanceInterval returns the maintenance pass period as a Duration.
func (c *Config) MaintenanceInterval() time.Duration {
	return time.Duration(c.Maintenance.Interval) * time.Minute
}
