// Pawfeed Core - Automated Cat Feeder Daemon
//
// This is the main entry point for the Pawfeed Core daemon. Pawfeed runs
// an automated cat feeder: it samples the platform scale, gates every
// dispense through the safety checks, follows the feeding schedule, and
// keeps the deployment healthy with periodic maintenance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/pawprint-systems/pawfeed-core/migrations"

	"github.com/pawprint-systems/pawfeed-core/internal/backup"
	"github.com/pawprint-systems/pawfeed-core/internal/events"
	"github.com/pawprint-systems/pawfeed-core/internal/feeder"
	"github.com/pawprint-systems/pawfeed-core/internal/hardware"
	"github.com/pawprint-systems/pawfeed-core/internal/health"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/database"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/influxdb"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/mqtt"
	"github.com/pawprint-systems/pawfeed-core/internal/maintenance"
	"github.com/pawprint-systems/pawfeed-core/internal/system"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// statusPublishInterval is how often the retained status snapshot is
// refreshed on MQTT.
const statusPublishInterval = time.Minute

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual daemon logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// The restart manager cancels this inner context; under a supervisor
	// with Restart=always a clean exit is a restart.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Pawfeed Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	repo := events.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Hardware drivers. Simulated scale and dispenser until GPIO drivers
	// land; the dispense timing model matches the real auger.
	scale := hardware.NewSimScale(time.Now().UnixNano())
	dispenser := hardware.NewSimDispenser(cfg.Dispenser)

	// Feeder controller with telemetry fan-out
	sink := newTelemetrySink(repo, mqttClient, influxClient, byte(cfg.MQTT.QoS), log)
	controller := feeder.New(cfg, scale, dispenser, sink, log)
	sink.bindStatus(controller.Status)
	log.Info("feeder controller initialised", "schedules", len(cfg.Schedules))

	// Health sampler, forwarding alerts and metrics to telemetry
	sampler := health.New(cfg.Health, repo, db.Size, cfg.Logging.File, log)
	sampler.SetAlertHook(func(alert health.Alert) {
		sink.publishAlert(alert)
	})
	sampler.SetMetricHook(func(kind string, value float64) {
		if influxClient != nil {
			influxClient.WriteHealthMetric(kind, value)
		}
	})

	// Maintenance: cleanup, backups, auto restart
	restarts := system.New(func() error {
		cancel()
		return nil
	}, log)
	store := backup.New(cfg.Maintenance, cfg.Database.Path, log)
	runner := maintenance.New(cfg.Maintenance, repo, store, restarts, repo, log)

	// Remote commands over MQTT
	if mqttClient != nil {
		if err := registerCommands(ctx, mqttClient, controller, scale, store, sink, byte(cfg.MQTT.QoS), log); err != nil {
			return fmt.Errorf("registering command handlers: %w", err)
		}
		log.Info("command handlers registered")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Background loops
	var wg sync.WaitGroup
	runLoop := func(name string, loop func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := loop(ctx); err != nil {
				log.Error("loop exited with error", "loop", name, "error", err)
			}
		}()
	}
	runLoop("weight-sampling", controller.Run)
	runLoop("feed-scheduler", controller.RunScheduler)
	runLoop("health-sampler", sampler.Run)
	runLoop("maintenance", runner.Run)
	if mqttClient != nil {
		runLoop("status-publisher", func(ctx context.Context) error {
			return publishStatusLoop(ctx, controller, sink)
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	wg.Wait()

	log.Info("Pawfeed Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PAWFEED_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PAWFEED_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// publishStatusLoop refreshes the retained status topic until cancelled.
func publishStatusLoop(ctx context.Context, controller *feeder.Controller, sink *telemetrySink) error {
	sink.publishStatus(controller.Status())

	ticker := time.NewTicker(statusPublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sink.publishStatus(controller.Status())
		}
	}
}
