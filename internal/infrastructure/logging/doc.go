// Package logging provides structured logging for Pawfeed Core.
//
// It wraps log/slog with configuration-driven setup: output format
// (JSON or text), level filtering, and default fields (service, version).
//
// # Usage
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("dispensed", "portion_grams", 50, "daily_count", 2)
//
//	feedLog := log.With("component", "feeder")
//	feedLog.Warn("dispense rejected", "reason", "daily_limit")
//
// Use Default() only during early startup before configuration is loaded.
package logging
