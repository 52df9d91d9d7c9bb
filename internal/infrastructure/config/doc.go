// Package config provides configuration loading and validation for Pawfeed Core.
//
// Configuration flows through three layers, later layers overriding earlier:
//
//  1. Hardcoded defaults (defaultConfig)
//  2. YAML file (configs/config.yaml by default)
//  3. Environment variables (PAWFEED_SECTION_KEY)
//
// The resulting Config is validated once at startup and treated as immutable
// for the lifetime of the process. Components receive the sections they need
// by value; none of them mutate configuration at runtime. The one exception
// is the feeding schedule list, which the feeder controller copies into its
// own state and can replace wholesale via UpdateSchedules.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	log := logging.New(cfg.Logging, version)
package config
