// Package influxdb provides time-series metric storage for Pawfeed.
//
// The client wraps the official InfluxDB v2 Go client with non-blocking
// batched writes, connection health checks, and async error reporting.
//
// Measurements:
//
//	weight    raw and smoothed scale readings with presence flag
//	feedings  completed dispenses with portion size and daily count
//	health    periodic system health metrics tagged by kind
//
// InfluxDB is optional: when disabled in configuration, Connect returns
// ErrDisabled and callers run without time-series storage. SQLite remains
// the source of truth for the event log either way.
package influxdb
