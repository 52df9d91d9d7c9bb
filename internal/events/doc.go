// Package events provides the append-only activity log backing the feeder.
//
// The log records feeder events (detections, dispenses, rejections, alerts),
// completed feedings, scale readings, and health metrics in SQLite. History
// queries serve reporting; retention cleanup bounds growth while keeping
// feeding records indefinitely.
//
// All timestamps are stored as RFC3339 UTC strings.
package events
