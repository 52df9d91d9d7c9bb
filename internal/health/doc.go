// Package health samples system metrics and raises threshold alerts.
//
// The Sampler runs a periodic pass (default every 30 minutes) collecting CPU
// load, memory use, disk use, CPU temperature, and the database and log file
// sizes. Each metric keeps a bounded in-memory window of recent samples;
// values exceeding their configured threshold raise an Alert classified by a
// fixed severity table (thermal and capacity kinds are critical, load and
// memory are warning, the rest informational).
//
// Alerts land in a bounded ring buffer, are appended to the activity log,
// and can be forwarded to telemetry through the optional hooks. A collection
// failure for one metric never blocks the others in the same pass.
package health
