package health

import "time"

// Metric kinds collected each pass.
const (
	MetricCPU         = "cpu_usage"
	MetricMemory      = "memory_usage"
	MetricDisk        = "disk_usage"
	MetricTemperature = "temperature"
	MetricDatabaseMB  = "database_size_mb"
	MetricLogMB       = "log_size_mb"
)

// Severity levels for alerts.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is one threshold violation. Alerts are immutable after creation.
type Alert struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricSample is one collected value.
type MetricSample struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a point-in-time view of collected metrics and recent alerts.
type Snapshot struct {
	Metrics   map[string][]MetricSample `json:"metrics"`
	Alerts    []Alert                   `json:"alerts"`
	LastCheck time.Time                 `json:"last_check,omitzero"`
}

// alertKind maps a metric kind to its alert kind, matching the historical
// alert naming.
func alertKind(metric string) string {
	switch metric {
	case MetricDatabaseMB:
		return "large_database"
	case MetricLogMB:
		return "large_log_file"
	default:
		return "high_" + metric
	}
}

// severityFor classifies an alert kind.
//
// Thermal and storage-capacity violations can damage the deployment or lose
// data, so they are critical; load and memory pressure degrade but recover.
func severityFor(metric string) string {
	switch metric {
	case MetricTemperature, MetricDisk:
		return SeverityCritical
	case MetricCPU, MetricMemory:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
