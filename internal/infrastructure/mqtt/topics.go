package mqtt

import "fmt"

// Topic prefixes for the Pawfeed MQTT namespace.
//
// All topics follow the scheme: pawfeed/{area}/{...}
const (
	// TopicPrefix is the base for all Pawfeed topics.
	TopicPrefix = "pawfeed"

	// TopicPrefixFeeder is the base for feeder activity topics.
	TopicPrefixFeeder = "pawfeed/feeder"

	// TopicPrefixHealth is the base for health monitoring topics.
	TopicPrefixHealth = "pawfeed/health"

	// TopicPrefixSystem is the base for daemon lifecycle topics.
	TopicPrefixSystem = "pawfeed/system"
)

// Topics provides builders for Pawfeed MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.FeederEvent("feeding_dispensed")
//	// Returns: "pawfeed/feeder/event/feeding_dispensed"
type Topics struct{}

// FeederEvent returns the topic for feeder activity events.
//
// Example: pawfeed/feeder/event/cat_detected
func (Topics) FeederEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixFeeder, eventType)
}

// FeederStatus returns the retained feeder status topic.
//
// Example: pawfeed/feeder/status
func (Topics) FeederStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixFeeder)
}

// FeederWeight returns the topic for smoothed scale readings.
//
// Example: pawfeed/feeder/weight
func (Topics) FeederWeight() string {
	return fmt.Sprintf("%s/weight", TopicPrefixFeeder)
}

// FeederCommand returns the topic for inbound feeder commands.
//
// Example: pawfeed/feeder/command/feed
func (Topics) FeederCommand(action string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefixFeeder, action)
}

// HealthAlert returns the topic for health alerts.
//
// Example: pawfeed/health/alert/cpu_usage
func (Topics) HealthAlert(metric string) string {
	return fmt.Sprintf("%s/alert/%s", TopicPrefixHealth, metric)
}

// HealthMetrics returns the topic for periodic health snapshots.
//
// Example: pawfeed/health/metrics
func (Topics) HealthMetrics() string {
	return fmt.Sprintf("%s/metrics", TopicPrefixHealth)
}

// MaintenanceAction returns the topic for maintenance action notifications.
//
// Example: pawfeed/system/maintenance/backup
func (Topics) MaintenanceAction(action string) string {
	return fmt.Sprintf("%s/maintenance/%s", TopicPrefixSystem, action)
}

// SystemStatus returns the daemon status topic used for LWT and
// online/offline announcements.
//
// Example: pawfeed/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllFeederCommands returns a pattern matching all inbound feeder commands.
//
// Pattern: pawfeed/feeder/command/+
func (Topics) AllFeederCommands() string {
	return fmt.Sprintf("%s/command/+", TopicPrefixFeeder)
}

// AllHealthAlerts returns a pattern matching all health alerts.
//
// Pattern: pawfeed/health/alert/+
func (Topics) AllHealthAlerts() string {
	return fmt.Sprintf("%s/alert/+", TopicPrefixHealth)
}

// AllTopics returns a pattern matching the entire Pawfeed namespace.
// Use with caution, this receives ALL traffic.
//
// Pattern: pawfeed/#
func (Topics) AllTopics() string {
	return "pawfeed/#"
}
