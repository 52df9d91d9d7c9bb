package feeder

import (
	"context"
	"encoding/json"
	"time"
)

// PresenceState classifies whether a qualifying load is on the scale.
type PresenceState int

// Presence states.
const (
	Absent PresenceState = iota
	Present
)

// String returns the presence state name.
func (p PresenceState) String() string {
	if p == Present {
		return "present"
	}
	return "absent"
}

// MarshalJSON encodes the presence state by name, so status payloads read
// "present"/"absent" rather than an integer.
func (p PresenceState) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// FeedOutcome is the result of one feed attempt through the gate.
type FeedOutcome int

// Feed outcomes.
const (
	// Dispensed means the actuator ran and counters were updated.
	Dispensed FeedOutcome = iota

	// RejectedDailyLimit means the per-date feeding cap was reached.
	RejectedDailyLimit

	// RejectedMinInterval means not enough time has passed since the last feeding.
	RejectedMinInterval

	// RejectedPortionTooLarge means the requested portion exceeds the cap.
	RejectedPortionTooLarge

	// ActuatorFailure means the dispenser returned an error; state is unchanged.
	ActuatorFailure
)

// String returns the outcome name used in logs and events.
func (o FeedOutcome) String() string {
	switch o {
	case Dispensed:
		return "dispensed"
	case RejectedDailyLimit:
		return "rejected_daily_limit"
	case RejectedMinInterval:
		return "rejected_min_interval"
	case RejectedPortionTooLarge:
		return "rejected_portion_too_large"
	case ActuatorFailure:
		return "actuator_failure"
	default:
		return "unknown"
	}
}

// Schedule is one time-of-day feeding slot.
//
// Entries are treated as immutable once read each tick; UpdateSchedules
// replaces the whole list atomically.
type Schedule struct {
	Name         string  `json:"name"`
	TimeOfDay    string  `json:"time"` // HH:MM, 24h local time
	PortionGrams float64 `json:"portion_grams"`
	Enabled      bool    `json:"enabled"`
}

// Status is a point-in-time snapshot of the controller state.
type Status struct {
	WeightKg        float64       `json:"weight_kg"`
	Presence        PresenceState `json:"presence"`
	LastFeedingTime time.Time     `json:"last_feeding_time,omitzero"`
	DailyFeedings   int           `json:"daily_feedings"`
	Schedules       []Schedule    `json:"schedules"`
	Running         bool          `json:"running"`
	SensorErrors    uint64        `json:"sensor_errors"`
}

// Scale reads the weight sensor.
type Scale interface {
	ReadWeight(ctx context.Context) (float64, error)
}

// Dispenser releases food. Dispense blocks for the dispensing duration.
type Dispenser interface {
	Dispense(ctx context.Context, grams float64) error
}

// EventSink receives feeder activity for persistence and telemetry.
//
// Sink errors are logged by the controller and never affect feeding state.
type EventSink interface {
	RecordEvent(ctx context.Context, kind string, payload map[string]any) error
	RecordFeeding(ctx context.Context, portionGrams, catWeightKg float64, dailyCount int) error
	RecordWeight(ctx context.Context, weightKg float64) error
}
