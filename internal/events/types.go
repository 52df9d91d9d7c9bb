package events

import "time"

// Well-known event kinds recorded by the daemon.
const (
	KindCatDetected      = "cat_detected"
	KindCatLeft          = "cat_left"
	KindFeedingDispensed = "feeding_dispensed"
	KindFeedingRejected  = "feeding_rejected"
	KindHealthAlert      = "health_alert"
	KindRestartScheduled = "restart_scheduled"
	KindBackupCreated    = "backup_created"
	KindError            = "error"
)

// Event is a single entry in the append-only activity log.
type Event struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// FeedingRecord captures one completed dispense.
type FeedingRecord struct {
	ID           string    `json:"id"`
	PortionGrams float64   `json:"portion_grams"`
	CatWeightKg  float64   `json:"cat_weight_kg,omitempty"`
	DailyCount   int       `json:"daily_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// WeightReading is a single persisted scale sample.
type WeightReading struct {
	WeightKg  float64   `json:"weight_kg"`
	CreatedAt time.Time `json:"created_at"`
}

// Metric is a persisted health measurement.
type Metric struct {
	Kind      string    `json:"kind"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Statistics summarises feeder activity over a period.
type Statistics struct {
	PeriodDays        int     `json:"period_days"`
	FeedingCount      int     `json:"feeding_count"`
	TotalPortionGrams float64 `json:"total_portion_grams"`
	AvgCatWeightKg    float64 `json:"avg_cat_weight_kg"`
	CatDetections     int     `json:"cat_detections"`
	ErrorCount        int     `json:"error_count"`
}
