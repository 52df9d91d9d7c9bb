package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteWeightSample records a smoothed scale reading.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - smoothedKg: The rolling-window mean in kilograms
//   - present: Whether a cat is currently detected on the scale
func (c *Client) WriteWeightSample(smoothedKg float64, present bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"weight",
		map[string]string{
			"sensor": "scale",
		},
		map[string]interface{}{
			"smoothed_kg": smoothedKg,
			"present":     present,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteFeeding records a completed dispense.
//
// Parameters:
//   - portionGrams: The portion size dispensed
//   - dailyCount: The feeding count for the day after this dispense
//   - catWeightKg: The smoothed cat weight at dispense time (0 if absent)
func (c *Client) WriteFeeding(portionGrams float64, dailyCount int, catWeightKg float64) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"portion_grams": portionGrams,
		"daily_count":   dailyCount,
	}
	if catWeightKg > 0 {
		fields["cat_weight_kg"] = catWeightKg
	}

	point := write.NewPoint(
		"feedings",
		map[string]string{
			"source": "feeder",
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteHealthMetric records a single system health measurement.
//
// Parameters:
//   - kind: The metric kind (e.g., "cpu_usage", "memory_usage", "temperature")
//   - value: The metric value
//
// Example:
//
//	client.WriteHealthMetric("cpu_usage", 42.5)
//	client.WriteHealthMetric("database_size_mb", 18.2)
func (c *Client) WriteHealthMetric(kind string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"health",
		map[string]string{
			"kind": kind,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., backfilled data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
