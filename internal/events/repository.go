package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for the activity log.
//
// All timestamps are stored in UTC. The log is append-only: entries are
// never updated, only inserted and eventually removed by retention cleanup.
type Repository interface {
	AppendEvent(ctx context.Context, kind string, payload map[string]any) error
	AppendFeeding(ctx context.Context, rec *FeedingRecord) error
	AppendWeight(ctx context.Context, weightKg float64) error
	AppendMetric(ctx context.Context, kind string, value float64) error
	RecentEvents(ctx context.Context, limit int) ([]Event, error)
	FeedingHistory(ctx context.Context, days int) ([]FeedingRecord, error)
	WeightHistory(ctx context.Context, hours int) ([]WeightReading, error)
	Statistics(ctx context.Context, days int) (*Statistics, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// SQLiteRepository stores the activity log in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new activity log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// AppendEvent inserts a new activity log entry.
func (r *SQLiteRepository) AppendEvent(ctx context.Context, kind string, payload map[string]any) error {
	var payloadJSON *string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshalling event payload: %w", err)
		}
		s := string(b)
		payloadJSON = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, kind, payload, created_at) VALUES (?, ?, ?, ?)`,
		"evt-"+uuid.NewString()[:8], kind, payloadJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	return nil
}

// AppendFeeding inserts a completed dispense. The ID and CreatedAt are
// generated if empty.
func (r *SQLiteRepository) AppendFeeding(ctx context.Context, rec *FeedingRecord) error {
	if rec.ID == "" {
		rec.ID = "fed-" + uuid.NewString()[:8]
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var catWeight any
	if rec.CatWeightKg > 0 {
		catWeight = rec.CatWeightKg
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feeding_records (id, portion_grams, cat_weight_kg, daily_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.PortionGrams, catWeight, rec.DailyCount,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting feeding record: %w", err)
	}

	return nil
}

// AppendWeight inserts a scale reading.
func (r *SQLiteRepository) AppendWeight(ctx context.Context, weightKg float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO weight_readings (weight_kg, created_at) VALUES (?, ?)`,
		weightKg, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting weight reading: %w", err)
	}

	return nil
}

// AppendMetric inserts a health measurement.
func (r *SQLiteRepository) AppendMetric(ctx context.Context, kind string, value float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO metrics (kind, value, created_at) VALUES (?, ?, ?)`,
		kind, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting metric: %w", err)
	}

	return nil
}

// RecentEvents returns the most recent activity log entries, newest first.
func (r *SQLiteRepository) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, payload, created_at FROM events
		 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		var evt Event
		var payloadJSON sql.NullString
		var createdAt string

		if err := rows.Scan(&evt.ID, &evt.Kind, &payloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		if payloadJSON.Valid && payloadJSON.String != "" {
			var payload map[string]any
			if json.Unmarshal([]byte(payloadJSON.String), &payload) == nil {
				evt.Payload = payload
			}
		}

		evt.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp %q: %w", createdAt, err)
		}

		result = append(result, evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	if result == nil {
		result = []Event{}
	}

	return result, nil
}

// FeedingHistory returns feedings within the last N days, newest first.
func (r *SQLiteRepository) FeedingHistory(ctx context.Context, days int) ([]FeedingRecord, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, portion_grams, cat_weight_kg, daily_count, created_at
		 FROM feeding_records WHERE created_at >= ?
		 ORDER BY created_at DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying feeding history: %w", err)
	}
	defer rows.Close()

	var result []FeedingRecord
	for rows.Next() {
		var rec FeedingRecord
		var catWeight sql.NullFloat64
		var createdAt string

		if err := rows.Scan(&rec.ID, &rec.PortionGrams, &catWeight, &rec.DailyCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning feeding record: %w", err)
		}

		if catWeight.Valid {
			rec.CatWeightKg = catWeight.Float64
		}

		rec.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing feeding timestamp %q: %w", createdAt, err)
		}

		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feeding history: %w", err)
	}

	if result == nil {
		result = []FeedingRecord{}
	}

	return result, nil
}

// WeightHistory returns scale readings within the last N hours, oldest first
// (chart order).
func (r *SQLiteRepository) WeightHistory(ctx context.Context, hours int) ([]WeightReading, error) {
	if hours <= 0 {
		hours = 24
	}
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)

	rows, err := r.db.QueryContext(ctx,
		`SELECT weight_kg, created_at FROM weight_readings
		 WHERE created_at >= ? ORDER BY created_at ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying weight history: %w", err)
	}
	defer rows.Close()

	var result []WeightReading
	for rows.Next() {
		var wr WeightReading
		var createdAt string

		if err := rows.Scan(&wr.WeightKg, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning weight reading: %w", err)
		}

		wr.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing weight timestamp %q: %w", createdAt, err)
		}

		result = append(result, wr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weight history: %w", err)
	}

	if result == nil {
		result = []WeightReading{}
	}

	return result, nil
}

// Statistics summarises feeder activity over the last N days.
func (r *SQLiteRepository) Statistics(ctx context.Context, days int) (*Statistics, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	stats := &Statistics{PeriodDays: days}

	var totalPortion sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(portion_grams) FROM feeding_records WHERE created_at >= ?`,
		cutoff).Scan(&stats.FeedingCount, &totalPortion)
	if err != nil {
		return nil, fmt.Errorf("counting feedings: %w", err)
	}
	if totalPortion.Valid {
		stats.TotalPortionGrams = totalPortion.Float64
	}

	var avgWeight sql.NullFloat64
	err = r.db.QueryRowContext(ctx,
		`SELECT AVG(cat_weight_kg) FROM feeding_records
		 WHERE created_at >= ? AND cat_weight_kg IS NOT NULL`,
		cutoff).Scan(&avgWeight)
	if err != nil {
		return nil, fmt.Errorf("averaging cat weight: %w", err)
	}
	if avgWeight.Valid {
		stats.AvgCatWeightKg = avgWeight.Float64
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE kind = ? AND created_at >= ?`,
		KindCatDetected, cutoff).Scan(&stats.CatDetections)
	if err != nil {
		return nil, fmt.Errorf("counting cat detections: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE kind = ? AND created_at >= ?`,
		KindError, cutoff).Scan(&stats.ErrorCount)
	if err != nil {
		return nil, fmt.Errorf("counting errors: %w", err)
	}

	return stats, nil
}

// DeleteOlderThan removes events, weight readings, and metrics older than
// the cutoff. Feeding records are kept indefinitely as the feeding history
// is small and valuable long-term.
//
// Returns the total number of rows removed.
func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	var total int64
	for _, table := range []string{"events", "weight_readings", "metrics"} {
		res, err := r.db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE created_at < ?", table), cutoff)
		if err != nil {
			return total, fmt.Errorf("deleting old rows from %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("counting deleted rows from %s: %w", table, err)
		}
		total += n
	}

	return total, nil
}

// parseTimestamp handles both RFC3339 and the bare SQLite datetime format.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
