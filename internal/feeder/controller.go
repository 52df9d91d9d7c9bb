package feeder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pawprint-systems/pawfeed-core/internal/events"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/logging"
)

// dateLayout identifies a calendar date for daily-count rollover.
const dateLayout = "2006-01-02"

// weightPersistEvery controls how many samples pass between persisted
// weight readings. At the default 500ms sample interval this records one
// reading every 30 seconds.
const weightPersistEvery = 60

// Controller owns the shared feeding state and the safety gate.
//
// All mutable fields live behind a single mutex; the gate's check-then-act
// sequence (TryFeed) is one critical section, so concurrent feed requests
// serialize and a second caller observes the first caller's counters.
type Controller struct {
	mu sync.Mutex

	tracker         *WeightTracker
	lastFeedingTime time.Time
	lastFeedingDate string
	dailyCount      int
	schedules       []Schedule
	running         bool

	sensorErrors atomic.Uint64
	sampleCount  uint64

	scale     Scale
	dispenser Dispenser
	sink      EventSink
	log       *logging.Logger

	maxPortionGrams    float64
	maxDailyFeedings   int
	minFeedingInterval time.Duration
	sampleInterval     time.Duration
	pollInterval       time.Duration
}

// New creates a Controller from validated configuration.
//
// Schedules are seeded from config; UpdateSchedules replaces them at runtime.
func New(cfg *config.Config, scale Scale, dispenser Dispenser, sink EventSink, log *logging.Logger) *Controller {
	schedules := make([]Schedule, 0, len(cfg.Schedules))
	for _, s := range cfg.Schedules {
		schedules = append(schedules, Schedule{
			Name:         s.Name,
			TimeOfDay:    s.Time,
			PortionGrams: s.PortionGrams,
			Enabled:      s.Enabled,
		})
	}

	return &Controller{
		tracker: NewWeightTracker(cfg.Scale.WindowSize,
			cfg.Scale.TareThreshold, cfg.Scale.MinCatWeight, cfg.Scale.MaxCatWeight),
		schedules:          schedules,
		scale:              scale,
		dispenser:          dispenser,
		sink:               sink,
		log:                log.With("component", "feeder"),
		maxPortionGrams:    cfg.Safety.MaxPortionGrams,
		maxDailyFeedings:   cfg.Safety.MaxDailyFeedings,
		minFeedingInterval: cfg.MinFeedingInterval(),
		sampleInterval:     cfg.SampleInterval(),
		pollInterval:       cfg.FeedPollInterval(),
	}
}

// Run is the weight sampling loop. It reads the scale at the configured
// interval, feeds the tracker, and emits presence-transition events.
//
// Blocks until the context is cancelled; always returns nil.
func (c *Controller) Run(ctx context.Context) error {
	c.setRunning(true)
	defer c.setRunning(false)

	c.log.Info("weight sampling started", "interval", c.sampleInterval.String())

	ticker := time.NewTicker(c.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("weight sampling stopped")
			return nil
		case <-ticker.C:
			c.sampleOnce(ctx)
		}
	}
}

// sampleOnce reads the scale and updates tracking state.
//
// A read failure is counted and skipped; the previous smoothed value and
// presence persist for the tick.
func (c *Controller) sampleOnce(ctx context.Context) {
	raw, err := c.scale.ReadWeight(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.sensorErrors.Add(1)
		c.log.Warn("scale read failed", "error", err)
		return
	}

	c.mu.Lock()
	before := c.tracker.Presence()
	c.tracker.Sample(raw)
	after := c.tracker.Presence()
	smoothed := c.tracker.Smoothed()
	c.sampleCount++
	persist := c.sampleCount%weightPersistEvery == 0
	c.mu.Unlock()

	switch {
	case before == Absent && after == Present:
		c.log.Info("cat detected", "weight_kg", smoothed)
		c.recordEvent(ctx, events.KindCatDetected, map[string]any{"weight_kg": smoothed})
	case before == Present && after == Absent:
		c.log.Info("cat left", "weight_kg", smoothed)
		c.recordEvent(ctx, events.KindCatLeft, nil)
	}

	if persist {
		if err := c.sink.RecordWeight(ctx, smoothed); err != nil {
			c.log.Warn("persisting weight reading failed", "error", err)
		}
	}
}

// TryFeed runs the full gate sequence for one feed attempt.
//
// Checks run in order: portion cap, date rollover, daily limit, minimum
// interval, dispense. The daily count resets exactly once per new date, as
// the first action of the first attempt on that date. An actuator failure
// leaves all state untouched so a retry is possible.
func (c *Controller) TryFeed(ctx context.Context, now time.Time, portionGrams float64) FeedOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if portionGrams > c.maxPortionGrams {
		return RejectedPortionTooLarge
	}

	date := now.Format(dateLayout)
	if date != c.lastFeedingDate {
		c.dailyCount = 0
		c.lastFeedingDate = date
	}

	if c.dailyCount >= c.maxDailyFeedings {
		return RejectedDailyLimit
	}

	if !c.lastFeedingTime.IsZero() && now.Sub(c.lastFeedingTime) < c.minFeedingInterval {
		return RejectedMinInterval
	}

	if err := c.dispenser.Dispense(ctx, portionGrams); err != nil {
		c.log.Error("dispense failed", "portion_grams", portionGrams, "error", err)
		return ActuatorFailure
	}

	c.lastFeedingTime = now
	c.dailyCount++

	var catWeight float64
	if c.tracker.Presence() == Present {
		catWeight = c.tracker.Smoothed()
	}

	c.log.Info("dispensed",
		"portion_grams", portionGrams,
		"daily_count", c.dailyCount,
		"cat_weight_kg", catWeight,
	)

	if err := c.sink.RecordFeeding(ctx, portionGrams, catWeight, c.dailyCount); err != nil {
		c.log.Warn("persisting feeding failed", "error", err)
	}

	return Dispensed
}

// RequestFeed attempts an on-demand feed through the gate.
func (c *Controller) RequestFeed(ctx context.Context, portionGrams float64) FeedOutcome {
	outcome := c.TryFeed(ctx, time.Now(), portionGrams)
	if outcome != Dispensed {
		c.recordRejection(ctx, "manual", portionGrams, outcome)
	}
	return outcome
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	schedules := make([]Schedule, len(c.schedules))
	copy(schedules, c.schedules)

	return Status{
		WeightKg:        c.tracker.Smoothed(),
		Presence:        c.tracker.Presence(),
		LastFeedingTime: c.lastFeedingTime,
		DailyFeedings:   c.dailyCount,
		Schedules:       schedules,
		Running:         c.running,
		SensorErrors:    c.sensorErrors.Load(),
	}
}

// UpdateSchedules validates and atomically replaces the whole schedule list.
func (c *Controller) UpdateSchedules(entries []Schedule) error {
	for i, e := range entries {
		if _, err := time.Parse("15:04", e.TimeOfDay); err != nil {
			return fmt.Errorf("%w: entry %d time %q", ErrInvalidSchedule, i, e.TimeOfDay)
		}
		if e.PortionGrams <= 0 {
			return fmt.Errorf("%w: entry %d portion %.1fg", ErrInvalidSchedule, i, e.PortionGrams)
		}
	}

	replacement := make([]Schedule, len(entries))
	copy(replacement, entries)

	c.mu.Lock()
	c.schedules = replacement
	c.mu.Unlock()

	c.log.Info("schedules replaced", "count", len(replacement))
	return nil
}

// setRunning flips the running flag under the state mutex.
func (c *Controller) setRunning(running bool) {
	c.mu.Lock()
	c.running = running
	c.mu.Unlock()
}

// recordEvent forwards an event to the sink, logging sink failures.
func (c *Controller) recordEvent(ctx context.Context, kind string, payload map[string]any) {
	if err := c.sink.RecordEvent(ctx, kind, payload); err != nil {
		c.log.Warn("recording event failed", "kind", kind, "error", err)
	}
}

// recordRejection emits a feeding_rejected event for a non-dispensed outcome.
func (c *Controller) recordRejection(ctx context.Context, source string, portionGrams float64, outcome FeedOutcome) {
	c.recordEvent(ctx, events.KindFeedingRejected, map[string]any{
		"source":        source,
		"portion_grams": portionGrams,
		"reason":        outcome.String(),
	})
}
