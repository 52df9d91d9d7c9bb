package feeder

import (
	"context"
	"time"
)

// RunScheduler is the schedule evaluation loop.
//
// Each tick it matches enabled schedule entries against the current local
// time at minute resolution and pushes every match through the gate
// independently. Duplicate matches within the same minute are not
// deduplicated here; the gate's minimum-interval rule is the backstop.
//
// Blocks until the context is cancelled; always returns nil.
func (c *Controller) RunScheduler(ctx context.Context) error {
	c.log.Info("feed scheduler started", "interval", c.pollInterval.String())

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("feed scheduler stopped")
			return nil
		case <-ticker.C:
			c.checkSchedules(ctx, time.Now())
		}
	}
}

// checkSchedules attempts every enabled entry matching the current minute.
func (c *Controller) checkSchedules(ctx context.Context, now time.Time) {
	minute := now.Format("15:04")

	c.mu.Lock()
	matches := make([]Schedule, 0, 1)
	for _, entry := range c.schedules {
		if entry.Enabled && entry.TimeOfDay == minute {
			matches = append(matches, entry)
		}
	}
	c.mu.Unlock()

	for _, entry := range matches {
		outcome := c.TryFeed(ctx, now, entry.PortionGrams)

		switch outcome {
		case Dispensed:
			c.log.Info("scheduled feeding dispensed",
				"schedule", entry.Name, "portion_grams", entry.PortionGrams)
		case ActuatorFailure:
			// Already logged at error level by the gate. The next matching
			// tick re-attempts; no same-tick retry.
			c.recordRejection(ctx, scheduleSource(entry), entry.PortionGrams, outcome)
		default:
			c.log.Info("scheduled feeding rejected",
				"schedule", entry.Name, "reason", outcome.String())
			c.recordRejection(ctx, scheduleSource(entry), entry.PortionGrams, outcome)
		}
	}
}

// scheduleSource labels rejection events with the originating entry.
func scheduleSource(entry Schedule) string {
	if entry.Name != "" {
		return "schedule:" + entry.Name
	}
	return "schedule:" + entry.TimeOfDay
}
