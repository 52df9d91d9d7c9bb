package hardware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
)

// Dispenser errors.
var (
	// ErrDispenserBusy is returned when a dispense is already in progress.
	ErrDispenserBusy = errors.New("hardware: dispense already in progress")

	// ErrInvalidPortion is returned for zero or negative portions.
	ErrInvalidPortion = errors.New("hardware: portion must be positive")
)

// SimDispenser simulates the servo-driven auger.
//
// Dispense duration is portion / rate, clamped to the configured bounds,
// matching the physical actuator's timing model. Only one dispense can run
// at a time.
type SimDispenser struct {
	gramsPerSecond float64
	minDispense    time.Duration
	maxDispense    time.Duration

	mu             sync.Mutex
	dispensing     bool
	totalDispensed float64
	failNext       error
}

// NewSimDispenser creates a simulated dispenser from actuator config.
func NewSimDispenser(cfg config.DispenserConfig) *SimDispenser {
	rate := cfg.GramsPerSecond
	if rate <= 0 {
		rate = 10
	}
	return &SimDispenser{
		gramsPerSecond: rate,
		minDispense:    time.Duration(cfg.MinDispenseSeconds * float64(time.Second)),
		maxDispense:    time.Duration(cfg.MaxDispenseSeconds * float64(time.Second)),
	}
}

// Dispense releases the given portion, blocking for the modelled duration.
//
// Returns ErrDispenserBusy if another dispense is in progress, or the
// context error if cancelled mid-dispense.
func (d *SimDispenser) Dispense(ctx context.Context, portionGrams float64) error {
	if portionGrams <= 0 {
		return fmt.Errorf("%w: %.1fg", ErrInvalidPortion, portionGrams)
	}

	d.mu.Lock()
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		d.mu.Unlock()
		return err
	}
	if d.dispensing {
		d.mu.Unlock()
		return ErrDispenserBusy
	}
	d.dispensing = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.dispensing = false
		d.mu.Unlock()
	}()

	duration := d.dispenseDuration(portionGrams)

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	d.mu.Lock()
	d.totalDispensed += portionGrams
	d.mu.Unlock()

	return nil
}

// dispenseDuration converts a portion to run time, clamped to the bounds.
func (d *SimDispenser) dispenseDuration(portionGrams float64) time.Duration {
	duration := time.Duration(portionGrams / d.gramsPerSecond * float64(time.Second))
	if d.minDispense > 0 && duration < d.minDispense {
		duration = d.minDispense
	}
	if d.maxDispense > 0 && duration > d.maxDispense {
		duration = d.maxDispense
	}
	return duration
}

// TotalDispensed returns the cumulative grams released since start.
func (d *SimDispenser) TotalDispensed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalDispensed
}

// IsDispensing reports whether a dispense is currently running.
func (d *SimDispenser) IsDispensing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispensing
}

// FailNextDispense makes the next Dispense return the given error without
// releasing food.
func (d *SimDispenser) FailNextDispense(err error) {
	d.mu.Lock()
	d.failNext = err
	d.mu.Unlock()
}
