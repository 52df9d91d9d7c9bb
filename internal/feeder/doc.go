// Package feeder implements the feeding control core: weight-based presence
// detection, the safety gate every dispense request passes through, and the
// time-of-day schedule evaluator.
//
// The Controller owns all shared feeding state (current weight, presence,
// last feeding time and date, daily count, schedules) behind a single mutex.
// The gate's check-then-act sequence runs as one critical section, so
// concurrent feed requests serialize and at most one dispense reaches the
// actuator at a time.
//
// Two loops drive the core: Run samples the scale and tracks presence
// transitions, RunScheduler evaluates schedule entries at minute resolution.
// Both observe context cancellation and exit promptly on shutdown.
//
// Hardware and persistence are consumed through the Scale, Dispenser, and
// EventSink interfaces; no rejection or collaborator failure is fatal, every
// loop survives its own errors and continues on the next tick.
package feeder
