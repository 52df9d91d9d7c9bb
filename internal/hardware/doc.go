// Package hardware provides the sensor and actuator drivers for the feeder.
//
// The current drivers are simulations: SimScale produces load-cell readings
// with configurable noise and cat presence, and SimDispenser models the
// servo-driven auger's timing (grams-per-second rate with a clamped dispense
// duration). They satisfy the feeder package's Scale and Dispenser interfaces
// and make the daemon runnable without GPIO hardware.
//
// Real HX711/servo drivers would slot in behind the same interfaces.
package hardware
