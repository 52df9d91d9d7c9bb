// Package maintenance runs the periodic housekeeping pass.
//
// Each pass performs three independent actions: pruning old persisted
// events and metrics past the retention horizon, creating a database
// backup when the last one is older than the backup interval, and
// arming a deferred restart once host uptime crosses the auto-restart
// threshold. A failure in one action never blocks the others.
package maintenance
