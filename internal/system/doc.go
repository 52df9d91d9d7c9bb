// Package system reports host uptime and arms deferred restarts.
//
// Uptime comes from the kernel boot time; when that is unreadable (some
// containers hide it) the daemon's own start time is used instead. A
// restart is armed at most once per process lifetime and fires through
// an injected function, so the daemon decides whether that means exiting
// for a supervisor to respawn or invoking the init system directly.
package system
