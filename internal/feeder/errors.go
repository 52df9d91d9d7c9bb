package feeder

import "errors"

// Domain-specific errors for feeder operations.
var (
	// ErrInvalidSchedule is returned when a schedule entry fails validation.
	ErrInvalidSchedule = errors.New("feeder: invalid schedule entry")
)
