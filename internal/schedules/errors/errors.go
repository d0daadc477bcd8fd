package errors

import "errors"

var (
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD or RFC3339")

	// ErrScheduleUnavailable marks a fail-closed validation result: the driver's
	// bookings could not be read, so no verdict was reached.
	ErrScheduleUnavailable = errors.New("driver schedule could not be loaded")
)
