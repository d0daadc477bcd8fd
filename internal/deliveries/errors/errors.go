package errors

import "errors"

var (
	ErrNotFound = errors.New("delivery not found")

	ErrInvalidID = errors.New("invalid delivery ID format")

	// ErrVersionConflict means the delivery changed between read and conditional write.
	ErrVersionConflict = errors.New("delivery was modified concurrently")
)
