package tasks

import "errors"

var (
	// ErrInvalidDate is returned for a date key that is not a real YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidMonth is returned for a month outside 1..12.
	ErrInvalidMonth = errors.New("invalid month")

	// ErrNotFound is returned when a date key is absent or a task index is out of range.
	ErrNotFound = errors.New("task not found")

	// ErrMalformedStorage is returned by backends whose stored document cannot be decoded.
	ErrMalformedStorage = errors.New("malformed storage")

	// ErrStorageUnavailable is returned when the backing medium cannot be written.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
