package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a run is not found
	ErrNotFound = errors.New("run not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrHistoryDisabled is returned when the run history store is not configured
	ErrHistoryDisabled = errors.New("run history disabled")
)
