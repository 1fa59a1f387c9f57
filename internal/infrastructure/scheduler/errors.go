package scheduler

import "errors"

var (
	// ErrJobAlreadyRunning is returned when a run is requested while another is in flight
	ErrJobAlreadyRunning = errors.New("reconciliation already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
