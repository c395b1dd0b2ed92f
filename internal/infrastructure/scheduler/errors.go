package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when registering a job on a started scheduler
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")

	// ErrInvalidConfig is returned when a job registration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrJobRunning is returned by RunNow while the job is in progress
	ErrJobRunning = errors.New("job is already running")
)
