package pipeline

import "errors"

var (
	// ErrNoImageLoaded rejects operations that need a working image
	// before any load has happened.
	ErrNoImageLoaded = errors.New("no image loaded")

	// ErrJobRunning rejects a new build request while a prior job is
	// still running. Requests are rejected, not queued.
	ErrJobRunning = errors.New("a build job is already running")
)
