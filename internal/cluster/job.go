package cluster

import (
	"fmt"
	"sync"
	"sync/atomic"

	"nosferatu/internal/models"
)

// Job is the handle for one model-building run. State transitions are
// validated and one-directional: Idle -> Running -> terminal.
type Job struct {
	id string

	mu    sync.RWMutex
	state models.JobState

	cancelled atomic.Bool
	done      chan struct{}
}

func newJob(id string) *Job {
	return &Job{
		id:    id,
		state: models.JobIdle,
		done:  make(chan struct{}),
	}
}

func (j *Job) ID() string {
	return j.id
}

func (j *Job) State() models.JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Cancel requests a cooperative stop. The job checks the flag between
// per-record steps; there is no hard preemption.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
}

// Done is closed once the job reaches a terminal state and its terminal
// event has been emitted.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job is terminal and returns the final state.
func (j *Job) Wait() models.JobState {
	<-j.done
	return j.State()
}

func (j *Job) transition(to models.JobState) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !allowedTransition(j.state, to) {
		return fmt.Errorf("disallowed job transition: %s -> %s", j.state, to)
	}
	j.state = to
	return nil
}

func allowedTransition(from, to models.JobState) bool {
	switch from {
	case models.JobIdle:
		return to == models.JobRunning
	case models.JobRunning:
		return to.IsTerminal()
	default:
		return false
	}
}
