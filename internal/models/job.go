package models

// JobState tracks the lifecycle of one model-building run.
//
// Transitions are one-directional: Idle -> Running -> one of the terminal
// states. A new job starts over from Idle.
type JobState int

const (
	JobIdle JobState = iota
	JobRunning
	JobSucceeded
	JobFailed
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobIdle:
		return "idle"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state is final for this job.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobSucceeded, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// JobResult is the terminal event payload for a build job. Err is set only
// for JobFailed; ArtifactPath and Model only for JobSucceeded.
type JobResult struct {
	JobID        string
	State        JobState
	Err          error
	ArtifactPath string
	Model        *ClusterModel
}
