package metrics

import (
	"time"

	"nosferatu/internal/models"
)

// Recorder is the observability port of the pipeline. The prometheus
// adapter implements it for deployments; Nop serves everything else.
type Recorder interface {
	ImageLoaded()
	FilterApplied(name string)
	ImageSaved()
	JobStarted()
	JobFinished(state models.JobState, duration time.Duration)
}

type Nop struct{}

func (Nop) ImageLoaded()                              {}
func (Nop) FilterApplied(string)                      {}
func (Nop) ImageSaved()                               {}
func (Nop) JobStarted()                               {}
func (Nop) JobFinished(models.JobState, time.Duration) {}
