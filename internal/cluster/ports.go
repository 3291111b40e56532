package cluster

import (
	"gocv.io/x/gocv"

	"nosferatu/internal/models"
)

// ImageLoader yields decoded image data for one manifest record.
type ImageLoader interface {
	Load(path string) (*models.ImageData, error)
}

// FilterApplier runs a named segmentation filter over a matrix and returns
// a newly owned binary matrix of the same dimensions.
type FilterApplier interface {
	Apply(input gocv.Mat, name string) (gocv.Mat, error)
}

// Events carries the job's outbound callbacks. Nil members are skipped.
// Callbacks are invoked from the job goroutine in production order; the
// terminal Finished callback fires exactly once.
type Events struct {
	Progress func(percent int)
	Status   func(status string)
	Finished func(result models.JobResult)
}

func (e Events) emitProgress(p int) {
	if e.Progress != nil {
		e.Progress(p)
	}
}

func (e Events) emitStatus(s string) {
	if e.Status != nil {
		e.Status(s)
	}
}

func (e Events) emitFinished(r models.JobResult) {
	if e.Finished != nil {
		e.Finished(r)
	}
}
