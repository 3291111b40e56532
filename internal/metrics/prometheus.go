package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"nosferatu/internal/models"
)

// PromRecorder exports pipeline counters and job timings.
type PromRecorder struct {
	imagesLoaded   prometheus.Counter
	imagesSaved    prometheus.Counter
	filtersApplied *prometheus.CounterVec
	jobsStarted    prometheus.Counter
	jobsFinished   *prometheus.CounterVec
	jobDuration    prometheus.Histogram
}

// NewPromRecorder builds and registers the collectors on reg. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	r := &PromRecorder{
		imagesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nosferatu_images_loaded_total",
			Help: "Images successfully loaded into the store.",
		}),
		imagesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nosferatu_images_saved_total",
			Help: "Images written to disk.",
		}),
		filtersApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nosferatu_filters_applied_total",
			Help: "Filter applications by filter name.",
		}, []string{"filter"}),
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nosferatu_build_jobs_started_total",
			Help: "Model build jobs accepted for execution.",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nosferatu_build_jobs_finished_total",
			Help: "Model build jobs by terminal state.",
		}, []string{"state"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nosferatu_build_job_duration_seconds",
			Help:    "Wall-clock duration of model build jobs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	reg.MustRegister(
		r.imagesLoaded,
		r.imagesSaved,
		r.filtersApplied,
		r.jobsStarted,
		r.jobsFinished,
		r.jobDuration,
	)

	return r
}

func (r *PromRecorder) ImageLoaded() {
	r.imagesLoaded.Inc()
}

func (r *PromRecorder) FilterApplied(name string) {
	r.filtersApplied.WithLabelValues(name).Inc()
}

func (r *PromRecorder) ImageSaved() {
	r.imagesSaved.Inc()
}

func (r *PromRecorder) JobStarted() {
	r.jobsStarted.Inc()
}

func (r *PromRecorder) JobFinished(state models.JobState, duration time.Duration) {
	r.jobsFinished.WithLabelValues(state.String()).Inc()
	r.jobDuration.Observe(duration.Seconds())
}
