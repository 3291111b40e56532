package cluster

import (
	"fmt"
	"sync/atomic"
	"time"

	"nosferatu/internal/logger"
	"nosferatu/internal/models"
)

// JobConfig parametrizes one model-building run. Filter is required; the
// builder never guesses a default segmentation.
type JobConfig struct {
	Filter       string
	Clusters     int
	OutputDir    string
	ManifestPath string
}

// Builder runs clustering jobs over manifest records. Each job executes on
// its own goroutine and communicates exclusively through Events; nothing is
// ever thrown across the worker boundary.
type Builder struct {
	loader ImageLoader
	engine FilterApplier
	log    logger.Logger
	nextID atomic.Uint64
}

func NewBuilder(loader ImageLoader, engine FilterApplier, log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop{}
	}
	return &Builder{
		loader: loader,
		engine: engine,
		log:    log,
	}
}

// Start validates the parameters, spawns the job goroutine and returns its
// handle. Validation failures are returned synchronously and the job never
// enters the running state.
func (b *Builder) Start(records []models.ManifestRecord, cfg JobConfig, events Events) (*Job, error) {
	if cfg.Clusters <= 0 {
		return nil, fmt.Errorf("%w: cluster count must be positive, got %d", ErrInvalidParameter, cfg.Clusters)
	}
	if cfg.Filter == "" {
		return nil, fmt.Errorf("%w: filter must be specified", ErrInvalidParameter)
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("%w: output directory must be specified", ErrInvalidParameter)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no manifest records to process", ErrInvalidParameter)
	}
	if len(records) < cfg.Clusters {
		return nil, fmt.Errorf("%w: %d records cannot form %d clusters", ErrInvalidParameter, len(records), cfg.Clusters)
	}

	job := newJob(fmt.Sprintf("job-%d", b.nextID.Add(1)))
	if err := job.transition(models.JobRunning); err != nil {
		return nil, err
	}

	b.log.Info("cluster", "build job started", map[string]interface{}{
		"job":      job.ID(),
		"records":  len(records),
		"clusters": cfg.Clusters,
		"filter":   cfg.Filter,
	})

	go b.run(job, records, cfg, events)
	return job, nil
}

func (b *Builder) run(job *Job, records []models.ManifestRecord, cfg JobConfig, events Events) {
	defer close(job.done)

	start := time.Now()
	events.emitStatus("started")

	total := len(records)
	features := make([][]float64, 0, total)
	imagePaths := make([]string, 0, total)

	for i, record := range records {
		if job.cancelled.Load() {
			b.finishCancelled(job, events)
			return
		}

		events.emitStatus(fmt.Sprintf("processing image %d/%d", i+1, total))

		vector, err := b.processRecord(record, cfg.Filter)
		if err != nil {
			b.finishFailed(job, events, fmt.Errorf("record %d (%s): %w", record.Index, record.Path, err))
			return
		}

		features = append(features, vector)
		imagePaths = append(imagePaths, record.Path)

		// The final 100 is reserved for successful completion; the
		// last record's progress is emitted after the fit.
		if p := (i + 1) * 100 / total; p < 100 {
			events.emitProgress(p)
		}
	}

	if job.cancelled.Load() {
		b.finishCancelled(job, events)
		return
	}

	events.emitStatus("fitting model")
	centers, labels, err := fitKMeans(features, cfg.Clusters)
	if err != nil {
		b.finishFailed(job, events, err)
		return
	}

	model := &models.ClusterModel{
		K:            cfg.Clusters,
		Centers:      centers,
		Labels:       labels,
		FeatureNames: FeatureNames,
		Filter:       cfg.Filter,
		ManifestPath: cfg.ManifestPath,
		ImagePaths:   imagePaths,
		CreatedAt:    time.Now().UTC(),
	}

	artifactPath, err := writeArtifact(cfg.OutputDir, model)
	if err != nil {
		b.finishFailed(job, events, err)
		return
	}

	events.emitProgress(100)
	events.emitStatus("completed")

	if err := job.transition(models.JobSucceeded); err != nil {
		b.log.Error("cluster", err, map[string]interface{}{"job": job.ID()})
	}

	b.log.Info("cluster", "build job succeeded", map[string]interface{}{
		"job":      job.ID(),
		"artifact": artifactPath,
		"duration": time.Since(start).String(),
	})

	events.emitFinished(models.JobResult{
		JobID:        job.ID(),
		State:        models.JobSucceeded,
		ArtifactPath: artifactPath,
		Model:        model,
	})
}

// processRecord loads one image, applies the configured filter and reduces
// the pair to a feature vector. All intermediate buffers are released.
func (b *Builder) processRecord(record models.ManifestRecord, filterName string) ([]float64, error) {
	img, err := b.loader.Load(record.Path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	binary, err := b.engine.Apply(img.Mat, filterName)
	if err != nil {
		return nil, err
	}
	defer binary.Close()

	return extractFeatures(img, binary), nil
}

func (b *Builder) finishFailed(job *Job, events Events, cause error) {
	events.emitStatus(fmt.Sprintf("failed: %v", cause))

	if err := job.transition(models.JobFailed); err != nil {
		b.log.Error("cluster", err, map[string]interface{}{"job": job.ID()})
	}

	b.log.Error("cluster", cause, map[string]interface{}{"job": job.ID()})

	events.emitFinished(models.JobResult{
		JobID: job.ID(),
		State: models.JobFailed,
		Err:   cause,
	})
}

func (b *Builder) finishCancelled(job *Job, events Events) {
	events.emitStatus("cancelled")

	if err := job.transition(models.JobCancelled); err != nil {
		b.log.Error("cluster", err, map[string]interface{}{"job": job.ID()})
	}

	b.log.Info("cluster", "build job cancelled", map[string]interface{}{"job": job.ID()})

	events.emitFinished(models.JobResult{
		JobID: job.ID(),
		State: models.JobCancelled,
	})
}
