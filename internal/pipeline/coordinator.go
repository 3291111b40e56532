package pipeline

import (
	"fmt"
	"sync"
	"time"

	"nosferatu/internal/cluster"
	"nosferatu/internal/filters"
	"nosferatu/internal/imaging"
	"nosferatu/internal/logger"
	"nosferatu/internal/manifest"
	"nosferatu/internal/metrics"
	"nosferatu/internal/models"
)

// Coordinator is the façade the outer layers talk to. It owns the single
// image store, the selected filter, and at most one active build job, and
// forwards all results through the subscribed event sinks.
//
// LoadImage, ApplyFilter and SaveImage are synchronous, bounded-latency
// operations; BuildModel is the one long-running job and executes on its
// own goroutine.
type Coordinator struct {
	cfg Config
	log logger.Logger
	rec metrics.Recorder

	store   *imaging.Store
	loader  cluster.ImageLoader
	saver   *imaging.Saver
	engine  *filters.Engine
	reader  *manifest.Reader
	builder *cluster.Builder

	mu             sync.Mutex
	selectedFilter string
	job            *cluster.Job

	sinkMu sync.RWMutex
	sinks  []EventSink
}

func NewCoordinator(cfg Config, log logger.Logger, rec metrics.Recorder) *Coordinator {
	if log == nil {
		log = logger.Nop{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}

	loader := imaging.NewLoader(log)
	engine := filters.NewEngine(log)

	return &Coordinator{
		cfg:            cfg,
		log:            log,
		rec:            rec,
		store:          imaging.NewStore(),
		loader:         loader,
		saver:          imaging.NewSaver(log),
		engine:         engine,
		reader:         manifest.NewReader(log),
		builder:        cluster.NewBuilder(loader, engine, log),
		selectedFilter: cfg.DefaultFilter,
	}
}

// Subscribe registers a listener for all coordinator events.
func (c *Coordinator) Subscribe(sink EventSink) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	c.sinks = append(c.sinks, sink)
}

// Filters returns the supported filter identifiers.
func (c *Coordinator) Filters() []string {
	return c.engine.Names()
}

// SelectedFilter returns the filter spec the next ApplyFilter and
// BuildModel will use.
func (c *Coordinator) SelectedFilter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedFilter
}

// SelectFilter remembers the filter for subsequent operations. Unknown
// identifiers are rejected, never silently defaulted.
func (c *Coordinator) SelectFilter(name string) error {
	if !c.engine.Has(name) {
		return fmt.Errorf("%w: %q", filters.ErrUnsupportedFilter, name)
	}

	c.mu.Lock()
	c.selectedFilter = name
	c.mu.Unlock()

	c.log.Debug("coordinator", "filter selected", map[string]interface{}{"filter": name})
	return nil
}

// LoadImage decodes the file at path into the store, discarding any
// previous derived buffer, and emits the fresh buffer to all sinks.
func (c *Coordinator) LoadImage(path string) error {
	img, err := c.loader.Load(path)
	if err != nil {
		return err
	}

	c.store.SetCurrent(img)
	c.rec.ImageLoaded()
	c.emitImage(img)
	return nil
}

// ApplyFilter runs the selected filter over the current raw buffer and
// stores the result as the derived buffer.
func (c *Coordinator) ApplyFilter() error {
	current := c.store.Current()
	if current == nil {
		return ErrNoImageLoaded
	}

	spec := c.SelectedFilter()
	mat, err := c.engine.Apply(current.Mat, spec)
	if err != nil {
		return err
	}

	img, err := mat.ToImage()
	if err != nil {
		mat.Close()
		return fmt.Errorf("convert filtered matrix: %w", err)
	}

	derived := &models.ImageData{
		Image:    img,
		Mat:      mat,
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Format:   current.Format,
		Path:     current.Path,
		LoadTime: time.Now(),
	}

	c.store.SetDerived(derived)
	c.rec.FilterApplied(spec)
	c.emitImage(derived)
	return nil
}

// SaveImage writes the displayable buffer (derived if a filter has run,
// raw otherwise) to path.
func (c *Coordinator) SaveImage(path string) error {
	img := c.store.Displayable()
	if img == nil {
		return ErrNoImageLoaded
	}

	if err := c.saver.Save(path, img); err != nil {
		return err
	}

	c.rec.ImageSaved()
	return nil
}

// Store exposes the image store for read access.
func (c *Coordinator) Store() *imaging.Store {
	return c.store
}

// BuildModel parses the manifest and launches the clustering job with the
// currently selected filter. Rejected manifest rows are logged and do not
// abort the job; a second request while a job is running fails with
// ErrJobRunning and leaves the running job untouched.
func (c *Coordinator) BuildModel(manifestPath, outputDir string, clusters int) (*cluster.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job != nil && !c.job.State().IsTerminal() {
		return nil, ErrJobRunning
	}

	records, entryErrs, err := c.reader.Parse(manifestPath)
	if err != nil {
		return nil, err
	}
	for i := range entryErrs {
		c.log.Warning("coordinator", "manifest row rejected", map[string]interface{}{
			"row":  entryErrs[i].Row,
			"path": entryErrs[i].Path,
			"err":  entryErrs[i].Err.Error(),
		})
	}

	cfg := cluster.JobConfig{
		Filter:       c.selectedFilter,
		Clusters:     clusters,
		OutputDir:    outputDir,
		ManifestPath: manifestPath,
	}

	start := time.Now()
	job, err := c.builder.Start(records, cfg, cluster.Events{
		Progress: func(percent int) { c.emitProgress(percent) },
		Status:   func(status string) { c.emitStatus(status) },
		Finished: func(result models.JobResult) {
			c.rec.JobFinished(result.State, time.Since(start))
			c.emitFinished(result)
		},
	})
	if err != nil {
		return nil, err
	}

	c.job = job
	c.rec.JobStarted()
	return job, nil
}

// CancelJob requests a cooperative stop of the active job, if any.
func (c *Coordinator) CancelJob() {
	c.mu.Lock()
	job := c.job
	c.mu.Unlock()

	if job != nil && !job.State().IsTerminal() {
		job.Cancel()
	}
}

// Job returns the most recently started build job, terminal or not.
func (c *Coordinator) Job() *cluster.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

func (c *Coordinator) snapshotSinks() []EventSink {
	c.sinkMu.RLock()
	defer c.sinkMu.RUnlock()
	sinks := make([]EventSink, len(c.sinks))
	copy(sinks, c.sinks)
	return sinks
}

func (c *Coordinator) emitImage(img *models.ImageData) {
	for _, sink := range c.snapshotSinks() {
		sink.ImageUpdated(img)
	}
}

func (c *Coordinator) emitProgress(percent int) {
	jobID := c.jobID()
	for _, sink := range c.snapshotSinks() {
		sink.Progress(jobID, percent)
	}
}

func (c *Coordinator) emitStatus(status string) {
	jobID := c.jobID()
	for _, sink := range c.snapshotSinks() {
		sink.Status(jobID, status)
	}
}

func (c *Coordinator) emitFinished(result models.JobResult) {
	for _, sink := range c.snapshotSinks() {
		sink.JobFinished(result)
	}
}

func (c *Coordinator) jobID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return ""
	}
	return c.job.ID()
}
