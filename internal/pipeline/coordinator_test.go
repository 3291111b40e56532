package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	"nosferatu/internal/cluster"
	"nosferatu/internal/filters"
	"nosferatu/internal/models"
)

func writeTestPNG(t *testing.T, dir, name string, bright uint8) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(15)
			if x >= 4 {
				v = bright
			}
			img.SetGray(x, y, image.Gray{Y: v})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeTestManifest(t *testing.T, dir string, imagePaths ...string) string {
	t.Helper()

	content := "image_path\n"
	for _, p := range imagePaths {
		content += p + "\n"
	}
	path := filepath.Join(dir, "sets.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// recordingSink captures the coordinator's event stream.
type recordingSink struct {
	mu       sync.Mutex
	images   int
	progress []int
	status   []string
	finished []models.JobResult
}

func (s *recordingSink) ImageUpdated(*models.ImageData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images++
}

func (s *recordingSink) Progress(_ string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, percent)
}

func (s *recordingSink) Status(_, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = append(s.status, status)
}

func (s *recordingSink) JobFinished(result models.JobResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, result)
}

func newTestCoordinator() *Coordinator {
	return NewCoordinator(DefaultConfig(), nil, nil)
}

func TestSaveImageBeforeLoad(t *testing.T) {
	c := newTestCoordinator()

	err := c.SaveImage(filepath.Join(t.TempDir(), "out.png"))
	if !errors.Is(err, ErrNoImageLoaded) {
		t.Fatalf("expected ErrNoImageLoaded, got %v", err)
	}
}

func TestApplyFilterBeforeLoad(t *testing.T) {
	c := newTestCoordinator()

	if err := c.ApplyFilter(); !errors.Is(err, ErrNoImageLoaded) {
		t.Fatalf("expected ErrNoImageLoaded, got %v", err)
	}
}

func TestSelectFilterRejectsUnknownName(t *testing.T) {
	c := newTestCoordinator()

	err := c.SelectFilter("threshold_triangle")
	if !errors.Is(err, filters.ErrUnsupportedFilter) {
		t.Fatalf("expected ErrUnsupportedFilter, got %v", err)
	}
	if c.SelectedFilter() != filters.ThresholdMean {
		t.Fatalf("rejected selection must not change the filter, got %q", c.SelectedFilter())
	}
}

func TestLoadApplySaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, "cells.png", 220)

	c := newTestCoordinator()
	sink := &recordingSink{}
	c.Subscribe(sink)

	if err := c.LoadImage(src); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := c.SelectFilter(filters.ThresholdLi); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := c.ApplyFilter(); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	derived := c.Store().Derived()
	if derived == nil {
		t.Fatal("no derived buffer after filtering")
	}
	if derived.Width != 8 || derived.Height != 8 {
		t.Errorf("derived buffer is %dx%d, want 8x8", derived.Width, derived.Height)
	}

	out := filepath.Join(dir, "filtered.png")
	if err := c.SaveImage(out); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	if sink.images != 2 {
		t.Errorf("got %d image-updated events, want 2 (load + filter)", sink.images)
	}
}

func TestLoadDiscardsDerivedBuffer(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, "cells.png", 220)

	c := newTestCoordinator()
	if err := c.LoadImage(src); err != nil {
		t.Fatal(err)
	}
	if err := c.ApplyFilter(); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadImage(src); err != nil {
		t.Fatal(err)
	}
	if c.Store().Derived() != nil {
		t.Fatal("reload must discard the derived buffer")
	}
}

func TestBuildModelLifecycle(t *testing.T) {
	dir := t.TempDir()
	imgs := []string{
		writeTestPNG(t, dir, "a.png", 200),
		writeTestPNG(t, dir, "b.png", 120),
		writeTestPNG(t, dir, "c.png", 250),
	}
	manifestPath := writeTestManifest(t, dir, imgs...)
	outDir := filepath.Join(dir, "model")

	c := newTestCoordinator()
	sink := &recordingSink{}
	c.Subscribe(sink)

	job, err := c.BuildModel(manifestPath, outDir, 2)
	if err != nil {
		t.Fatalf("build model failed: %v", err)
	}

	if state := job.Wait(); state != models.JobSucceeded {
		t.Fatalf("job finished in state %s, want succeeded", state)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()

	if len(sink.finished) != 1 {
		t.Fatalf("got %d terminal events, want 1", len(sink.finished))
	}
	result := sink.finished[0]
	if result.Model == nil || result.Model.K != 2 {
		t.Fatalf("unexpected model in terminal event: %+v", result.Model)
	}
	if _, err := os.Stat(result.ArtifactPath); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}

	prev := 0
	for _, p := range sink.progress {
		if p < prev {
			t.Fatalf("progress not monotone: %v", sink.progress)
		}
		prev = p
	}
	if prev != 100 {
		t.Fatalf("final progress is %d, want 100", prev)
	}
	if sink.status[0] != "started" {
		t.Fatalf("first status is %q, want started", sink.status[0])
	}
}

func TestBuildModelRejectsConcurrentJob(t *testing.T) {
	dir := t.TempDir()
	// Dummy files so the manifest rows pass the existence check; the
	// blocking stub loader never opens them.
	var paths []string
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, fmt.Sprintf("img-%d.tif", i))
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	manifestPath := writeTestManifest(t, dir, paths...)

	loader := &blockingLoader{release: make(chan struct{})}
	c := newTestCoordinator()
	c.loader = loader
	c.builder = cluster.NewBuilder(loader, filters.NewEngine(nil), nil)

	first, err := c.BuildModel(manifestPath, filepath.Join(dir, "out1"), 2)
	if err != nil {
		t.Fatalf("first build failed to start: %v", err)
	}

	_, err = c.BuildModel(manifestPath, filepath.Join(dir, "out2"), 2)
	if !errors.Is(err, ErrJobRunning) {
		t.Fatalf("expected ErrJobRunning, got %v", err)
	}
	if first.State() != models.JobRunning {
		t.Fatalf("rejected request altered the running job: %s", first.State())
	}

	close(loader.release)
	if state := first.Wait(); state != models.JobSucceeded {
		t.Fatalf("first job finished in state %s, want succeeded", state)
	}

	// A terminal job no longer blocks new requests.
	if _, err := c.BuildModel(manifestPath, filepath.Join(dir, "out3"), 2); err != nil {
		t.Fatalf("build after terminal job rejected: %v", err)
	}
	c.Job().Wait()
}

func TestBuildModelManifestFormatError(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "sets.csv")
	if err := os.WriteFile(manifestPath, []byte("file\nx.tif\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := newTestCoordinator()
	_, err := c.BuildModel(manifestPath, filepath.Join(dir, "out"), 2)
	if err == nil {
		t.Fatal("expected manifest format error")
	}
	if c.Job() != nil {
		t.Fatal("no job should exist after a manifest format error")
	}
}

// blockingLoader serves synthetic images and can hold the first load until
// released, keeping a job observably running.
type blockingLoader struct {
	once    sync.Once
	release chan struct{}
}

func (b *blockingLoader) Load(path string) (*models.ImageData, error) {
	b.once.Do(func() { <-b.release })

	mat := gocv.NewMatWithSize(6, 6, gocv.MatTypeCV8U)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			mat.SetUCharAt(y, x, uint8(len(path))+uint8(y*31+x*7))
		}
	}
	return &models.ImageData{Mat: mat, Width: 6, Height: 6, Channels: 1, Path: path}, nil
}
