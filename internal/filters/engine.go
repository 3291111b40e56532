package filters

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"nosferatu/internal/logger"
)

// Filter identifiers form a closed set. Unknown names are rejected, never
// silently defaulted.
const (
	ThresholdLi   = "threshold_li"
	ThresholdMean = "threshold_mean"
)

var ErrUnsupportedFilter = errors.New("unsupported filter")

// Filter converts a grayscale matrix into a binary segmentation of the
// same dimensions. Implementations must be deterministic and must not
// mutate their input.
type Filter interface {
	Name() string
	Apply(gray gocv.Mat) (gocv.Mat, error)
}

// Engine dispatches filter requests to registered implementations.
type Engine struct {
	mu      sync.RWMutex
	filters map[string]Filter
	log     logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop{}
	}
	e := &Engine{
		filters: make(map[string]Filter),
		log:     log,
	}
	e.register(&liThreshold{})
	e.register(&meanThreshold{})
	return e
}

func (e *Engine) register(f Filter) {
	e.filters[f.Name()] = f
}

// Has reports whether name identifies a registered filter.
func (e *Engine) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.filters[name]
	return ok
}

// Names returns the registered filter identifiers in sorted order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.filters))
	for name := range e.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs the named filter over input and returns a newly owned binary
// matrix with the same rows and columns. Multi-channel inputs are reduced
// to grayscale first; the input is never modified.
func (e *Engine) Apply(input gocv.Mat, name string) (gocv.Mat, error) {
	e.mu.RLock()
	filter, ok := e.filters[name]
	e.mu.RUnlock()

	if !ok {
		return gocv.Mat{}, fmt.Errorf("%w: %q", ErrUnsupportedFilter, name)
	}
	if input.Empty() {
		return gocv.Mat{}, fmt.Errorf("filter %s: input matrix is empty", name)
	}

	gray := toGray(input)
	defer gray.Close()

	out, err := filter.Apply(gray)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("filter %s: %w", name, err)
	}

	e.log.Debug("filters", "filter applied", map[string]interface{}{
		"filter": name,
		"rows":   out.Rows(),
		"cols":   out.Cols(),
	})

	return out, nil
}

// toGray returns a single-channel copy of input. The caller owns the result.
func toGray(input gocv.Mat) gocv.Mat {
	if input.Channels() == 1 {
		return input.Clone()
	}
	gray := gocv.NewMat()
	gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	return gray
}
