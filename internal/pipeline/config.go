package pipeline

import "nosferatu/internal/filters"

// Config carries the coordinator defaults. The zero value is not usable;
// start from DefaultConfig and override fields as needed.
type Config struct {
	// DefaultFilter is the initially selected filter spec.
	DefaultFilter string

	// DefaultClusterCount is the k suggested to callers that do not ask
	// for a specific cluster count.
	DefaultClusterCount int
}

// DefaultConfig mirrors the tool's historical defaults: ten clusters and
// mean thresholding.
func DefaultConfig() Config {
	return Config{
		DefaultFilter:       filters.ThresholdMean,
		DefaultClusterCount: 10,
	}
}
