package cluster

import "errors"

var (
	// ErrInvalidParameter rejects bad job parameters before the job ever
	// enters the running state.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrModelFit marks failures of the clustering step itself.
	ErrModelFit = errors.New("model fit failed")
)
