package filters

import "gocv.io/x/gocv"

// meanThreshold binarizes at the image's mean intensity. A pixel is
// foreground iff its value exceeds the mean.
type meanThreshold struct{}

func (f *meanThreshold) Name() string {
	return ThresholdMean
}

func (f *meanThreshold) Apply(gray gocv.Mat) (gocv.Mat, error) {
	hist := histogram256(gray)
	t := histMean(hist)
	return binarize(gray, t), nil
}
