package filters

import (
	"math"

	"gocv.io/x/gocv"
)

// liThreshold implements Li's iterative minimum cross-entropy threshold
// selection. Starting from the mean intensity, the threshold is refined
// from the foreground and background means until it stabilizes, then the
// image is binarized at the converged value.
type liThreshold struct{}

func (f *liThreshold) Name() string {
	return ThresholdLi
}

const (
	liTolerance     = 0.5
	liMaxIterations = 100
)

func (f *liThreshold) Apply(gray gocv.Mat) (gocv.Mat, error) {
	hist := histogram256(gray)
	t := liSelect(hist)
	return binarize(gray, t), nil
}

// liSelect runs the fixed-point iteration over the histogram. Degenerate
// histograms (single populated bin) fall back to the mean, which makes the
// whole image background.
func liSelect(hist [256]float64) float64 {
	t := histMean(hist)

	for i := 0; i < liMaxIterations; i++ {
		bgMean, fgMean, ok := classMeans(hist, t)
		if !ok {
			return t
		}

		// Cross-entropy update: t = (muF - muB) / (ln muF - ln muB).
		// Shifted by a small epsilon so empty-background images with
		// zero mean stay defined.
		const eps = 1e-10
		num := fgMean - bgMean
		den := math.Log(fgMean+eps) - math.Log(bgMean+eps)
		if den == 0 {
			return t
		}

		next := num / den
		if math.Abs(next-t) < liTolerance {
			return next
		}
		t = next
	}

	return t
}

// classMeans splits the histogram at threshold t and returns the mean
// intensity of each class. ok is false when either class is empty.
func classMeans(hist [256]float64, t float64) (bgMean, fgMean float64, ok bool) {
	cut := int(t)
	if cut < 0 {
		cut = 0
	}
	if cut > 255 {
		cut = 255
	}

	var bgSum, bgCount, fgSum, fgCount float64
	for i, h := range hist {
		if i <= cut {
			bgSum += float64(i) * h
			bgCount += h
		} else {
			fgSum += float64(i) * h
			fgCount += h
		}
	}

	if bgCount == 0 || fgCount == 0 {
		return 0, 0, false
	}
	return bgSum / bgCount, fgSum / fgCount, true
}
