package cluster

import (
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"nosferatu/internal/models"
)

// FeatureNames documents the per-image feature vector, in column order.
// Segmentation-derived columns come first, raw intensity statistics after.
var FeatureNames = []string{
	"foreground_fraction",
	"foreground_mean",
	"background_mean",
	"intensity_mean",
	"intensity_stddev",
	"intensity_skewness",
}

// extractFeatures summarizes one image as a fixed-length vector. binary is
// the filter output for img: a pixel is foreground iff its binary value is
// nonzero.
func extractFeatures(img *models.ImageData, binary gocv.Mat) []float64 {
	gray := img.Mat
	owned := false
	if gray.Channels() != 1 {
		gray = gocv.NewMat()
		gocv.CvtColor(img.Mat, &gray, gocv.ColorBGRToGray)
		owned = true
	}
	if owned {
		defer gray.Close()
	}

	rows, cols := gray.Rows(), gray.Cols()
	total := rows * cols

	intensities := make([]float64, 0, total)
	var fgSum, bgSum float64
	var fgCount, bgCount int

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := float64(gray.GetUCharAt(y, x))
			intensities = append(intensities, v)
			if binary.GetUCharAt(y, x) > 0 {
				fgSum += v
				fgCount++
			} else {
				bgSum += v
				bgCount++
			}
		}
	}

	var fgFraction, fgMean, bgMean float64
	if total > 0 {
		fgFraction = float64(fgCount) / float64(total)
	}
	if fgCount > 0 {
		fgMean = fgSum / float64(fgCount)
	}
	if bgCount > 0 {
		bgMean = bgSum / float64(bgCount)
	}

	mean := stat.Mean(intensities, nil)
	stdDev := stat.StdDev(intensities, nil)
	skew := stat.Skew(intensities, nil)
	// Skewness is undefined at zero variance (uniform frames are valid
	// input); the feature matrix must stay finite for the fit and the
	// artifact encoding.
	if math.IsNaN(stdDev) || math.IsInf(stdDev, 0) {
		stdDev = 0
	}
	if stdDev == 0 || math.IsNaN(skew) || math.IsInf(skew, 0) {
		skew = 0
	}

	return []float64{fgFraction, fgMean, bgMean, mean, stdDev, skew}
}
