package filters

import "gocv.io/x/gocv"

// histogram256 counts 8-bit intensities of a single-channel matrix. The
// direct pixel walk keeps the threshold math free of OpenCV rounding
// differences between builds, which is what makes repeated applications
// bit-identical.
func histogram256(gray gocv.Mat) [256]float64 {
	var hist [256]float64
	rows, cols := gray.Rows(), gray.Cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			hist[gray.GetUCharAt(y, x)]++
		}
	}
	return hist
}

// histMean returns the mean intensity of a histogram.
func histMean(hist [256]float64) float64 {
	var sum, count float64
	for i, h := range hist {
		sum += float64(i) * h
		count += h
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

// binarize thresholds gray at t: pixels strictly above t become 255,
// everything else 0. Returns a newly owned single-channel matrix.
func binarize(gray gocv.Mat, t float64) gocv.Mat {
	out := gocv.NewMat()
	gocv.Threshold(gray, &out, float32(t), 255, gocv.ThresholdBinary)
	return out
}
