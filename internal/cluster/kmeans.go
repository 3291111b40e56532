package cluster

import (
	"fmt"

	"gocv.io/x/gocv"
)

// fitKMeans clusters the feature matrix into k groups. Rows of features
// must all share the same length; callers guarantee len(features) >= k.
func fitKMeans(features [][]float64, k int) (centers [][]float64, labels []int, err error) {
	n := len(features)
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: empty feature matrix", ErrModelFit)
	}
	d := len(features[0])

	samples := gocv.NewMatWithSize(n, d, gocv.MatTypeCV32F)
	defer samples.Close()
	for i, row := range features {
		if len(row) != d {
			return nil, nil, fmt.Errorf("%w: ragged feature matrix at row %d", ErrModelFit, i)
		}
		for j, v := range row {
			samples.SetFloatAt(i, j, float32(v))
		}
	}

	labelsMat := gocv.NewMat()
	defer labelsMat.Close()
	centersMat := gocv.NewMat()
	defer centersMat.Close()

	criteria := gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, 100, 0.2)
	gocv.KMeans(samples, k, &labelsMat, criteria, 10, gocv.KMeansRandomCenters, &centersMat)

	if centersMat.Rows() != k || labelsMat.Rows() != n {
		return nil, nil, fmt.Errorf("%w: expected %d centers and %d labels, got %d and %d",
			ErrModelFit, k, n, centersMat.Rows(), labelsMat.Rows())
	}

	centers = make([][]float64, k)
	for i := 0; i < k; i++ {
		row := make([]float64, centersMat.Cols())
		for j := range row {
			row[j] = float64(centersMat.GetFloatAt(i, j))
		}
		centers[i] = row
	}

	labels = make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = int(labelsMat.GetIntAt(i, 0))
	}

	return centers, labels, nil
}
