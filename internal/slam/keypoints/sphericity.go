package keypoints

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// selectBlobs runs the sphericity test (spec section 4.2 step 4) over
// each valid point's along-line neighborhood of half-width
// neighborWidth: a neighborhood whose covariance eigenvalues are
// roughly equal (λ1≈λ2≈λ3) is isotropic, i.e. not on an edge or a
// plane, and is kept as a blob keypoint when UseBlob is set.
func selectBlobs(line *types.ScanLine, neighborWidth int, sphericityThreshold, incertitudeCoef float64) []types.Point {
	n := line.Len()
	w := neighborWidth
	var blobs []types.Point

	for i := w; i < n-w; i++ {
		if !line.ValidFlag[i] {
			continue
		}
		neighborhood := line.Points[i-w : i+w+1]
		eigenvalues := covarianceEigenvalues(neighborhood)
		if len(eigenvalues) != 3 {
			continue
		}
		sort.Float64s(eigenvalues)
		lambdaMin, lambdaMax := eigenvalues[0], eigenvalues[2]
		if lambdaMax < 1e-12 {
			continue
		}
		sphericity := lambdaMin / lambdaMax
		// incertitudeCoef inflates the acceptance band to account for
		// range-dependent neighborhood-radius uncertainty, matching
		// vtkSlam.h's IncertitudeCoef.
		if sphericity >= sphericityThreshold/incertitudeCoef {
			blobs = append(blobs, line.Points[i])
		}
	}
	return blobs
}

// covarianceEigenvalues returns the three eigenvalues of the 3x3
// sample covariance matrix of points' positions.
func covarianceEigenvalues(points []types.Point) []float64 {
	n := len(points)
	if n < 3 {
		return nil
	}
	var mean [3]float64
	for _, p := range points {
		mean[0] += p.X
		mean[1] += p.Y
		mean[2] += p.Z
	}
	mean[0] /= float64(n)
	mean[1] /= float64(n)
	mean[2] /= float64(n)

	var cov [3][3]float64
	for _, p := range points {
		d := [3]float64{p.X - mean[0], p.Y - mean[1], p.Z - mean[2]}
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				cov[a][b] += d[a] * d[b]
			}
		}
	}
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			cov[a][b] /= float64(n - 1)
		}
	}

	sym := mat.NewSymDense(3, []float64{
		cov[0][0], cov[0][1], cov[0][2],
		cov[1][0], cov[1][1], cov[1][2],
		cov[2][0], cov[2][1], cov[2][2],
	})
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return nil
	}
	return eig.Values(nil)
}
