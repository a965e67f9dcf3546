package residual

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// Term is one accumulated residual in the LM objective:
// w * (R(t)*X + T(t) - P)^T A (R(t)*X + T(t) - P).
type Term struct {
	A types.Mat3
	P [3]float64
	X [3]float64
	W float64
	T float64
}

// ResidualNorm returns sqrt(w * e^T A e) for term evaluated at pose,
// using the same linear-in-angle R(t)/T(t) model as the lm package's
// analytic Jacobian (see lm's package doc) so a caller can re-check the
// exact quantity the solver minimized after convergence, per spec.md
// 4.4 step 5's post-optimization outlier check.
func (term Term) ResidualNorm(pose types.Pose) float64 {
	scaled := types.Pose{
		RX: term.T * pose.RX, RY: term.T * pose.RY, RZ: term.T * pose.RZ,
		TX: term.T * pose.TX, TY: term.T * pose.TY, TZ: term.T * pose.TZ,
	}
	r := scaled.Apply(term.X)
	e := [3]float64{r[0] - term.P[0], r[1] - term.P[1], r[2] - term.P[2]}

	var eAe float64
	for i := 0; i < 3; i++ {
		var Aei float64
		for j := 0; j < 3; j++ {
			Aei += term.A[i][j] * e[j]
		}
		eAe += e[i] * Aei
	}
	if eAe < 0 {
		eAe = 0
	}
	return math.Sqrt(term.W * eAe)
}

// LineOpts parameterizes point-to-line matching for one ICP pass; the
// same shape serves both ego-motion and mapping (DESIGN NOTES: a
// tagged variant replaces the source's string-discriminated parameter
// builders).
type LineOpts struct {
	MinNeighbors          int
	MaxDistance           float64
	DistanceFactor        float64
	RequireDistinctLines  bool
}

// PlaneOpts parameterizes point-to-plane matching.
type PlaneOpts struct {
	MinNeighbors    int
	MaxDistance     float64
	DistanceFactor1 float64
	DistanceFactor2 float64
}

// BuildLineTerm fits a line through candidates' positions and, if
// accepted, returns the corresponding residual term. X is the
// sensor-frame keypoint (untransformed); transformed is its current
// world-estimate position, used for neighbor-distance gating and the
// robust weight.
func BuildLineTerm(candidates []Candidate, transformed, X [3]float64, t float64, opts LineOpts) (Term, types.RejectionCause, bool) {
	if len(candidates) < opts.MinNeighbors {
		return Term{}, types.InsufficientNeighbors, false
	}
	if opts.RequireDistinctLines && countDistinctLines(candidates) < 2 {
		return Term{}, types.InsufficientNeighbors, false
	}

	maxD := 0.0
	for _, c := range candidates {
		d := dist(c.Point, transformed)
		if d > maxD {
			maxD = d
		}
	}
	if opts.MaxDistance > 0 && maxD > opts.MaxDistance {
		return Term{}, types.NeighborhoodTooFar, false
	}

	mean, eigenvalues, eigenvectors, ok := covarianceEigen(candidates)
	if !ok {
		return Term{}, types.Singular, false
	}

	lambdaMid, lambdaMax := eigenvalues[1], eigenvalues[2]
	// A perfectly straight neighborhood has lambdaMid at or near zero;
	// that's the ideal line, so only a cluster with no spread at all
	// (lambdaMax near zero) is degenerate.
	if lambdaMax < 1e-12 || lambdaMax < opts.DistanceFactor*lambdaMid {
		return Term{}, types.BadEigenRatio, false
	}

	n := eigenvectors[2] // top eigenvector: line direction
	A := projectorOrthogonalTo(n)

	sigma2 := lambdaMax
	if sigma2 < 1e-9 {
		sigma2 = 1e-9
	}
	diff := [3]float64{transformed[0] - mean[0], transformed[1] - mean[1], transformed[2] - mean[2]}
	d2 := diff[0]*diff[0] + diff[1]*diff[1] + diff[2]*diff[2]
	w := math.Exp(-d2 / sigma2)

	return Term{A: A, P: mean, X: X, W: w, T: t}, 0, true
}

// BuildPlaneTerm fits a plane through candidates' positions and, if
// accepted, returns the corresponding residual term.
func BuildPlaneTerm(candidates []Candidate, transformed, X [3]float64, t float64, opts PlaneOpts) (Term, types.RejectionCause, bool) {
	if len(candidates) < opts.MinNeighbors {
		return Term{}, types.InsufficientNeighbors, false
	}

	maxD := 0.0
	for _, c := range candidates {
		d := dist(c.Point, transformed)
		if d > maxD {
			maxD = d
		}
	}
	if opts.MaxDistance > 0 && maxD > opts.MaxDistance {
		return Term{}, types.NeighborhoodTooFar, false
	}

	mean, eigenvalues, eigenvectors, ok := covarianceEigen(candidates)
	if !ok {
		return Term{}, types.Singular, false
	}

	lambdaMin, lambdaMid, lambdaMax := eigenvalues[0], eigenvalues[1], eigenvalues[2]
	// A flat plane has lambdaMin at or near zero by construction; that's
	// the ideal case, not a singularity, so only the eigenvalue-ratio
	// acceptance test below gates it.
	if lambdaMid < 1e-12 {
		return Term{}, types.BadEigenRatio, false
	}
	if !(lambdaMid > opts.DistanceFactor2*lambdaMin && lambdaMax < opts.DistanceFactor1*lambdaMid) {
		return Term{}, types.BadEigenRatio, false
	}

	n := eigenvectors[0] // bottom eigenvector: plane normal
	A := outerProduct(n)

	sigma2 := lambdaMax
	if sigma2 < 1e-9 {
		sigma2 = 1e-9
	}
	diff := [3]float64{transformed[0] - mean[0], transformed[1] - mean[1], transformed[2] - mean[2]}
	d2 := diff[0]*diff[0] + diff[1]*diff[1] + diff[2]*diff[2]
	w := math.Exp(-d2 / sigma2)

	return Term{A: A, P: mean, X: X, W: w, T: t}, 0, true
}

func countDistinctLines(candidates []Candidate) int {
	seen := make(map[int]bool)
	for _, c := range candidates {
		if c.ScanLine >= 0 {
			seen[c.ScanLine] = true
		}
	}
	return len(seen)
}

func dist(p types.Point, q [3]float64) float64 {
	dx, dy, dz := p.X-q[0], p.Y-q[1], p.Z-q[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// covarianceEigen returns the mean, ascending eigenvalues, and their
// corresponding eigenvectors of candidates' sample covariance.
func covarianceEigen(candidates []Candidate) (mean [3]float64, eigenvalues [3]float64, eigenvectors [3][3]float64, ok bool) {
	n := len(candidates)
	if n < 3 {
		return mean, eigenvalues, eigenvectors, false
	}
	for _, c := range candidates {
		mean[0] += c.Point.X
		mean[1] += c.Point.Y
		mean[2] += c.Point.Z
	}
	mean[0] /= float64(n)
	mean[1] /= float64(n)
	mean[2] /= float64(n)

	var cov [3][3]float64
	for _, c := range candidates {
		d := [3]float64{c.Point.X - mean[0], c.Point.Y - mean[1], c.Point.Z - mean[2]}
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
	if ok := eig.Factorize(sym, true); !ok {
		return mean, eigenvalues, eigenvectors, false
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	for i := 0; i < 3; i++ {
		eigenvalues[i] = vals[i]
		eigenvectors[i] = [3]float64{vecs.At(0, i), vecs.At(1, i), vecs.At(2, i)}
	}
	return mean, eigenvalues, eigenvectors, true
}

// projectorOrthogonalTo returns A = I - n*n^T, the squared projector
// onto the plane orthogonal to n (the projector is symmetric and
// idempotent, so its square equals itself).
func projectorOrthogonalTo(n [3]float64) types.Mat3 {
	var A types.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			identity := 0.0
			if i == j {
				identity = 1
			}
			A[i][j] = identity - n[i]*n[j]
		}
	}
	return A
}

// outerProduct returns A = n*n^T.
func outerProduct(n [3]float64) types.Mat3 {
	var A types.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			A[i][j] = n[i] * n[j]
		}
	}
	return A
}
