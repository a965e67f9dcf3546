package lm

import (
	"math"
	"testing"

	"github.com/banshee-data/lidar-slam/internal/slam/residual"
	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// planeTerm builds a point-to-plane term anchored at plane point P with
// normal n, for sensor-frame point X, at time t.
func planeTerm(P, n, X [3]float64, t float64) residual.Term {
	var A types.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			A[i][j] = n[i] * n[j]
		}
	}
	return residual.Term{A: A, P: P, X: X, W: 1, T: t}
}

func TestSolveRecoversPureTranslation(t *testing.T) {
	// Ground truth: a small translation, no rotation.
	truth := types.Pose{TX: 0.2, TY: -0.1, TZ: 0.05}

	planes := []struct {
		P, n [3]float64
	}{
		{P: [3]float64{1, 0, 0}, n: [3]float64{1, 0, 0}},
		{P: [3]float64{0, 1, 0}, n: [3]float64{0, 1, 0}},
		{P: [3]float64{0, 0, 1}, n: [3]float64{0, 0, 1}},
		{P: [3]float64{1, 1, 1}, n: [3]float64{1, 1, 1}},
	}

	// Several non-coplanar sensor points per plane: with a single X the
	// plane terms give only three constraints on six unknowns, so the
	// rotation would be free to absorb part of the translation.
	xs := [][3]float64{{0.3, 0.4, 0.5}, {1.0, -0.5, 0.2}, {-0.7, 0.6, -0.4}}

	var terms []residual.Term
	for _, pl := range planes {
		for _, X := range xs {
			world := truth.Apply(X)
			// Shift the plane point P along its normal so world lies on it
			// exactly: P' = world (trivially on the plane through world with
			// normal n).
			terms = append(terms, planeTerm(world, pl.n, X, 1.0))
		}
	}

	result := Solve(terms, types.Identity(), DefaultOptions())
	if result.Diverged {
		t.Fatalf("Solve diverged: cause=%v", result.Cause)
	}
	if !almostEqual(result.Pose.TX, truth.TX, 1e-6) ||
		!almostEqual(result.Pose.TY, truth.TY, 1e-6) ||
		!almostEqual(result.Pose.TZ, truth.TZ, 1e-6) {
		t.Errorf("Solve pose = %+v, want %+v", result.Pose, truth)
	}
}

func TestSolveZeroResidualAtGroundTruthIsFixedPoint(t *testing.T) {
	truth := types.Pose{RZ: 0.05, TX: 0.1}
	X := [3]float64{1, 2, 0}
	world := truth.Apply(X)

	A := types.Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	term := residual.Term{A: A, P: world, X: X, W: 1, T: 1}

	result := Solve([]residual.Term{term, term, term}, truth, DefaultOptions())
	if result.Diverged {
		t.Fatalf("Solve diverged unexpectedly: cause=%v", result.Cause)
	}
	if result.Iterations > 1 {
		t.Errorf("expected immediate convergence from the ground-truth pose, got %d iterations", result.Iterations)
	}
}

func TestSolveDivergesOnEmptyTerms(t *testing.T) {
	result := Solve(nil, types.Identity(), DefaultOptions())
	if !result.Diverged {
		t.Fatal("expected Solve to report divergence with no terms")
	}
}

func TestSolveRespectsMaxTranslationNorm(t *testing.T) {
	truth := types.Pose{TX: 5}
	X := [3]float64{1, 0, 0}
	world := truth.Apply(X)
	A := types.Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	term := residual.Term{A: A, P: world, X: X, W: 1, T: 1}

	opts := DefaultOptions()
	opts.MaxTranslationNorm = 0.5

	result := Solve([]residual.Term{term, term, term}, types.Identity(), opts)
	if !result.Diverged {
		t.Fatal("expected divergence guard to trip for an out-of-range translation")
	}
	if result.Pose != (types.Pose{}) {
		t.Errorf("diverged result should return the initial pose unchanged, got %+v", result.Pose)
	}
}

func TestSolveUndistortionTimeScalingAppliesFractionalPose(t *testing.T) {
	// At t=0.5 only half of the candidate pose's translation should be
	// applied by residualAndJacobian; verify the residual reflects that
	// directly (a unit test of the jacobian helper via its effect on
	// cost rather than the full solver).
	pose := types.Pose{TX: 1.0}
	term := residual.Term{
		A: types.Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		P: [3]float64{0.5, 0, 0},
		X: [3]float64{0, 0, 0},
		W: 1,
		T: 0.5,
	}
	e, _ := residualAndJacobian(pose, term)
	if !almostEqual(e[0], 0, 1e-9) {
		t.Errorf("residual at t=0.5 for TX=1 should vanish against P=(0.5,0,0), got e[0]=%f", e[0])
	}
}
