package egomotion

import (
	"github.com/banshee-data/lidar-slam/internal/slam/interp"
	"github.com/banshee-data/lidar-slam/internal/slam/lm"
	"github.com/banshee-data/lidar-slam/internal/slam/residual"
	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// Result is the outcome of one Estimate call.
type Result struct {
	Trelative     types.Pose
	Rejections    types.RejectionHistogram
	ICPIterations int
	Diverged      bool
}

// Estimate recovers Trelative by matching currentEdges/currentPlanars
// against kd-trees built over previousEdges/previousPlanars, alternating
// neighbor search with an LM minimization for up to p.ICPMaxIter
// iterations (spec section 4.4). initial seeds the pose search; the
// pipeline passes identity. Map refinement uses mapping.Refine, not
// this function.
func Estimate(currentEdges, currentPlanars []types.Point, previousEdges, previousPlanars []residual.Candidate, initial types.Pose, p Params) Result {
	edgeTree := residual.Build(previousEdges)
	planeTree := residual.Build(previousPlanars)

	pose := initial
	var rejections types.RejectionHistogram

	lmOpts := lm.Options{
		MaxIterations:      p.LMMaxIter,
		MaxTranslationNorm: p.MaxDistBetweenTwoFrames,
		InitialLambda:      1e-3,
		GradientTolerance:  1e-9,
		StepTolerance:      1e-10,
	}

	iterations := 0
	for iter := 0; iter < p.ICPMaxIter; iter++ {
		iterations = iter + 1
		var terms []residual.Term

		// Rebuilt once per pass (not per point) from identity at the
		// sweep's start to the current pose estimate at its end, per
		// spec section 4.6.
		var motion *interp.Interpolator
		if p.Undistortion {
			motion = interp.NewIdentityToPose(pose)
		}

		for _, X := range currentEdges {
			t := pointTime(X, p.Undistortion)
			transformed := transformPoint(pose, motion, t, X.Vec3())
			neighbors := edgeTree.KNearest(transformed, p.LineNeighbors)
			term, cause, ok := residual.BuildLineTerm(neighbors, transformed, X.Vec3(), t, residual.LineOpts{
				MinNeighbors:         p.MinLineNeighbors,
				MaxDistance:          p.MaxLineDistance,
				DistanceFactor:       p.LineDistanceFactor,
				RequireDistinctLines: p.RequireDistinctLines,
			})
			if !ok {
				rejections.Record(cause)
				continue
			}
			terms = append(terms, term)
		}

		for _, X := range currentPlanars {
			t := pointTime(X, p.Undistortion)
			transformed := transformPoint(pose, motion, t, X.Vec3())
			neighbors := planeTree.KNearest(transformed, p.PlaneNeighbors)
			term, cause, ok := residual.BuildPlaneTerm(neighbors, transformed, X.Vec3(), t, residual.PlaneOpts{
				MinNeighbors:    p.PlaneNeighbors,
				MaxDistance:     p.MaxPlaneDistance,
				DistanceFactor1: p.PlaneDistanceFactor1,
				DistanceFactor2: p.PlaneDistanceFactor2,
			})
			if !ok {
				rejections.Record(cause)
				continue
			}
			terms = append(terms, term)
		}

		if len(terms) == 0 {
			rejections.Record(types.InsufficientNeighbors)
			return Result{Trelative: types.Identity(), Rejections: rejections, ICPIterations: iterations, Diverged: true}
		}

		solved := lm.Solve(terms, pose, lmOpts)
		if solved.Diverged {
			rejections.Record(types.Diverged)
			return Result{Trelative: types.Identity(), Rejections: rejections, ICPIterations: iterations, Diverged: true}
		}
		pose = solved.Pose
		recordResidualTooLarge(terms, pose, p.MaxResidualNorm, &rejections)
	}

	return Result{Trelative: pose, Rejections: rejections, ICPIterations: iterations, Diverged: false}
}

// pointTime returns the scaling time used for undistortion: the point's
// own sweep-relative time when enabled, or 1.0 (full pose, no per-point
// compensation) otherwise.
func pointTime(p types.Point, undistortion bool) float64 {
	if !undistortion {
		return 1.0
	}
	return p.Time
}

// transformPoint applies the sweep-relative motion at time t to v: the
// SLERPed interpolator when undistortion is enabled, or pose directly
// otherwise (equivalent to motion.At(1), since pointTime always returns
// 1.0 when undistortion is off). lm's own analytic Jacobian keeps its
// separate linear-angle approximation for the LM trial poses it
// searches internally (see lm's package doc); this only governs which
// point position feeds neighbor search and term construction.
func transformPoint(pose types.Pose, motion *interp.Interpolator, t float64, v [3]float64) [3]float64 {
	if motion == nil {
		return pose.Apply(v)
	}
	return motion.At(t).Apply(v)
}

// recordResidualTooLarge re-checks each term against the pose lm.Solve
// just converged to and records ResidualTooLarge for any whose residual
// norm still exceeds maxResidualNorm, per spec section 4.4 step 5's
// post-optimization outlier check. maxResidualNorm<=0 disables it.
func recordResidualTooLarge(terms []residual.Term, pose types.Pose, maxResidualNorm float64, rejections *types.RejectionHistogram) {
	if maxResidualNorm <= 0 {
		return
	}
	for _, term := range terms {
		if term.ResidualNorm(pose) > maxResidualNorm {
			rejections.Record(types.ResidualTooLarge)
		}
	}
}
