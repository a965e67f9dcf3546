package mapping

import (
	"math"
	"sort"

	"github.com/banshee-data/lidar-slam/internal/slam/grid"
	"github.com/banshee-data/lidar-slam/internal/slam/interp"
	"github.com/banshee-data/lidar-slam/internal/slam/lm"
	"github.com/banshee-data/lidar-slam/internal/slam/residual"
	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// Result is the outcome of one Refine call.
type Result struct {
	Tworld        types.Pose
	Rejections    types.RejectionHistogram
	ICPIterations int
	Diverged      bool
}

// Refine matches currentEdges/currentPlanars against radius-query
// neighborhoods drawn from edgeGrid/planeGrid, alternating neighbor
// search with an LM minimization for up to p.ICPMaxIter iterations.
// initial is the odometry-seeded guess Tworld_prev.Compose(Trelative);
// on divergence Refine returns initial unchanged. If p.FastSlam,
// currentPlanars is expected to already be the same planar set used by
// ego-motion (the caller's responsibility per spec 4.5); otherwise the
// caller passes every non-invalid planar point.
func Refine(currentEdges, currentPlanars []types.Point, edgeGrid, planeGrid *grid.RollingGrid, initial types.Pose, p Params) Result {
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

		// Rebuilt once per pass, spanning identity to the current pose
		// estimate, per spec section 4.6.
		var motion *interp.Interpolator
		if p.Undistortion {
			motion = interp.NewBetween(types.Identity(), pose)
		}

		for _, X := range currentEdges {
			t := pointTime(X, p.Undistortion)
			transformed := transformPoint(pose, motion, t, X.Vec3())
			neighbors := asCandidates(edgeGrid.QueryRadius(transformed, p.MaxDistanceForICPMatching))
			neighbors = nearestN(neighbors, transformed, p.LineNeighbors)
			neighbors = consensusLineInliers(neighbors, p.LineMaxDistInlier)

			term, cause, ok := residual.BuildLineTerm(neighbors, transformed, X.Vec3(), t, residual.LineOpts{
				MinNeighbors:   p.MinLineNeighbors,
				MaxDistance:    p.MaxLineDistance,
				DistanceFactor: p.LineDistanceFactor,
				// Grid points carry no scan-line provenance; the
				// two-distinct-lines constraint only applies to
				// ego-motion's single-sweep matching.
				RequireDistinctLines: false,
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
			neighbors := asCandidates(planeGrid.QueryRadius(transformed, p.MaxDistanceForICPMatching))

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
			return Result{Tworld: initial, Rejections: rejections, ICPIterations: iterations, Diverged: true}
		}

		solved := lm.Solve(terms, pose, lmOpts)
		if solved.Diverged {
			rejections.Record(types.Diverged)
			return Result{Tworld: initial, Rejections: rejections, ICPIterations: iterations, Diverged: true}
		}
		pose = solved.Pose
		recordResidualTooLarge(terms, pose, p.MaxResidualNorm, &rejections)
	}

	return Result{Tworld: pose, Rejections: rejections, ICPIterations: iterations, Diverged: false}
}

// nearestN truncates candidates to the n closest to center, mirroring
// egomotion's kd-tree KNearest cap for mapping's radius-query
// candidate sets. n<=0 or a candidate set already at or under n is
// returned unchanged.
func nearestN(candidates []residual.Candidate, center [3]float64, n int) []residual.Candidate {
	if n <= 0 || len(candidates) <= n {
		return candidates
	}
	sort.Slice(candidates, func(i, j int) bool {
		return dist(candidates[i].Point, center) < dist(candidates[j].Point, center)
	})
	return candidates[:n]
}

func dist(p types.Point, q [3]float64) float64 {
	dx, dy, dz := p.X-q[0], p.Y-q[1], p.Z-q[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func asCandidates(points []types.Point) []residual.Candidate {
	out := make([]residual.Candidate, len(points))
	for i, p := range points {
		out[i] = residual.Candidate{Point: p, ScanLine: -1}
	}
	return out
}

func pointTime(p types.Point, undistortion bool) float64 {
	if !undistortion {
		return 1.0
	}
	return p.Time
}

// transformPoint mirrors egomotion's helper of the same name: it
// applies the SLERPed interpolator when undistortion is enabled, or
// pose directly otherwise.
func transformPoint(pose types.Pose, motion *interp.Interpolator, t float64, v [3]float64) [3]float64 {
	if motion == nil {
		return pose.Apply(v)
	}
	return motion.At(t).Apply(v)
}

// recordResidualTooLarge mirrors egomotion's helper of the same name:
// it re-checks each term against the converged pose and records
// ResidualTooLarge for any whose residual norm still exceeds
// maxResidualNorm, per spec section 4.4 step 5.
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
