package mapping

import (
	"math"

	"github.com/banshee-data/lidar-slam/internal/slam/residual"
)

// consensusLineInliers implements GetMappingLineSpecificNeigbbor's
// sample-consensus refinement: every pair of candidates defines a
// trial line, and the pair whose line has the largest inlier count
// within maxDistInlier wins. Grounded on the Sampler/Model/SAC
// interface shape of other_examples/seqsense-pcdeditor__sac.go,
// specialized to an exhaustive (rather than random) search over
// pairs since the radius-bounded candidate sets here are small.
func consensusLineInliers(candidates []residual.Candidate, maxDistInlier float64) []residual.Candidate {
	n := len(candidates)
	if n < 2 || maxDistInlier <= 0 {
		return candidates
	}

	best := candidates
	bestCount := -1

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a := candidates[i].Point.Vec3()
			b := candidates[j].Point.Vec3()
			dir := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
			norm := math.Sqrt(dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2])
			if norm < 1e-9 {
				continue
			}
			dir = [3]float64{dir[0] / norm, dir[1] / norm, dir[2] / norm}

			var inliers []residual.Candidate
			for _, c := range candidates {
				if pointLineDistance(c.Point.Vec3(), a, dir) <= maxDistInlier {
					inliers = append(inliers, c)
				}
			}
			if len(inliers) > bestCount {
				bestCount = len(inliers)
				best = inliers
			}
		}
	}
	return best
}

// pointLineDistance returns the distance from p to the line through a
// with unit direction dir.
func pointLineDistance(p, a, dir [3]float64) float64 {
	v := [3]float64{p[0] - a[0], p[1] - a[1], p[2] - a[2]}
	dot := v[0]*dir[0] + v[1]*dir[1] + v[2]*dir[2]
	proj := [3]float64{dot * dir[0], dot * dir[1], dot * dir[2]}
	d := [3]float64{v[0] - proj[0], v[1] - proj[1], v[2] - proj[2]}
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}
