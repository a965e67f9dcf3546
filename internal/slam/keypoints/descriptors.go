package keypoints

import (
	"math"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// ComputeDescriptors fills line's descriptor arrays for every point
// that has W neighbors on each side; points within W of either end are
// left with their zero-value descriptors and are invalidated
// separately by InvalidatePoints.
func ComputeDescriptors(line *types.ScanLine, neighborWidth int, angleResolutionRad float64) {
	n := line.Len()
	if len(line.AngleScore) != n {
		line.ResetDescriptors()
	}
	w := neighborWidth

	for i := w; i < n-w; i++ {
		p := line.Points[i]
		left := meanOf(line.Points[i-w : i])
		right := meanOf(line.Points[i+1 : i+1+w])

		v1 := sub(p.Vec3(), left)
		v2 := sub(right, p.Vec3())

		line.AngleScore[i] = angleScore(v1, v2)
		line.DepthGap[i] = depthGap(line.Points, i)
		line.LengthResolution[i] = angleResolutionRad * p.Range()
		line.Saliency[i] = saliency(line.Points, i)
	}
}

func meanOf(pts []types.Point) [3]float64 {
	var sum [3]float64
	for _, p := range pts {
		sum[0] += p.X
		sum[1] += p.Y
		sum[2] += p.Z
	}
	n := float64(len(pts))
	if n == 0 {
		return sum
	}
	return [3]float64{sum[0] / n, sum[1] / n, sum[2] / n}
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// angleScore is sin(angle(v1,v2)) = |v1 x v2| / (|v1||v2|): 0 when v1,
// v2 are colinear, 1 at a right-angle corner.
func angleScore(v1, v2 [3]float64) float64 {
	n1, n2 := norm(v1), norm(v2)
	if n1 < 1e-9 || n2 < 1e-9 {
		return 0
	}
	c := cross(v1, v2)
	s := norm(c) / (n1 * n2)
	if s > 1 {
		s = 1
	}
	return s
}

func depthGap(points []types.Point, i int) float64 {
	r := points[i].Range()
	prev := math.Abs(points[i-1].Range() - r)
	next := math.Abs(points[i+1].Range() - r)
	if prev > next {
		return prev
	}
	return next
}

func saliency(points []types.Point, i int) float64 {
	pm1, p, pp1 := points[i-1].Vec3(), points[i].Vec3(), points[i+1].Vec3()
	diff := [3]float64{
		pm1[0] - 2*p[0] + pp1[0],
		pm1[1] - 2*p[1] + pp1[1],
		pm1[2] - 2*p[2] + pp1[2],
	}
	return norm(diff)
}
