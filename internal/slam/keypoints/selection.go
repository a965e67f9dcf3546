package keypoints

import (
	"sort"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// SelectKeypoints picks bounded, non-max-suppressed edge and planar
// keypoints per spec section 4.2 step 3. Descriptors and invalidation
// must already have been applied via ComputeDescriptors/
// InvalidatePoints.
func SelectKeypoints(line *types.ScanLine, neighborWidth int, edgeThreshold, planeThreshold float64, maxEdge, maxPlanars int) {
	n := line.Len()

	valid := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if line.ValidFlag[i] {
			valid = append(valid, i)
		}
	}

	// Edge selection: sharpest first.
	byScoreDesc := append([]int(nil), valid...)
	sort.Slice(byScoreDesc, func(a, b int) bool {
		return line.AngleScore[byScoreDesc[a]] > line.AngleScore[byScoreDesc[b]]
	})
	suppressed := make([]bool, n)
	edgeCount := 0
	for _, i := range byScoreDesc {
		if edgeCount >= maxEdge {
			break
		}
		if suppressed[i] {
			continue
		}
		if line.AngleScore[i] < edgeThreshold {
			break
		}
		line.Points[i].Label = types.EdgeSelected
		edgeCount++
		suppress(suppressed, i, neighborWidth, n)
	}

	// Planar selection: flattest first, independent NMS state.
	byScoreAsc := append([]int(nil), valid...)
	sort.Slice(byScoreAsc, func(a, b int) bool {
		return line.AngleScore[byScoreAsc[a]] < line.AngleScore[byScoreAsc[b]]
	})
	suppressedPlanar := make([]bool, n)
	planarCount := 0
	for _, i := range byScoreAsc {
		if planarCount >= maxPlanars {
			break
		}
		if suppressedPlanar[i] {
			continue
		}
		if line.Points[i].Label == types.EdgeSelected {
			continue
		}
		if line.AngleScore[i] > planeThreshold {
			break
		}
		line.Points[i].Label = types.PlanarSelected
		planarCount++
		suppress(suppressedPlanar, i, neighborWidth, n)
	}
}

func suppress(flags []bool, center, width, n int) {
	for d := -width; d <= width; d++ {
		idx := center + d
		if idx >= 0 && idx < n {
			flags[idx] = true
		}
	}
}
