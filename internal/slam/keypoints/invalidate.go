package keypoints

import (
	"math"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// Fixed thresholds not named as tunable Parameters because the source
// header doesn't expose them as public knobs either; they are internal
// constants of the invalidation heuristics (spec section 4.2 step 2).
const (
	// parallelBeamRangeRatio: a point's two along-line neighbors whose
	// ranges differ by more than this ratio indicate the beam is
	// grazing a near-parallel surface.
	parallelBeamRangeRatio = 1.3
	// saliencyNoiseFloor: saliency below this is indistinguishable from
	// sensor noise.
	saliencyNoiseFloor = 1e-3
)

// InvalidatePoints marks points invalid per spec section 4.2 step 2:
// end-of-line padding, near-parallel beam incidence, occlusion
// boundaries (the farther of two points straddling a depth jump), and
// sub-noise-floor saliency. Descriptors must already be populated via
// ComputeDescriptors.
func InvalidatePoints(line *types.ScanLine, neighborWidth int, edgeDepthGapThreshold float64) {
	n := line.Len()
	w := neighborWidth

	for i := 0; i < n; i++ {
		if i < w || i >= n-w {
			line.ValidFlag[i] = false
			line.Points[i].Label = types.Invalid
		}
	}

	for i := w; i < n-w; i++ {
		if !line.ValidFlag[i] {
			continue
		}
		rPrev := line.Points[i-1].Range()
		rNext := line.Points[i+1].Range()
		rMax, rMin := rPrev, rNext
		if rMin > rMax {
			rMax, rMin = rMin, rMax
		}
		if rMin > 1e-9 && rMax/rMin > parallelBeamRangeRatio {
			line.ValidFlag[i] = false
			line.Points[i].Label = types.Invalid
			continue
		}
		if line.Saliency[i] < saliencyNoiseFloor {
			line.ValidFlag[i] = false
			line.Points[i].Label = types.Invalid
		}
	}

	// Occlusion boundaries: compare each adjacent pair; the farther
	// point of a jump larger than the threshold is occluded from the
	// near side's perspective and is invalidated, the nearer point
	// survives.
	for i := 0; i < n-1; i++ {
		ri, rj := line.Points[i].Range(), line.Points[i+1].Range()
		gap := math.Abs(ri - rj)
		if gap <= edgeDepthGapThreshold {
			continue
		}
		if ri > rj {
			invalidateIndex(line, i)
		} else {
			invalidateIndex(line, i+1)
		}
	}
}

func invalidateIndex(line *types.ScanLine, i int) {
	if i < 0 || i >= line.Len() {
		return
	}
	line.ValidFlag[i] = false
	line.Points[i].Label = types.Invalid
}
