package keypoints

import "github.com/banshee-data/lidar-slam/internal/slam/types"

// minSelectedPerCategory is the small per-category floor (spec section
// 4.2, "Failure semantics"): a sweep with fewer selected edges AND fewer
// selected planars than this is flagged BelowMinimum, and the pose
// estimator skips it. A sweep short in only one category is not
// flagged, and the returned clouds are never emptied.
const minSelectedPerCategory = 10

// Params holds the extractor's tunable knobs, a snapshot of the
// matching fields of internal/config.TuningConfig.
type Params struct {
	NeighborWidth          int
	AngleResolutionRad     float64
	EdgeSinAngleThreshold  float64
	PlaneSinAngleThreshold float64
	EdgeDepthGapThreshold  float64
	MaxEdgePerScanLine     int
	MaxPlanarsPerScanLine  int
	UseBlob                bool
	SphericityThreshold    float64
	IncertitudeCoef        float64
}

// Result is the extractor's per-sweep output: three point clouds
// (Blobs empty unless UseBlob) plus a flag telling the caller whether
// the sweep met the minimum-keypoint floor.
type Result struct {
	Edges   []types.Point
	Planars []types.Point
	Blobs   []types.Point

	// AllValidPlanars holds every valid, non-edge-selected point of the
	// sweep, not just the capped PlanarSelected set. The mapping driver
	// uses this broader pool for planar matching when FastSlam is
	// disabled (spec section 4.5).
	AllValidPlanars []types.Point

	BelowMinimum bool
}

// Extractor computes keypoints for one sweep, per scan line.
type Extractor struct {
	params Params
}

// New builds an Extractor with the given parameters.
func New(p Params) *Extractor {
	return &Extractor{params: p}
}

// Process runs the full per-line algorithm over every line of sweep
// and gathers the sweep-wide keypoint clouds.
func (e *Extractor) Process(sweep *types.Sweep) Result {
	var blobs, allValidPlanars []types.Point

	for _, line := range sweep.Lines {
		if line.Len() == 0 {
			continue
		}
		line.ResetDescriptors()
		ComputeDescriptors(line, e.params.NeighborWidth, e.params.AngleResolutionRad)
		InvalidatePoints(line, e.params.NeighborWidth, e.params.EdgeDepthGapThreshold)
		SelectKeypoints(line, e.params.NeighborWidth, e.params.EdgeSinAngleThreshold, e.params.PlaneSinAngleThreshold, e.params.MaxEdgePerScanLine, e.params.MaxPlanarsPerScanLine)

		if e.params.UseBlob {
			blobs = append(blobs, selectBlobs(line, e.params.NeighborWidth, e.params.SphericityThreshold, e.params.IncertitudeCoef)...)
		}

		for i, valid := range line.ValidFlag {
			if valid && line.Points[i].Label != types.EdgeSelected {
				allValidPlanars = append(allValidPlanars, line.Points[i])
			}
		}
	}

	edges := sweep.KeypointCloud(types.EdgeSelected)
	planars := sweep.KeypointCloud(types.PlanarSelected)

	result := Result{Edges: edges, Planars: planars, Blobs: blobs, AllValidPlanars: allValidPlanars}
	if len(edges) < minSelectedPerCategory && len(planars) < minSelectedPerCategory {
		result.BelowMinimum = true
	}
	return result
}
