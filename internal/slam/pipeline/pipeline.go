package pipeline

import (
	"github.com/banshee-data/lidar-slam/internal/config"
	"github.com/banshee-data/lidar-slam/internal/monitoring"
	"github.com/banshee-data/lidar-slam/internal/slam/egomotion"
	"github.com/banshee-data/lidar-slam/internal/slam/grid"
	"github.com/banshee-data/lidar-slam/internal/slam/ingest"
	"github.com/banshee-data/lidar-slam/internal/slam/keypoints"
	"github.com/banshee-data/lidar-slam/internal/slam/mapping"
	"github.com/banshee-data/lidar-slam/internal/slam/residual"
	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// Pipeline holds all state persisted across sweeps: the current and
// previous world poses, the trajectory, the three rolling grids, the
// previous sweep's keypoint clouds, and the ingestor/extractor that
// carry the frozen scan-line set and tuning parameters.
type Pipeline struct {
	cfg *config.TuningConfig

	ingestor  *ingest.Ingestor
	extractor *keypoints.Extractor

	edgeGrid   *grid.RollingGrid
	planarGrid *grid.RollingGrid
	blobGrid   *grid.RollingGrid

	tworld         types.Pose
	previousTworld types.Pose
	trelative      types.Pose
	tworldList     []types.Pose

	previousEdges, previousPlanars, previousBlobs []types.Point

	haveSweep bool
}

// New constructs a Pipeline from a fully-resolved tuning configuration.
func New(cfg *config.TuningConfig) (*Pipeline, error) {
	edgeGrid, err := grid.New(cfg.GetGridVoxelSize(), cfg.GetLeafSize(), int64(cfg.GetGridDimX()), int64(cfg.GetGridDimY()), int64(cfg.GetGridDimZ()))
	if err != nil {
		return nil, err
	}
	planarGrid, err := grid.New(cfg.GetGridVoxelSize(), cfg.GetLeafSize(), int64(cfg.GetGridDimX()), int64(cfg.GetGridDimY()), int64(cfg.GetGridDimZ()))
	if err != nil {
		return nil, err
	}
	blobGrid, err := grid.New(cfg.GetGridVoxelSize(), cfg.GetLeafSize(), int64(cfg.GetGridDimX()), int64(cfg.GetGridDimY()), int64(cfg.GetGridDimZ()))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		ingestor:   ingest.New(cfg.GetMinDistanceToSensor()),
		extractor:  keypoints.New(extractorParams(cfg)),
		edgeGrid:   edgeGrid,
		planarGrid: planarGrid,
		blobGrid:   blobGrid,
	}, nil
}

// GetWorldTransform returns the current Tworld as (rx,ry,rz,tx,ty,tz).
func (p *Pipeline) GetWorldTransform() [6]float64 {
	return p.tworld.Vector6()
}

// TworldList returns the trajectory accumulated so far. The returned
// slice is a copy; callers must not rely on aliasing.
func (p *Pipeline) TworldList() []types.Pose {
	out := make([]types.Pose, len(p.tworldList))
	copy(out, p.tworldList)
	return out
}

// AddFrame ingests one sweep's raw points and advances the pipeline by
// exactly one sweep, following spec 4.7's fixed step order. On a
// skipped sweep Tworld is held at its previous value (no
// constant-velocity extrapolation) and that held pose is still
// appended to TworldList.
func (p *Pipeline) AddFrame(points []ingest.RawPoint, sweepStartNs, sweepEndNs int64, frameID string) (*types.SweepReport, error) {
	sweep, err := p.ingestor.Ingest(points, sweepStartNs, sweepEndNs)
	if err != nil {
		return nil, err
	}

	result := p.extractor.Process(sweep)
	report := &types.SweepReport{
		FrameID:            frameID,
		NumEdgesSelected:   len(result.Edges),
		NumPlanarsSelected: len(result.Planars),
		NumBlobsSelected:   len(result.Blobs),
	}

	if result.BelowMinimum {
		monitoring.Logf("pipeline: frame %s skipped, insufficient keypoints (edges=%d planars=%d)", frameID, len(result.Edges), len(result.Planars))
		report.SkipReason = types.SkipInsufficientMatches
		report.Trelative = types.Identity()
		report.Tworld = p.tworld
		p.tworldList = append(p.tworldList, p.tworld)
		return report, nil
	}

	if !p.haveSweep {
		// First sweep: no previous state to match against. Tworld
		// starts at identity and the sweep's keypoints seed the map.
		p.commit(result, types.Identity(), types.Identity())
		report.Trelative = types.Identity()
		report.Tworld = p.tworld
		report.PoseUpdated = true
		return report, nil
	}

	previousEdgeCandidates := asCandidates(p.previousEdges)
	previousPlanarCandidates := asCandidates(p.previousPlanars)

	egoResult := egomotion.Estimate(result.Edges, result.Planars, previousEdgeCandidates, previousPlanarCandidates, types.Identity(), egoMotionParams(p.cfg))
	report.EgoMotionICPIterations = egoResult.ICPIterations
	report.EgoMotionRejections = egoResult.Rejections

	if egoResult.Diverged {
		monitoring.Logf("pipeline: frame %s skipped, ego-motion diverged after %d iterations", frameID, egoResult.ICPIterations)
		report.SkipReason = types.SkipDiverged
		report.Trelative = types.Identity()
		report.Tworld = p.tworld
		p.tworldList = append(p.tworldList, p.tworld)
		return report, nil
	}
	trelative := egoResult.Trelative

	initialGuess := p.tworld.Compose(trelative)
	mappingPlanars := result.Planars
	if !p.cfg.GetFastSlam() {
		mappingPlanars = result.AllValidPlanars
	}

	mapResult := mapping.Refine(result.Edges, mappingPlanars, p.edgeGrid, p.planarGrid, initialGuess, mappingParams(p.cfg))
	report.MappingICPIterations = mapResult.ICPIterations
	report.MappingRejections = mapResult.Rejections

	if mapResult.Diverged {
		monitoring.Logf("pipeline: frame %s skipped, mapping refinement diverged after %d iterations", frameID, mapResult.ICPIterations)
		report.SkipReason = types.SkipDiverged
		report.Trelative = types.Identity()
		report.Tworld = p.tworld
		p.tworldList = append(p.tworldList, p.tworld)
		return report, nil
	}

	p.commit(result, mapResult.Tworld, trelative)
	report.Trelative = trelative
	report.Tworld = p.tworld
	report.PoseUpdated = true
	return report, nil
}

// commit advances the persisted state after a successful (or
// first-sweep bootstrap) sweep: it transforms the current keypoints
// into world coordinates, inserts them into the rolling grids,
// recenters the grids on the new pose, records the trajectory entry,
// and rolls Previous* forward to the current sweep's keypoints.
func (p *Pipeline) commit(result keypoints.Result, newTworld, trelative types.Pose) {
	p.previousTworld = p.tworld
	p.tworld = newTworld
	p.trelative = trelative
	p.tworldList = append(p.tworldList, p.tworld)

	p.edgeGrid.Insert(worldPoints(result.Edges, p.tworld))
	p.planarGrid.Insert(worldPoints(result.Planars, p.tworld))
	if len(result.Blobs) > 0 {
		p.blobGrid.Insert(worldPoints(result.Blobs, p.tworld))
	}

	anchor := [3]float64{p.tworld.TX, p.tworld.TY, p.tworld.TZ}
	p.edgeGrid.Recenter(anchor)
	p.planarGrid.Recenter(anchor)
	p.blobGrid.Recenter(anchor)

	p.previousEdges = result.Edges
	p.previousPlanars = result.Planars
	p.previousBlobs = result.Blobs
	p.haveSweep = true
}

func worldPoints(points []types.Point, pose types.Pose) []types.Point {
	out := make([]types.Point, len(points))
	for i, pt := range points {
		out[i] = pose.ApplyPoint(pt)
	}
	return out
}

func asCandidates(points []types.Point) []residual.Candidate {
	out := make([]residual.Candidate, len(points))
	for i, p := range points {
		out[i] = residual.Candidate{Point: p, ScanLine: p.ScanLine}
	}
	return out
}
