package ingest

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// RawPoint is the per-point shape the external point-cloud container
// hands the ingestor: a position, an intensity, the sensor's own
// scan-line id, an azimuth used for within-line ordering, and an
// acquisition timestamp used to compute the sweep-relative time.
type RawPoint struct {
	X, Y, Z     float64
	Intensity   float64
	ScanLineID  int
	AzimuthRad  float64
	TimestampNs int64
}

func (p RawPoint) rangeOK(minDistance float64) bool {
	r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return false
	}
	return r >= minDistance
}

// Ingestor discovers the set of scan-line ids on the first sweep it
// sees and freezes it thereafter, per spec: "L is discovered from the
// first sweep and fixed thereafter." A later sweep carrying a
// scan-line id outside that frozen set is a programming precondition
// violation (see DESIGN.md decision on Open Question (c)), not a
// per-sweep skip condition.
type Ingestor struct {
	minDistanceToSensor float64

	frozen    bool
	lineOrder []int       // frozen order of scan-line ids, index == internal line index
	lineIndex map[int]int // raw scan-line id -> internal line index
}

// New creates an Ingestor with the given minimum sensor range.
func New(minDistanceToSensor float64) *Ingestor {
	return &Ingestor{minDistanceToSensor: minDistanceToSensor}
}

// NumLines returns L, or 0 before the first sweep has been ingested.
func (in *Ingestor) NumLines() int {
	return len(in.lineOrder)
}

// Ingest reorders one sweep's raw points into per-line, azimuth-sorted
// form. sweepStartNs/sweepEndNs bound the sweep's acquisition window
// and are used to compute each point's sweep-relative time in [0,1].
func (in *Ingestor) Ingest(points []RawPoint, sweepStartNs, sweepEndNs int64) (*types.Sweep, error) {
	if !in.frozen {
		in.discoverLines(points)
	}

	duration := float64(sweepEndNs - sweepStartNs)

	lines := make([]*types.ScanLine, len(in.lineOrder))
	for i := range lines {
		lines[i] = types.NewScanLine(i, 0)
	}

	type placed struct {
		lineIdx     int
		azimuth     float64
		originalIdx int
		point       types.Point
	}
	var kept []placed

	for origIdx, rp := range points {
		if !rp.rangeOK(in.minDistanceToSensor) {
			continue
		}
		lineIdx, ok := in.lineIndex[rp.ScanLineID]
		if !ok {
			return nil, fmt.Errorf("ingest: scan-line id %d not present in frozen set of %d lines", rp.ScanLineID, len(in.lineOrder))
		}

		t := 0.0
		if duration > 0 {
			t = float64(rp.TimestampNs-sweepStartNs) / duration
			if t < 0 {
				t = 0
			}
			if t > 1 {
				t = 1
			}
		}

		kept = append(kept, placed{
			lineIdx:     lineIdx,
			azimuth:     rp.AzimuthRad,
			originalIdx: origIdx,
			point: types.Point{
				X: rp.X, Y: rp.Y, Z: rp.Z,
				Intensity: rp.Intensity,
				ScanLine:  lineIdx,
				Time:      t,
				Label:     types.Unlabeled,
			},
		})
	}

	byLine := make([][]placed, len(in.lineOrder))
	for _, pl := range kept {
		byLine[pl.lineIdx] = append(byLine[pl.lineIdx], pl)
	}

	inputIndex := make([][]int, len(in.lineOrder))
	for li, group := range byLine {
		sort.Slice(group, func(i, j int) bool { return group[i].azimuth < group[j].azimuth })

		line := lines[li]
		line.Points = make([]types.Point, len(group))
		idxs := make([]int, len(group))
		for i, pl := range group {
			line.Points[i] = pl.point
			idxs[i] = pl.originalIdx
		}
		line.ResetDescriptors()
		inputIndex[li] = idxs
	}

	return &types.Sweep{Lines: lines, InputIndex: inputIndex}, nil
}

func (in *Ingestor) discoverLines(points []RawPoint) {
	seen := make(map[int]bool)
	var order []int
	for _, p := range points {
		if !seen[p.ScanLineID] {
			seen[p.ScanLineID] = true
			order = append(order, p.ScanLineID)
		}
	}
	sort.Ints(order)

	in.lineOrder = order
	in.lineIndex = make(map[int]int, len(order))
	for i, id := range order {
		in.lineIndex[id] = i
	}
	in.frozen = true
}
