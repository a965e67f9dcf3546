package pipeline

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/lidar-slam/internal/config"
	"github.com/banshee-data/lidar-slam/internal/slam/ingest"
	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// cornerSweep builds one sweep's raw points for a synthetic two-wall
// corner: a Y=30 sheet and an X=30 sheet, each scanned by numLines
// scan lines separated slightly in Z. offsetX/offsetY shift the whole
// scene in the sensor frame, simulating the sensor itself having moved
// by (offsetX,offsetY) in the opposite direction in world coordinates.
// A small per-point jitter keeps two of every three points from being
// perfectly colinear with their neighbors (which would zero out their
// saliency and get them invalidated as noise; the middle point of each
// -1,0,+1 jitter run still is) while staying far below the planar
// angle threshold.
func cornerSweep(numLines int, offsetX, offsetY float64) []ingest.RawPoint {
	const groupLen = 20
	const step = 0.2

	jitter := func(k int) float64 {
		return 0.002 * float64((k%3)-1)
	}

	var pts []ingest.RawPoint
	for line := 0; line < numLines; line++ {
		z := float64(line) * 0.05

		for k := 0; k < groupLen; k++ {
			x := float64(k)*step - offsetX
			y := 30 - offsetY
			pts = append(pts, ingest.RawPoint{
				X: x, Y: y, Z: z + jitter(k),
				Intensity:  1.0,
				ScanLineID: line,
				AzimuthRad: float64(k) * 0.001,
			})
		}
		for k := 0; k < groupLen; k++ {
			x := 30 - offsetX
			y := float64(k)*step - offsetY
			pts = append(pts, ingest.RawPoint{
				X: x, Y: y, Z: z + jitter(k),
				Intensity:  1.0,
				ScanLineID: line,
				AzimuthRad: 1.0 + float64(k)*0.001,
			})
		}
	}
	return pts
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(config.DefaultTuningConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestAddFrameFirstSweepBootstrapsIdentity(t *testing.T) {
	p := newTestPipeline(t)
	report, err := p.AddFrame(cornerSweep(16, 0, 0), 0, int64(1e8), "f0")
	if err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if report.SkipReason != types.NotSkipped {
		t.Fatalf("SkipReason = %v, want NotSkipped", report.SkipReason)
	}
	if !report.PoseUpdated {
		t.Fatal("PoseUpdated = false on first sweep, want true")
	}
	if report.NumPlanarsSelected < 10 {
		t.Fatalf("NumPlanarsSelected = %d, want >= 10 for a two-wall scene", report.NumPlanarsSelected)
	}
	got := p.GetWorldTransform()
	for i, v := range got {
		if math.Abs(v) > 1e-12 {
			t.Errorf("Tworld[%d] = %f on bootstrap sweep, want exactly 0", i, v)
		}
	}
	if len(p.TworldList()) != 1 {
		t.Fatalf("TworldList length = %d, want 1", len(p.TworldList()))
	}
}

func TestAddFrameRecoversSmallTranslation(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.AddFrame(cornerSweep(16, 0, 0), 0, int64(1e8), "f0"); err != nil {
		t.Fatalf("AddFrame(f0): %v", err)
	}

	const dx, dy = 0.3, 0.2
	report, err := p.AddFrame(cornerSweep(16, dx, dy), int64(1e8), int64(2e8), "f1")
	if err != nil {
		t.Fatalf("AddFrame(f1): %v", err)
	}
	if report.SkipReason != types.NotSkipped {
		t.Fatalf("SkipReason = %v, want NotSkipped", report.SkipReason)
	}
	if !report.PoseUpdated {
		t.Fatal("PoseUpdated = false, want true")
	}

	v := p.GetWorldTransform()
	gotTX, gotTY := v[3], v[4]
	if math.Abs(gotTX-dx) > 0.05 {
		t.Errorf("Tworld.tx = %f, want close to %f", gotTX, dx)
	}
	if math.Abs(gotTY-dy) > 0.05 {
		t.Errorf("Tworld.ty = %f, want close to %f", gotTY, dy)
	}
	if len(p.TworldList()) != 2 {
		t.Fatalf("TworldList length = %d, want 2", len(p.TworldList()))
	}
}

func TestAddFrameSkipsInsufficientMatchesSweep(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.AddFrame(cornerSweep(16, 0, 0), 0, int64(1e8), "f0"); err != nil {
		t.Fatalf("AddFrame(f0): %v", err)
	}
	prevTworld := p.GetWorldTransform()

	sparse := []ingest.RawPoint{
		{X: 0, Y: 30, Z: 0, Intensity: 1, ScanLineID: 0, AzimuthRad: 0},
		{X: 0.2, Y: 30, Z: 0, Intensity: 1, ScanLineID: 0, AzimuthRad: 0.001},
		{X: 0.4, Y: 30, Z: 0, Intensity: 1, ScanLineID: 0, AzimuthRad: 0.002},
	}
	report, err := p.AddFrame(sparse, int64(1e8), int64(2e8), "f1")
	if err != nil {
		t.Fatalf("AddFrame(f1): %v", err)
	}
	if report.SkipReason != types.SkipInsufficientMatches {
		t.Fatalf("SkipReason = %v, want SkipInsufficientMatches", report.SkipReason)
	}
	if report.PoseUpdated {
		t.Error("PoseUpdated = true on a skipped sweep, want false")
	}
	if p.GetWorldTransform() != prevTworld {
		t.Error("Tworld changed on a skipped sweep, want it held at the previous value")
	}
	if len(p.TworldList()) != 2 {
		t.Fatalf("TworldList length = %d, want 2 (one entry appended even on skip)", len(p.TworldList()))
	}
}

func TestAddFrameSkipsOnDivergentJump(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.AddFrame(cornerSweep(16, 0, 0), 0, int64(1e8), "f0"); err != nil {
		t.Fatalf("AddFrame(f0): %v", err)
	}
	prevTworld := p.GetWorldTransform()

	const jump = 30.0
	// Shift the scene away from the sensor: a positive shift of 30 would
	// put both walls on radial lines (X=0 and Y=0), whose 0.2 m range
	// steps trip the depth-gap filter and leave too few keypoints.
	report, err := p.AddFrame(cornerSweep(16, -jump, -jump), int64(1e8), int64(2e8), "f1")
	if err != nil {
		t.Fatalf("AddFrame(f1): %v", err)
	}
	if report.SkipReason != types.SkipDiverged {
		t.Fatalf("SkipReason = %v, want SkipDiverged", report.SkipReason)
	}
	if diff := cmp.Diff(types.Identity(), report.Trelative); diff != "" {
		t.Errorf("Trelative mismatch on a diverged sweep (-want +got):\n%s", diff)
	}
	if p.GetWorldTransform() != prevTworld {
		t.Error("Tworld changed on a diverged sweep, want it held at the previous value")
	}
	if len(p.TworldList()) != 2 {
		t.Fatalf("TworldList length = %d, want 2", len(p.TworldList()))
	}
}
