package grid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

func TestQueryRadiusMatchesBruteForce(t *testing.T) {
	g, err := New(0.5, 0.05, 40, 40, 40)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	src := rand.New(rand.NewSource(42))
	var points []types.Point
	for i := 0; i < 500; i++ {
		points = append(points, types.Point{
			X: (src.Float64() - 0.5) * 10,
			Y: (src.Float64() - 0.5) * 10,
			Z: (src.Float64() - 0.5) * 10,
		})
	}
	g.Insert(points)

	query := [3]float64{0.3, -0.7, 1.1}
	radius := 1.5

	got := g.QueryRadius(query, radius)
	gotSet := make(map[[3]float64]bool, len(got))
	for _, p := range got {
		gotSet[p.Vec3()] = true
	}

	// Brute force over the *inserted* (leaf-filtered) point set: read
	// every point back out of the grid directly rather than points,
	// since leaf filtering may have merged some of them.
	var all []types.Point
	for dx := int64(-5); dx <= 5; dx++ {
		for dy := int64(-5); dy <= 5; dy++ {
			for dz := int64(-5); dz <= 5; dz++ {
				all = append(all, g.cells[cellKey{dx, dy, dz}]...)
			}
		}
	}
	wantSet := make(map[[3]float64]bool)
	for _, p := range all {
		d := math.Sqrt((p.X-query[0])*(p.X-query[0]) + (p.Y-query[1])*(p.Y-query[1]) + (p.Z-query[2])*(p.Z-query[2]))
		if d <= radius {
			wantSet[p.Vec3()] = true
		}
	}

	if len(gotSet) != len(wantSet) {
		t.Fatalf("QueryRadius returned %d points, brute force found %d", len(gotSet), len(wantSet))
	}
	for k := range wantSet {
		if !gotSet[k] {
			t.Errorf("QueryRadius missed brute-force point %v", k)
		}
	}
}

func TestRecenterIdempotent(t *testing.T) {
	g, err := New(1.0, 0.1, 10, 10, 10)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var points []types.Point
	for i := 0; i < 50; i++ {
		points = append(points, types.Point{X: float64(i % 5), Y: float64(i % 3), Z: 0})
	}
	g.Insert(points)

	anchor := [3]float64{2, 1, 0}
	g.Recenter(anchor)
	n1 := g.NumPoints()
	g.Recenter(anchor)
	n2 := g.NumPoints()

	if n1 != n2 {
		t.Errorf("Recenter(same anchor) changed point count: %d -> %d", n1, n2)
	}
}

func TestInsertBoundsCellPointCount(t *testing.T) {
	g, err := New(1.0, 0.25, 5, 5, 5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var points []types.Point
	for i := 0; i < 1000; i++ {
		points = append(points, types.Point{X: 0.01 * float64(i%90), Y: 0, Z: 0})
	}
	g.Insert(points)

	maxPerCell := int(math.Ceil(1.0/0.25)) * int(math.Ceil(1.0/0.25)) * int(math.Ceil(1.0/0.25))
	for k, pts := range g.cells {
		if len(pts) > maxPerCell {
			t.Errorf("cell %v has %d points, want <= %d after leaf filtering", k, len(pts), maxPerCell)
		}
	}
}

func TestInsertDropsPointsOutsideWindow(t *testing.T) {
	g, err := New(1.0, 0.1, 3, 3, 3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.Insert([]types.Point{{X: 100, Y: 100, Z: 100}})
	if got := g.NumPoints(); got != 0 {
		t.Errorf("NumPoints() = %d, want 0 for a point far outside the window", got)
	}
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	if _, err := New(0, 0.1, 1, 1, 1); err == nil {
		t.Error("New() with zero voxel size: want error, got nil")
	}
	if _, err := New(1, 0.1, 0, 1, 1); err == nil {
		t.Error("New() with zero grid dim: want error, got nil")
	}
}
