package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// cellKey is an absolute integer voxel coordinate: floor(pos/voxelSize)
// per axis. Using absolute coordinates (rather than coordinates
// relative to the current window) makes recenter a pure filter over
// the existing map instead of a full rebuild.
type cellKey struct{ x, y, z int64 }

// RollingGrid is a bounded 3-D voxel grid of fixed extent (Gx, Gy, Gz
// cells of side VoxelSize) that scrolls to stay centered on a moving
// anchor. Every cell's contents are kept subsampled to at most one
// point per LeafSize-sided sub-voxel.
type RollingGrid struct {
	voxelSize float64
	leafSize  float64
	dims      [3]int64 // Gx, Gy, Gz

	anchorCell cellKey
	cells      map[cellKey][]types.Point
}

// New constructs a RollingGrid centered at the origin.
func New(voxelSize, leafSize float64, gx, gy, gz int64) (*RollingGrid, error) {
	if voxelSize <= 0 {
		return nil, fmt.Errorf("grid: voxel size must be positive, got %f", voxelSize)
	}
	if leafSize <= 0 {
		return nil, fmt.Errorf("grid: leaf size must be positive, got %f", leafSize)
	}
	if gx <= 0 || gy <= 0 || gz <= 0 {
		return nil, fmt.Errorf("grid: grid dims must be positive, got (%d,%d,%d)", gx, gy, gz)
	}
	return &RollingGrid{
		voxelSize: voxelSize,
		leafSize:  leafSize,
		dims:      [3]int64{gx, gy, gz},
		cells:     make(map[cellKey][]types.Point),
	}, nil
}

// VoxelSize returns V, the cell side length.
func (g *RollingGrid) VoxelSize() float64 { return g.voxelSize }

// SetVoxelSize changes V. Existing cell contents are cleared since the
// cell boundaries they were built against no longer apply.
func (g *RollingGrid) SetVoxelSize(v float64) error {
	if v <= 0 {
		return fmt.Errorf("grid: voxel size must be positive, got %f", v)
	}
	g.voxelSize = v
	g.cells = make(map[cellKey][]types.Point)
	return nil
}

// LeafSize returns the per-cell subsampling voxel size.
func (g *RollingGrid) LeafSize() float64 { return g.leafSize }

// SetLeafSize changes the leaf filter size and re-applies it to every
// existing cell.
func (g *RollingGrid) SetLeafSize(v float64) error {
	if v <= 0 {
		return fmt.Errorf("grid: leaf size must be positive, got %f", v)
	}
	g.leafSize = v
	for k, pts := range g.cells {
		g.cells[k] = leafFilter(pts, v)
	}
	return nil
}

// GridDims returns (Gx, Gy, Gz).
func (g *RollingGrid) GridDims() (int64, int64, int64) {
	return g.dims[0], g.dims[1], g.dims[2]
}

// SetGridDims changes the grid's window size. Cells now outside the
// window (relative to the current anchor) are dropped.
func (g *RollingGrid) SetGridDims(gx, gy, gz int64) error {
	if gx <= 0 || gy <= 0 || gz <= 0 {
		return fmt.Errorf("grid: grid dims must be positive, got (%d,%d,%d)", gx, gy, gz)
	}
	g.dims = [3]int64{gx, gy, gz}
	g.dropOutOfWindow()
	return nil
}

func (g *RollingGrid) keyOf(x, y, z float64) cellKey {
	return cellKey{
		x: int64(math.Floor(x / g.voxelSize)),
		y: int64(math.Floor(y / g.voxelSize)),
		z: int64(math.Floor(z / g.voxelSize)),
	}
}

func (g *RollingGrid) inWindow(k cellKey) bool {
	hx, hy, hz := g.dims[0]/2, g.dims[1]/2, g.dims[2]/2
	return abs64(k.x-g.anchorCell.x) <= hx &&
		abs64(k.y-g.anchorCell.y) <= hy &&
		abs64(k.z-g.anchorCell.z) <= hz
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Insert inserts points into their cells, dropping any point whose
// cell falls outside the current window, then re-applies the leaf
// filter to every touched cell.
func (g *RollingGrid) Insert(points []types.Point) {
	touched := make(map[cellKey]bool)
	for _, p := range points {
		k := g.keyOf(p.X, p.Y, p.Z)
		if !g.inWindow(k) {
			continue
		}
		g.cells[k] = append(g.cells[k], p)
		touched[k] = true
	}
	for k := range touched {
		g.cells[k] = leafFilter(g.cells[k], g.leafSize)
	}
}

// QueryRadius returns every point within radius r of p, drawn from
// every cell that could possibly contain such a point (a halo of
// ceil(r/voxelSize) cells in each direction), so results are correct
// across cell boundaries.
func (g *RollingGrid) QueryRadius(p [3]float64, r float64) []types.Point {
	if r <= 0 {
		return nil
	}
	center := g.keyOf(p[0], p[1], p[2])
	halo := int64(math.Ceil(r / g.voxelSize))
	r2 := r * r

	var out []types.Point
	for dx := -halo; dx <= halo; dx++ {
		for dy := -halo; dy <= halo; dy++ {
			for dz := -halo; dz <= halo; dz++ {
				k := cellKey{center.x + dx, center.y + dy, center.z + dz}
				for _, q := range g.cells[k] {
					ddx, ddy, ddz := q.X-p[0], q.Y-p[1], q.Z-p[2]
					if ddx*ddx+ddy*ddy+ddz*ddz <= r2 {
						out = append(out, q)
					}
				}
			}
		}
	}
	return out
}

// Recenter shifts the grid window so anchor lies at its center. Cells
// shifted out of the new window are dropped; cells that remain in
// range keep their contents unchanged. Calling Recenter twice with the
// same anchor is idempotent: the second call drops nothing new.
func (g *RollingGrid) Recenter(anchor [3]float64) {
	g.anchorCell = g.keyOf(anchor[0], anchor[1], anchor[2])
	g.dropOutOfWindow()
}

func (g *RollingGrid) dropOutOfWindow() {
	for k := range g.cells {
		if !g.inWindow(k) {
			delete(g.cells, k)
		}
	}
}

// NumPoints returns the total number of points currently stored across
// all cells, for tests and diagnostics.
func (g *RollingGrid) NumPoints() int {
	n := 0
	for _, pts := range g.cells {
		n += len(pts)
	}
	return n
}

// leafFilter subsamples points to at most one point per leafSize-sided
// sub-voxel, replacing each occupied sub-voxel's points with their
// centroid.
func leafFilter(points []types.Point, leafSize float64) []types.Point {
	if leafSize <= 0 || len(points) == 0 {
		return points
	}
	type bucket struct {
		xs, ys, zs []float64
		intensity  []float64
	}
	buckets := make(map[cellKey]*bucket)
	for _, p := range points {
		k := cellKey{
			x: int64(math.Floor(p.X / leafSize)),
			y: int64(math.Floor(p.Y / leafSize)),
			z: int64(math.Floor(p.Z / leafSize)),
		}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.xs = append(b.xs, p.X)
		b.ys = append(b.ys, p.Y)
		b.zs = append(b.zs, p.Z)
		b.intensity = append(b.intensity, p.Intensity)
	}

	out := make([]types.Point, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, types.Point{
			X:         stat.Mean(b.xs, nil),
			Y:         stat.Mean(b.ys, nil),
			Z:         stat.Mean(b.zs, nil),
			Intensity: stat.Mean(b.intensity, nil),
		})
	}
	return out
}
