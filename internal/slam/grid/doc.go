// Package grid implements the rolling voxel grid local map: a bounded
// 3-D window of cells, each holding a leaf-filtered point cloud, that
// scrolls to stay centered on the sensor. It supports halo-expanded
// radius queries across cell boundaries and is exclusively owned by
// the estimator that embeds it — callers only ever get back copied
// point slices, never a live reference into a cell.
//
// Grounded on internal/lidar's SpatialIndex (grid-bucketed
// nearest-neighbor query with a 3x3 halo search, generalized here from
// 2-D to 3-D voxels) and on the rolling/recentering grid concept used
// by the teacher's grid-based background model.
package grid
