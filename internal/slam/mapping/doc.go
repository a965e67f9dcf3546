// Package mapping refines the frame-to-frame pose against the rolling
// voxel map instead of the previous sweep's raw keypoints (spec section
// 4.5): the neighbor set for each keypoint is drawn from grid.RollingGrid
// radius queries rather than a kd-tree over one sweep, and edge matches
// additionally pass through a sample-consensus inlier refinement before
// the line fit. The underlying per-term construction and LM
// minimization are shared with the egomotion package.
package mapping
