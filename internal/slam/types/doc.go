// Package types holds the data model shared by every layer of the SLAM
// pipeline: points, scan lines, per-line descriptors, the 6-DoF pose
// parameterization, and the rejection-cause taxonomy. Nothing in this
// package depends on grid, interp, keypoints, residual, lm, egomotion,
// mapping or pipeline — it sits at the bottom of the dependency order.
package types
