// Package residual builds the point-to-line and point-to-plane
// residual terms an ICP iteration accumulates: neighbor discovery (a
// kd-tree over a keypoint cloud, or a caller-supplied candidate set
// from the rolling grid), 3x3 covariance eigendecomposition to accept
// or reject the local geometry as line-like or plane-like, and the
// resulting (A, P, X, w, t) term consumed by the LM solver.
//
// Grounded on other_examples/viamrobotics-rdk__icp.go's use of
// gonum.org/v1/gonum/mat for point-cloud registration eigen math, and
// on vtkSlam.h's documented line/plane acceptance ratios
// (EgoMotionLineDistancefactor, EgoMotionPlaneDistancefactor1/2).
package residual
