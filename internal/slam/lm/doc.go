// Package lm implements the Levenberg-Marquardt minimization of the
// ICP objective Σ w*(R(t)*X + T(t) - P)^T A (R(t)*X + T(t) - P) over
// the 6-DoF Z*Y*X pose parameterization, with analytic Jacobians and
// gonum.org/v1/gonum/mat for the 6x6 normal-equation assembly and
// solve. Per-term time t scales the rotation/translation linearly
// (R(t),T(t) interpolate from identity at t=0 to the full pose at
// t=1); residual.Term.T is set to 1 for every term when undistortion
// is disabled, so the same Jacobian code path serves both cases.
//
// Grounded on other_examples/viamrobotics-rdk__icp.go's gonum/mat
// usage for point-cloud registration and on vtkSlam.h's
// Eigen::Matrix<double,6,6> normal-equation shape.
package lm
