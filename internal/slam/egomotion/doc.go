// Package egomotion recovers the frame-to-frame rigid transform
// Trelative between a sweep's current edge/planar keypoints and the
// previous sweep's, by repeated kd-tree matching and LM minimization
// (spec section 4.4). The same driver shape is reused by the mapping
// package for frame-to-map refinement, parameterized differently (see
// DESIGN.md).
package egomotion
