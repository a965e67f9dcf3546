// Package keypoints implements the per-scan-line keypoint extractor:
// descriptor computation (angle score, depth gap, length resolution,
// saliency), occlusion/parallel-beam invalidation, and bounded,
// non-max-suppressed edge/planar/blob selection. Grounded on the
// extractor's documented algorithm (spec section 4.2) and on
// vtkSlam.h's parameter names for the thresholds it takes.
package keypoints
