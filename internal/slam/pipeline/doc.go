// Package pipeline implements the top-level per-sweep orchestration
// (spec section 4.7): ingest, extract keypoints, estimate ego-motion,
// refine against the map, update the map, and advance the persisted
// Previous* state, in that fixed order. It is the only package that
// wires ingest, keypoints, egomotion, mapping, and grid together.
package pipeline
