// Package ingest re-orders one sweep's raw points into the ordered
// per-scan-line form (internal/slam/types.Sweep) the rest of the
// pipeline consumes: sorted by azimuth within each discovered scan
// line, annotated with sweep-relative time, with NaN-range and
// too-close points dropped. It is the sweep ingestor of the pipeline's
// component design — the first, leaf-most stage after the raw point
// cloud container, which is out of scope for the core.
package ingest
