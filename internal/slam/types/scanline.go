package types

// ScanLine holds the points of one laser beam within a sweep, ordered
// by azimuth, plus the per-point descriptors computed by the keypoint
// extractor. ResetDescriptors sizes the descriptor arrays to the same
// length as Points.
type ScanLine struct {
	Index  int
	Points []Point

	AngleScore       []float64
	DepthGap         []float64
	LengthResolution []float64
	Saliency         []float64
	ValidFlag        []bool
}

// NewScanLine allocates an empty ScanLine whose point and descriptor
// slices have length 0 and capacity n; callers append points and then
// call ResetDescriptors.
func NewScanLine(index int, n int) *ScanLine {
	return &ScanLine{
		Index:            index,
		Points:           make([]Point, 0, n),
		AngleScore:       make([]float64, 0, n),
		DepthGap:         make([]float64, 0, n),
		LengthResolution: make([]float64, 0, n),
		Saliency:         make([]float64, 0, n),
		ValidFlag:        make([]bool, 0, n),
	}
}

// Len returns the number of points in the line.
func (s *ScanLine) Len() int {
	return len(s.Points)
}

// ResetDescriptors reallocates descriptor arrays to match len(Points),
// zeroed, used at the start of each sweep's keypoint-extraction pass.
func (s *ScanLine) ResetDescriptors() {
	n := len(s.Points)
	s.AngleScore = make([]float64, n)
	s.DepthGap = make([]float64, n)
	s.LengthResolution = make([]float64, n)
	s.Saliency = make([]float64, n)
	s.ValidFlag = make([]bool, n)
	for i := range s.ValidFlag {
		s.ValidFlag[i] = true
	}
}

// Sweep is the ingestor's output: L scan lines indexed 0..L-1, plus a
// two-way mapping between the caller's input ordering and the
// (line, position) ordering the rest of the pipeline uses.
type Sweep struct {
	Lines []*ScanLine

	// InputIndex[line][pos] is the index of that point in the original
	// input slice passed to the ingestor. The reverse mapping
	// (original index -> (line, pos)) is derived on demand rather than
	// stored twice.
	InputIndex [][]int
}

// LineOf returns (line, pos) for a given original input index, or
// (-1, -1) if not found. Derived on demand per DESIGN NOTES guidance
// against storing both directions.
func (s *Sweep) LineOf(originalIndex int) (line, pos int) {
	for li, idxs := range s.InputIndex {
		for p, idx := range idxs {
			if idx == originalIndex {
				return li, p
			}
		}
	}
	return -1, -1
}

// NumLines returns L, the number of discovered scan lines.
func (s *Sweep) NumLines() int {
	return len(s.Lines)
}

// CountEdgesSelected returns the total number of edge-selected points
// across every line.
func (s *Sweep) CountEdgesSelected() int {
	return s.countLabel(EdgeSelected)
}

// CountPlanarsSelected returns the total number of planar-selected
// points across every line.
func (s *Sweep) CountPlanarsSelected() int {
	return s.countLabel(PlanarSelected)
}

func (s *Sweep) countLabel(tag LabelTag) int {
	n := 0
	for _, line := range s.Lines {
		for _, p := range line.Points {
			if p.Label == tag {
				n++
			}
		}
	}
	return n
}

// KeypointCloud gathers every point across all lines carrying one of
// the given labels, e.g. collecting CurrentEdges from EdgeSelected tags.
func (s *Sweep) KeypointCloud(tags ...LabelTag) []Point {
	want := make(map[LabelTag]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	var out []Point
	for _, line := range s.Lines {
		for _, p := range line.Points {
			if want[p.Label] {
				out = append(out, p)
			}
		}
	}
	return out
}
