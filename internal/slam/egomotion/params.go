package egomotion

// Params holds the tunables for one matching/minimization pass. The
// mapping package has its own Params of the same shape, built from the
// Mapping* config fields, for its separate Refine driver.
type Params struct {
	ICPMaxIter int
	LMMaxIter  int

	LineNeighbors         int
	MinLineNeighbors      int
	LineDistanceFactor    float64
	MaxLineDistance       float64
	RequireDistinctLines  bool

	PlaneNeighbors       int
	PlaneDistanceFactor1 float64
	PlaneDistanceFactor2 float64
	MaxPlaneDistance     float64

	// MaxResidualNorm gates the post-optimization outlier check (spec
	// section 4.4 step 5): terms whose residual.Term.ResidualNorm at the
	// converged pose exceeds this are recorded as ResidualTooLarge. <= 0
	// disables the check.
	MaxResidualNorm float64

	MaxDistBetweenTwoFrames float64
	Undistortion            bool
}
