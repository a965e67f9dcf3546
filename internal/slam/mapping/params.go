package mapping

// Params holds the Mapping* tunables for one frame-to-map refinement
// pass (spec section 4.5's variants of egomotion.Params).
type Params struct {
	ICPMaxIter int
	LMMaxIter  int

	MaxDistanceForICPMatching float64

	LineNeighbors        int
	MinLineNeighbors     int
	LineDistanceFactor   float64
	MaxLineDistance      float64
	LineMaxDistInlier    float64

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
	FastSlam                bool
}
