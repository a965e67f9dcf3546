package interp

import "github.com/banshee-data/lidar-slam/internal/slam/types"

// Interpolator produces the pose at a sweep-relative time t in [0,1]
// between a start and end pose, for per-point motion compensation
// during an ICP inner pass. It is rebuilt (via Set) at the start of
// each pass when Undistortion is enabled, so interpolation always
// uses the current estimate, per spec section 4.6.
type Interpolator struct {
	startW, startX, startY, startZ float64
	endW, endX, endY, endZ         float64
	startT                         [3]float64
	endT                           [3]float64
}

// Set rebuilds the interpolator to span [start, end].
func (in *Interpolator) Set(start, end types.Pose) {
	in.startW, in.startX, in.startY, in.startZ = ToQuaternion(start.RX, start.RY, start.RZ)
	in.endW, in.endX, in.endY, in.endZ = ToQuaternion(end.RX, end.RY, end.RZ)
	in.startT = [3]float64{start.TX, start.TY, start.TZ}
	in.endT = [3]float64{end.TX, end.TY, end.TZ}
}

// NewIdentityToPose builds an interpolator spanning identity at t=0 to
// end at t=1, the ego-motion case in spec section 4.6.
func NewIdentityToPose(end types.Pose) *Interpolator {
	in := &Interpolator{}
	in.Set(types.Identity(), end)
	return in
}

// NewBetween builds an interpolator spanning start at t=0 to end at
// t=1, the mapping case in spec section 4.6.
func NewBetween(start, end types.Pose) *Interpolator {
	in := &Interpolator{}
	in.Set(start, end)
	return in
}

// At returns the interpolated pose at sweep-relative time t, SLERPing
// rotation and linearly interpolating translation.
func (in *Interpolator) At(t float64) types.Pose {
	if t <= 0 {
		rx, ry, rz := FromQuaternion(in.startW, in.startX, in.startY, in.startZ)
		return types.Pose{RX: rx, RY: ry, RZ: rz, TX: in.startT[0], TY: in.startT[1], TZ: in.startT[2]}
	}
	if t >= 1 {
		rx, ry, rz := FromQuaternion(in.endW, in.endX, in.endY, in.endZ)
		return types.Pose{RX: rx, RY: ry, RZ: rz, TX: in.endT[0], TY: in.endT[1], TZ: in.endT[2]}
	}

	w, x, y, z := slerp(in.startW, in.startX, in.startY, in.startZ, in.endW, in.endX, in.endY, in.endZ, t)
	rx, ry, rz := FromQuaternion(w, x, y, z)

	tx := in.startT[0] + t*(in.endT[0]-in.startT[0])
	ty := in.startT[1] + t*(in.endT[1]-in.startT[1])
	tz := in.startT[2] + t*(in.endT[2]-in.startT[2])

	return types.Pose{RX: rx, RY: ry, RZ: rz, TX: tx, TY: ty, TZ: tz}
}
