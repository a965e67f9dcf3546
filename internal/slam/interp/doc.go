// Package interp provides the time-parameterized rigid-motion
// interpolator used to undistort sweeps: given a start and end pose
// and a sweep-relative time t in [0,1], it returns the pose at t,
// SLERPing the rotation on unit quaternions and linearly interpolating
// translation. Grounded on the quaternion/Euler conversion functions in
// westphae-goflying/ahrs/quaternions.go, generalized from that
// package's fixed Tait-Bryan roll/pitch/yaw offsets to the pipeline's
// Z*Y*X pose convention (internal/slam/types.Pose).
package interp
