package interp

import "math"

// ToQuaternion returns the (w,x,y,z) unit quaternion for the rotation
// R = Rz(rz)*Ry(ry)*Rx(rx), matching types.Pose's composition order.
func ToQuaternion(rx, ry, rz float64) (w, x, y, z float64) {
	cx, sx := math.Cos(rx/2), math.Sin(rx/2)
	cy, sy := math.Cos(ry/2), math.Sin(ry/2)
	cz, sz := math.Cos(rz/2), math.Sin(rz/2)

	// Quaternion product qz * qy * qx.
	w = cz*cy*cx + sz*sy*sx
	x = cz*cy*sx - sz*sy*cx
	y = cz*sy*cx + sz*cy*sx
	z = sz*cy*cx - cz*sy*sx
	return w, x, y, z
}

// FromQuaternion recovers (rx,ry,rz) from a unit quaternion, inverse of
// ToQuaternion.
func FromQuaternion(w, x, y, z float64) (rx, ry, rz float64) {
	// R[2][0] = 2*(x*z - w*y); R[2][1..2] give rx; R[1][0],R[0][0] give rz.
	sinRy := clamp(-2*(x*z-w*y), -1, 1)
	ry = math.Asin(sinRy)

	r21 := 2 * (y*z + w*x)
	r22 := 1 - 2*(x*x+y*y)
	rx = math.Atan2(r21, r22)

	r10 := 2 * (x*y + w*z)
	r00 := 1 - 2*(y*y+z*z)
	rz = math.Atan2(r10, r00)
	return rx, ry, rz
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// slerp spherically interpolates between unit quaternions a and b at
// parameter t in [0,1].
func slerp(aw, ax, ay, az, bw, bx, by, bz, t float64) (w, x, y, z float64) {
	dot := aw*bw + ax*bx + ay*by + az*bz
	if dot < 0 {
		bw, bx, by, bz = -bw, -bx, -by, -bz
		dot = -dot
	}
	const epsilon = 1e-6
	if dot > 1-epsilon {
		// Nearly identical rotations: linear interpolation avoids the
		// 0/0 division sin(theta) would hit.
		w = aw + t*(bw-aw)
		x = ax + t*(bx-ax)
		y = ay + t*(by-ay)
		z = az + t*(bz-az)
		return normalizeQuat(w, x, y, z)
	}

	theta0 := math.Acos(dot)
	theta := theta0 * t
	sinTheta0 := math.Sin(theta0)
	sinTheta := math.Sin(theta)

	s0 := math.Cos(theta) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	w = s0*aw + s1*bw
	x = s0*ax + s1*bx
	y = s0*ay + s1*by
	z = s0*az + s1*bz
	return w, x, y, z
}

func normalizeQuat(w, x, y, z float64) (float64, float64, float64, float64) {
	n := math.Sqrt(w*w + x*x + y*y + z*z)
	if n == 0 {
		return 1, 0, 0, 0
	}
	return w / n, x / n, y / n, z / n
}
