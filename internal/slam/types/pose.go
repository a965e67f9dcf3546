package types

import "math"

// Pose is a 6-DoF rigid transform parameterized as (rx, ry, rz, tx, ty,
// tz), composed intrinsically as R = Rz(rz)*Ry(ry)*Rx(rx), applied to a
// point as p' = R*p + T. This composition order is fixed across the
// extractor, the residual Jacobians, and the LM solver; see DESIGN.md
// for why ZYX (rotation parameters first, matching the original header's
// Eigen::Matrix<double,6,1> layout) was chosen over the alternatives
// left open by the source.
type Pose struct {
	RX, RY, RZ float64
	TX, TY, TZ float64
}

// Identity returns the zero transform.
func Identity() Pose {
	return Pose{}
}

// Vector6 returns the pose as (rx,ry,rz,tx,ty,tz).
func (p Pose) Vector6() [6]float64 {
	return [6]float64{p.RX, p.RY, p.RZ, p.TX, p.TY, p.TZ}
}

// PoseFromVector6 builds a Pose from (rx,ry,rz,tx,ty,tz).
func PoseFromVector6(v [6]float64) Pose {
	return Pose{RX: v[0], RY: v[1], RZ: v[2], TX: v[3], TY: v[4], TZ: v[5]}
}

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// RotationMatrix returns R = Rz(rz)*Ry(ry)*Rx(rx).
func (p Pose) RotationMatrix() Mat3 {
	cx, sx := math.Cos(p.RX), math.Sin(p.RX)
	cy, sy := math.Cos(p.RY), math.Sin(p.RY)
	cz, sz := math.Cos(p.RZ), math.Sin(p.RZ)

	rx := Mat3{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	ry := Mat3{{cy, 0, sy}, {0, 1, 0}, {-sy, 0, cy}}
	rz := Mat3{{cz, -sz, 0}, {sz, cz, 0}, {0, 0, 1}}

	return mat3Mul(mat3Mul(rz, ry), rx)
}

func mat3Mul(a, b Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Apply transforms a 3-vector by R*v + T.
func (p Pose) Apply(v [3]float64) [3]float64 {
	R := p.RotationMatrix()
	return [3]float64{
		R[0][0]*v[0] + R[0][1]*v[1] + R[0][2]*v[2] + p.TX,
		R[1][0]*v[0] + R[1][1]*v[1] + R[1][2]*v[2] + p.TY,
		R[2][0]*v[0] + R[2][1]*v[1] + R[2][2]*v[2] + p.TZ,
	}
}

// ApplyPoint transforms a Point's position, leaving other fields as-is
// except the returned copy's X,Y,Z.
func (p Pose) ApplyPoint(pt Point) Point {
	v := p.Apply(pt.Vec3())
	out := pt
	out.X, out.Y, out.Z = v[0], v[1], v[2]
	return out
}

// Compose returns the pose equivalent to applying p first, then q:
// q after p, i.e. q.Compose(p) represents Tworld_prev * Trelative when
// q=Tworld_prev and p=Trelative (q's rotation/translation wrap around
// p's transformed frame).
func (q Pose) Compose(p Pose) Pose {
	Rq := q.RotationMatrix()
	Rp := p.RotationMatrix()
	R := mat3Mul(Rq, Rp)

	t := [3]float64{
		Rq[0][0]*p.TX + Rq[0][1]*p.TY + Rq[0][2]*p.TZ + q.TX,
		Rq[1][0]*p.TX + Rq[1][1]*p.TY + Rq[1][2]*p.TZ + q.TY,
		Rq[2][0]*p.TX + Rq[2][1]*p.TY + Rq[2][2]*p.TZ + q.TZ,
	}

	rx, ry, rz := eulerZYXFromMat3(R)
	return Pose{RX: rx, RY: ry, RZ: rz, TX: t[0], TY: t[1], TZ: t[2]}
}

// Inverse returns the pose such that p.Inverse().Compose(p) is
// identity (up to floating-point error).
func (p Pose) Inverse() Pose {
	R := p.RotationMatrix()
	Rt := Mat3{
		{R[0][0], R[1][0], R[2][0]},
		{R[0][1], R[1][1], R[2][1]},
		{R[0][2], R[1][2], R[2][2]},
	}
	t := [3]float64{-p.TX, -p.TY, -p.TZ}
	tInv := [3]float64{
		Rt[0][0]*t[0] + Rt[0][1]*t[1] + Rt[0][2]*t[2],
		Rt[1][0]*t[0] + Rt[1][1]*t[1] + Rt[1][2]*t[2],
		Rt[2][0]*t[0] + Rt[2][1]*t[1] + Rt[2][2]*t[2],
	}
	rx, ry, rz := eulerZYXFromMat3(Rt)
	return Pose{RX: rx, RY: ry, RZ: rz, TX: tInv[0], TY: tInv[1], TZ: tInv[2]}
}

// eulerZYXFromMat3 recovers (rx,ry,rz) such that R = Rz(rz)*Ry(ry)*Rx(rx).
func eulerZYXFromMat3(R Mat3) (rx, ry, rz float64) {
	ry = math.Asin(clamp(-R[2][0], -1, 1))
	cy := math.Cos(ry)
	if math.Abs(cy) > 1e-9 {
		rx = math.Atan2(R[2][1], R[2][2])
		rz = math.Atan2(R[1][0], R[0][0])
	} else {
		// Gimbal lock: ry = +-pi/2, rx and rz are coupled; pick rz=0.
		rx = math.Atan2(-R[1][2], R[1][1])
		rz = 0
	}
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

// TranslationNorm returns the Euclidean norm of the translation part,
// used by the divergence guard.
func (p Pose) TranslationNorm() float64 {
	return math.Sqrt(p.TX*p.TX + p.TY*p.TY + p.TZ*p.TZ)
}
