package lm

import (
	"math"

	"github.com/banshee-data/lidar-slam/internal/slam/residual"
	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// residualAndJacobian returns e = R(t)*X + T(t) - P and its 3x6
// Jacobian wrt (rx,ry,rz,tx,ty,tz), where R(t),T(t) interpolate
// linearly in the rotation angles and translation from identity at
// t=0 to pose at t=1 (see package doc for why this is analytic rather
// than a true SLERP).
func residualAndJacobian(pose types.Pose, term residual.Term) (e [3]float64, J [3][6]float64) {
	t := term.T
	srx, sry, srz := t*pose.RX, t*pose.RY, t*pose.RZ

	cx, sx := math.Cos(srx), math.Sin(srx)
	cy, sy := math.Cos(sry), math.Sin(sry)
	cz, sz := math.Cos(srz), math.Sin(srz)

	Rx := types.Mat3{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	Ry := types.Mat3{{cy, 0, sy}, {0, 1, 0}, {-sy, 0, cy}}
	Rz := types.Mat3{{cz, -sz, 0}, {sz, cz, 0}, {0, 0, 1}}

	dRx := types.Mat3{{0, 0, 0}, {0, -sx, -cx}, {0, cx, -sx}}
	dRy := types.Mat3{{-sy, 0, cy}, {0, 0, 0}, {-cy, 0, -sy}}
	dRz := types.Mat3{{-sz, -cz, 0}, {cz, -sz, 0}, {0, 0, 0}}

	R := mul3(mul3(Rz, Ry), Rx)
	dRdrx := scale3(mul3(mul3(Rz, Ry), dRx), t)
	dRdry := scale3(mul3(mul3(Rz, dRy), Rx), t)
	dRdrz := scale3(mul3(mul3(dRz, Ry), Rx), t)

	RX := apply3(R, term.X)
	Tt := [3]float64{t * pose.TX, t * pose.TY, t * pose.TZ}

	e = [3]float64{
		RX[0] + Tt[0] - term.P[0],
		RX[1] + Tt[1] - term.P[1],
		RX[2] + Tt[2] - term.P[2],
	}

	dRXdrx := apply3(dRdrx, term.X)
	dRXdry := apply3(dRdry, term.X)
	dRXdrz := apply3(dRdrz, term.X)

	for i := 0; i < 3; i++ {
		J[i][0] = dRXdrx[i]
		J[i][1] = dRXdry[i]
		J[i][2] = dRXdrz[i]
	}
	J[0][3], J[1][3], J[2][3] = t, 0, 0
	J[0][4], J[1][4], J[2][4] = 0, t, 0
	J[0][5], J[1][5], J[2][5] = 0, 0, t

	return e, J
}

func mul3(a, b types.Mat3) types.Mat3 {
	var out types.Mat3
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

func scale3(a types.Mat3, s float64) types.Mat3 {
	var out types.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][j] * s
		}
	}
	return out
}

func apply3(R types.Mat3, v [3]float64) [3]float64 {
	return [3]float64{
		R[0][0]*v[0] + R[0][1]*v[1] + R[0][2]*v[2],
		R[1][0]*v[0] + R[1][1]*v[1] + R[1][2]*v[2],
		R[2][0]*v[0] + R[2][1]*v[1] + R[2][2]*v[2],
	}
}
