package interp

import (
	"math"
	"testing"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

func TestQuaternionRoundTrip(t *testing.T) {
	cases := [][3]float64{
		{0, 0, 0},
		{0.1, 0.2, 0.3},
		{-0.4, 0.15, -0.6},
	}
	for _, c := range cases {
		w, x, y, z := ToQuaternion(c[0], c[1], c[2])
		rx, ry, rz := FromQuaternion(w, x, y, z)
		if !almostEqual(rx, c[0], 1e-9) || !almostEqual(ry, c[1], 1e-9) || !almostEqual(rz, c[2], 1e-9) {
			t.Errorf("round trip for %v = (%f,%f,%f)", c, rx, ry, rz)
		}
	}
}

func TestInterpolatorEndpoints(t *testing.T) {
	start := types.Identity()
	end := types.Pose{RZ: 0.5, TX: 2, TY: -1, TZ: 0.3}

	in := NewBetween(start, end)

	atStart := in.At(0)
	if !almostEqual(atStart.TX, start.TX, 1e-9) || !almostEqual(atStart.RZ, start.RZ, 1e-9) {
		t.Errorf("At(0) = %+v, want start %+v", atStart, start)
	}

	atEnd := in.At(1)
	if !almostEqual(atEnd.TX, end.TX, 1e-9) || !almostEqual(atEnd.RZ, end.RZ, 1e-9) {
		t.Errorf("At(1) = %+v, want end %+v", atEnd, end)
	}
}

func TestInterpolatorMidpointTranslationIsAverage(t *testing.T) {
	start := types.Pose{TX: 0}
	end := types.Pose{TX: 10}
	in := NewBetween(start, end)

	mid := in.At(0.5)
	if !almostEqual(mid.TX, 5, 1e-9) {
		t.Errorf("At(0.5).TX = %f, want 5", mid.TX)
	}
}

func TestInterpolatorRotationMonotonic(t *testing.T) {
	in := NewIdentityToPose(types.Pose{RZ: math.Pi / 2})
	prev := 0.0
	for _, tt := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		p := in.At(tt)
		if p.RZ < prev-1e-9 {
			t.Errorf("rotation interpolation not monotonic at t=%f: rz=%f < prev=%f", tt, p.RZ, prev)
		}
		prev = p.RZ
	}
}

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
