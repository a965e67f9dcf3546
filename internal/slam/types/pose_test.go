package types

import "testing"

func TestIdentityApply(t *testing.T) {
	p := Identity()
	v := [3]float64{1, 2, 3}
	out := p.Apply(v)
	if out != v {
		t.Errorf("Identity().Apply(%v) = %v, want %v", v, out, v)
	}
}

func TestRotationAboutZ(t *testing.T) {
	p := Pose{RZ: 1.5707963267948966} // pi/2
	out := p.Apply([3]float64{1, 0, 0})
	if !almostEqual(out[0], 0, 1e-9) || !almostEqual(out[1], 1, 1e-9) {
		t.Errorf("rotate (1,0,0) by 90deg about Z = %v, want (0,1,0)", out)
	}
}

func TestTranslation(t *testing.T) {
	p := Pose{TX: 1, TY: 2, TZ: 3}
	out := p.Apply([3]float64{0, 0, 0})
	want := [3]float64{1, 2, 3}
	if out != want {
		t.Errorf("Apply origin = %v, want %v", out, want)
	}
}

func TestInverseComposeIsIdentity(t *testing.T) {
	p := Pose{RX: 0.1, RY: -0.2, RZ: 0.3, TX: 1, TY: -2, TZ: 0.5}
	inv := p.Inverse()
	result := inv.Compose(p)

	if !almostEqual(result.TranslationNorm(), 0, 1e-6) {
		t.Errorf("p.Inverse().Compose(p) translation = %v, want ~0", result)
	}
	v := result.Apply([3]float64{4, -1, 2})
	want := [3]float64{4, -1, 2}
	if !almostEqualVec(v, want, 1e-6) {
		t.Errorf("p.Inverse().Compose(p).Apply(v) = %v, want %v", v, want)
	}
}

func TestComposeMatchesSequentialApply(t *testing.T) {
	trelative := Pose{RZ: 0.2, TX: 0.3}
	tworldPrev := Pose{RZ: 0.1, TX: 1.0, TY: 0.5}

	composed := tworldPrev.Compose(trelative)

	v := [3]float64{2, 1, 0}
	sequential := tworldPrev.Apply(trelative.Apply(v))
	direct := composed.Apply(v)

	if !almostEqualVec(sequential, direct, 1e-9) {
		t.Errorf("Compose mismatch: sequential=%v direct=%v", sequential, direct)
	}
}

func TestTranslationNorm(t *testing.T) {
	p := Pose{TX: 3, TY: 4, TZ: 0}
	if got := p.TranslationNorm(); !almostEqual(got, 5, 1e-9) {
		t.Errorf("TranslationNorm() = %f, want 5", got)
	}
}

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func almostEqualVec(a, b [3]float64, eps float64) bool {
	for i := range a {
		if !almostEqual(a[i], b[i], eps) {
			return false
		}
	}
	return true
}
