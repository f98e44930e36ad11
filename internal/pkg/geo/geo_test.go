package geo

import (
	"math"
	"testing"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	points := []Point{
		{Lat: 0, Long: 0},
		{Lat: 41.0082, Long: 28.9784},
		{Lat: -33.8688, Long: 151.2093},
	}

	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(%v, %v) = %f, want 0", p, p, d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{Lat: 41.0082, Long: 28.9784}
	b := Point{Lat: 39.9334, Long: 32.8597}

	ab := Distance(a, b)
	ba := Distance(b, a)
	if ab != ba {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}
	if ab <= 0 {
		t.Errorf("expected positive distance, got %f", ab)
	}
}

func TestDistanceSmallLatitudeDelta(t *testing.T) {
	// One millidegree of latitude is about 111.32m anywhere on the sphere.
	a := Point{Lat: 0, Long: 0}
	b := Point{Lat: 0.001, Long: 0}

	got := Distance(a, b)
	want := 111.32

	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("Distance for 0.001 deg latitude = %fm, want within 1%% of %fm", got, want)
	}
}

func TestDistanceKnownPair(t *testing.T) {
	// Istanbul to Ankara, roughly 350km apart.
	a := Point{Lat: 41.0082, Long: 28.9784}
	b := Point{Lat: 39.9334, Long: 32.8597}

	got := Distance(a, b)
	if got < 340000 || got > 360000 {
		t.Errorf("Distance(Istanbul, Ankara) = %fm, want roughly 350km", got)
	}
}

func TestWithinRadiusInclusiveBoundary(t *testing.T) {
	a := Point{Lat: 0, Long: 0}
	b := Point{Lat: 0.001, Long: 0}
	d := Distance(a, b)

	if !WithinRadius(a, b, d) {
		t.Errorf("point exactly at radius %fm should pass", d)
	}
	if WithinRadius(a, b, d-0.01) {
		t.Errorf("point beyond radius should fail")
	}
	if !WithinRadius(a, b, d+0.01) {
		t.Errorf("point inside radius should pass")
	}
}

func TestPointValid(t *testing.T) {
	cases := []struct {
		name  string
		point Point
		want  bool
	}{
		{"origin", Point{0, 0}, true},
		{"north pole", Point{90, 0}, true},
		{"south pole", Point{-90, 0}, true},
		{"date line", Point{0, 180}, true},
		{"lat too high", Point{90.1, 0}, false},
		{"lat too low", Point{-90.1, 0}, false},
		{"long too high", Point{0, 180.1}, false},
		{"long too low", Point{0, -180.1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.point.Valid(); got != tc.want {
				t.Errorf("Valid(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}
