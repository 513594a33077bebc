package globe

import (
	"math"
	"testing"
)

func TestRegionColor_MonotonicAndSaturating(t *testing.T) {
	e := DefaultEncoding()

	if got := e.RegionColor(0, false); got != e.NeutralColor {
		t.Fatalf("weight 0 = %v, want neutral %v", got, e.NeutralColor)
	}
	if got := e.RegionColor(e.NormalizationCap, false); got != e.HighlightColor {
		t.Fatalf("weight at cap = %v, want highlight %v", got, e.HighlightColor)
	}
	if got := e.RegionColor(e.NormalizationCap*10, false); got != e.HighlightColor {
		t.Fatalf("weight beyond cap = %v, want highlight", got)
	}
	for _, w := range []float64{-5, math.NaN(), math.Inf(-1)} {
		if got := e.RegionColor(w, false); got != e.NeutralColor {
			t.Errorf("weight %v = %v, want neutral", w, got)
		}
	}

	// Green rises from neutral to highlight in the default palette.
	prev := -1.0
	for w := 0.0; w <= 2*e.NormalizationCap; w += 5 {
		g := e.RegionColor(w, false).G
		if g < prev {
			t.Fatalf("color not monotonic at weight %v: %v < %v", w, g, prev)
		}
		prev = g
	}
}

func TestRegionColor_Home(t *testing.T) {
	e := DefaultEncoding()
	for _, w := range []float64{0, 50, 1000} {
		if got := e.RegionColor(w, true); got != e.HomeColor {
			t.Fatalf("home color at weight %v = %v", w, got)
		}
		if got := e.RegionAltitude(w, true); got != e.HomeAltitude {
			t.Fatalf("home altitude at weight %v = %v", w, got)
		}
	}
}

func TestRegionAltitude_Clamped(t *testing.T) {
	e := DefaultEncoding()
	e.BaseAltitude = 0.01
	e.AltitudeScale = 0.001
	e.MinAltitude = 0.02
	e.MaxAltitude = 0.05

	cases := []struct {
		weight float64
		want   float64
	}{
		{0, 0.02},
		{20, 0.03},
		{1000, 0.05},
		{math.NaN(), 0.02},
	}
	for _, tc := range cases {
		if got := e.RegionAltitude(tc.weight, false); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("RegionAltitude(%v) = %v, want %v", tc.weight, got, tc.want)
		}
	}
}

func TestArcStyle_Fallbacks(t *testing.T) {
	e := DefaultEncoding()

	styled := e.ArcStyle(ArcSegment{Status: true, Stroke: 2, AltitudeHint: 0.3})
	if styled.Color != e.ArcActiveColor || styled.Stroke != 2 || styled.Altitude != 0.3 {
		t.Fatalf("explicit style = %+v", styled)
	}

	near := e.ArcStyle(ArcSegment{Start: GeoCoordinate{0, 0}, End: GeoCoordinate{0, 1}})
	far := e.ArcStyle(ArcSegment{Start: GeoCoordinate{0, 0}, End: GeoCoordinate{0, 180}})
	if near.Color != e.ArcInactiveColor || near.Stroke != e.ArcStroke {
		t.Fatalf("fallback style = %+v", near)
	}
	if !(near.Altitude < far.Altitude) || math.Abs(far.Altitude-0.5) > 1e-9 {
		t.Fatalf("auto altitude near=%v far=%v", near.Altitude, far.Altitude)
	}

	e.ArcAltitude = 0.2
	if got := e.ArcStyle(ArcSegment{}).Altitude; got != 0.2 {
		t.Fatalf("configured default altitude = %v, want 0.2", got)
	}
}

func TestDashOffset_LoopsWithTime(t *testing.T) {
	e := DefaultEncoding()
	e.DashPeriod = 2
	e.DashStagger = 0.25

	cases := []struct {
		elapsed float64
		order   int
		want    float64
	}{
		{0, 0, 0},
		{1, 0, 0.5},
		{2, 0, 0},
		{5, 0, 0.5},
		{0, 1, 0.75},
		{0.5, 1, 0},
	}
	for _, tc := range cases {
		if got := e.DashOffset(tc.elapsed, tc.order); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("DashOffset(%v, %d) = %v, want %v", tc.elapsed, tc.order, got, tc.want)
		}
	}

	e.DashPeriod = 0
	if got := e.DashOffset(3, 0); got != 0 {
		t.Fatalf("zero period offset = %v", got)
	}
}
