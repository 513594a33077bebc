package globe

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestGeoToCartesian_Axes(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		altitude float64
		want     mgl64.Vec3
	}{
		{"null island faces +Z", 0, 0, 0, mgl64.Vec3{0, 0, 100}},
		{"north pole is +Y", 90, 0, 0, mgl64.Vec3{0, 100, 0}},
		{"south pole is -Y", -90, 0, 0, mgl64.Vec3{0, -100, 0}},
		{"90E is +X", 0, 90, 0, mgl64.Vec3{100, 0, 0}},
		{"antimeridian is -Z", 0, 180, 0, mgl64.Vec3{0, 0, -100}},
		{"altitude scales radius", 0, 0, 0.5, mgl64.Vec3{0, 0, 150}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GeoToCartesian(tc.lat, tc.lng, tc.altitude, 100)
			if got.Sub(tc.want).Len() > 1e-9 {
				t.Fatalf("GeoToCartesian(%v, %v, %v) = %v, want %v", tc.lat, tc.lng, tc.altitude, got, tc.want)
			}
		})
	}
}

func TestCartesianToGeo_RoundTrip(t *testing.T) {
	const radius = 100
	for lat := -90.0; lat <= 90; lat += 7.5 {
		for lng := -180.0; lng <= 180; lng += 15 {
			got, ok := CartesianToGeo(GeoToCartesian(lat, lng, 0, radius), radius)
			if !ok {
				t.Fatalf("(%v, %v) not mapped back onto the surface", lat, lng)
			}
			if math.Abs(got.Lat-lat) > 1e-3 {
				t.Fatalf("lat round trip %v -> %v", lat, got.Lat)
			}
			if math.Abs(lat) == 90 {
				continue
			}
			// 180 and -180 are the same meridian.
			dLng := math.Mod(math.Abs(got.Lng-lng), 360)
			if dLng > 1e-3 && math.Abs(dLng-360) > 1e-3 {
				t.Fatalf("lng round trip (%v, %v) -> %v", lat, lng, got.Lng)
			}
		}
	}
}

func TestCartesianToGeo_OffSurface(t *testing.T) {
	if _, ok := CartesianToGeo(mgl64.Vec3{0, 0, 150}, 100); ok {
		t.Fatal("point above the surface must not map")
	}
	if _, ok := CartesianToGeo(mgl64.Vec3{}, 100); ok {
		t.Fatal("origin must not map")
	}
	if _, ok := CartesianToGeo(mgl64.Vec3{0, 0, 100.05}, 100); !ok {
		t.Fatal("point within tolerance must map")
	}
	if _, ok := CartesianToGeo(mgl64.Vec3{0, 0, 100}, 0); ok {
		t.Fatal("zero radius must not map")
	}
}

func TestNormalizeLng(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		180:  180,
		-180: -180,
		190:  -170,
		270:  -90,
		-190: 170,
		540:  180,
	}
	for in, want := range cases {
		if got := NormalizeLng(in); math.Abs(got-want) > 1e-9 && !(math.Abs(want) == 180 && math.Abs(got) == 180) {
			t.Errorf("NormalizeLng(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestCentralAngle(t *testing.T) {
	a := GeoCoordinate{Lat: 0, Lng: 0}
	if got := CentralAngle(a, GeoCoordinate{Lat: 0, Lng: 180}); math.Abs(got-math.Pi) > 1e-9 {
		t.Fatalf("antipode angle = %v, want π", got)
	}
	if got := CentralAngle(a, GeoCoordinate{Lat: 90, Lng: 0}); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Fatalf("pole angle = %v, want π/2", got)
	}
}
