package game_object

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestIntersect(t *testing.T) {
	globe := NewGameObject(WithID(1), WithSphere(mgl64.Vec3{}, 100))

	cases := []struct {
		name    string
		origin  mgl64.Vec3
		dir     mgl64.Vec3
		wantHit bool
		wantT   float64
	}{
		{"straight on", mgl64.Vec3{0, 0, 300}, mgl64.Vec3{0, 0, -1}, true, 200},
		{"miss", mgl64.Vec3{0, 200, 300}, mgl64.Vec3{0, 0, -1}, false, 0},
		{"pointing away", mgl64.Vec3{0, 0, 300}, mgl64.Vec3{0, 0, 1}, false, 0},
		{"from inside", mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, true, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := globe.Intersect(tc.origin, tc.dir)
			if ok != tc.wantHit {
				t.Fatalf("hit = %v, want %v", ok, tc.wantHit)
			}
			if ok && math.Abs(d-tc.wantT) > 1e-9 {
				t.Fatalf("distance = %v, want %v", d, tc.wantT)
			}
		})
	}
}

func TestDefaultsAndSetters(t *testing.T) {
	a := NewGameObject()
	b := NewGameObject()
	if a.ID() == b.ID() {
		t.Fatal("generated IDs must be unique")
	}
	if !a.Enabled() {
		t.Fatal("objects are enabled by default")
	}
	a.SetEnabled(false)
	a.SetRadius(0)
	if a.Enabled() {
		t.Fatal("SetEnabled(false) ignored")
	}
	if _, ok := a.Intersect(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1}); ok {
		t.Fatal("zero radius must never hit")
	}

	c := NewGameObject(WithName("marker"), WithUserData("SG"))
	if c.Name() != "marker" || c.UserData() != "SG" {
		t.Fatalf("name/user data = %q/%v", c.Name(), c.UserData())
	}
}
