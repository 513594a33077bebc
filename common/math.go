package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Clamp restricts v to the closed interval [lo, hi].
// NaN inputs are mapped to lo.
//
// Parameters:
//   - v: the value to clamp
//   - lo: lower bound
//   - hi: upper bound
//
// Returns:
//   - float64: the clamped value
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVec3 linearly interpolates each component between a and b.
//
// Parameters:
//   - a: the vector at t = 0
//   - b: the vector at t = 1
//   - t: interpolation factor
//
// Returns:
//   - mgl64.Vec3: the interpolated vector
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return mgl64.Vec3{
		Lerp(a[0], b[0], t),
		Lerp(a[1], b[1], t),
		Lerp(a[2], b[2], t),
	}
}

// EaseOutCubic maps linear progress p in [0, 1] to 1 - (1-p)^3.
// Inputs outside [0, 1] are clamped first.
func EaseOutCubic(p float64) float64 {
	p = Clamp(p, 0, 1)
	inv := 1 - p
	return 1 - inv*inv*inv
}

// IsFinite reports whether every value is neither NaN nor infinite.
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RaySphereIntersect intersects a ray with a sphere.
// The nearest non-negative hit distance along the ray is returned; a ray starting inside the
// sphere reports the exit point.
//
// Parameters:
//   - origin: ray origin in world space
//   - dir: ray direction (normalized)
//   - center: sphere center in world space
//   - radius: sphere radius
//
// Returns:
//   - float64: distance along the ray to the hit point
//   - bool: true if the ray hits the sphere
func RaySphereIntersect(origin, dir, center mgl64.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	a := dir.Dot(dir)
	if a == 0 {
		return 0, false
	}
	b := 2.0 * oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtD := math.Sqrt(discriminant)
	t0 := (-b - sqrtD) / (2.0 * a)
	t1 := (-b + sqrtD) / (2.0 * a)

	// Use the closer non-negative intersection
	t := t0
	if t < 0 {
		t = t1
		if t < 0 {
			return 0, false
		}
	}
	return t, true
}
