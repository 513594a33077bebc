package globe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// surfaceTolerance is the relative distance from the sphere at which a point is still on the surface.
const surfaceTolerance = 1e-3

// GeoCoordinate is a point on the globe in degrees.
type GeoCoordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite with lat in [-90, 90] and lng in [-180, 180].
func (c GeoCoordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// GeoToCartesian projects a geographic coordinate onto a Y-up sphere.
// Longitude 0 on the equator faces +Z and the north pole is +Y.
// The point lies at radius * (1 + altitude) from the origin.
//
// Parameters:
//   - lat: latitude in degrees
//   - lng: longitude in degrees
//   - altitude: height above the surface as a fraction of the radius
//   - radius: sphere radius in world units
//
// Returns:
//   - mgl64.Vec3: the world-space point
func GeoToCartesian(lat, lng, altitude, radius float64) mgl64.Vec3 {
	phi := mgl64.DegToRad(90 - lat)
	theta := mgl64.DegToRad(90 - lng)
	r := radius * (1 + altitude)
	sinPhi := math.Sin(phi)
	return mgl64.Vec3{
		r * sinPhi * math.Cos(theta),
		r * math.Cos(phi),
		r * sinPhi * math.Sin(theta),
	}
}

// CartesianToGeo maps a point on the sphere surface back to a coordinate.
// At the poles the longitude is reported as 0.
//
// Parameters:
//   - p: the world-space point
//   - radius: sphere radius in world units
//
// Returns:
//   - GeoCoordinate: the coordinate under p
//   - bool: false if p is not within tolerance of the surface
func CartesianToGeo(p mgl64.Vec3, radius float64) (GeoCoordinate, bool) {
	if radius <= 0 {
		return GeoCoordinate{}, false
	}
	r := p.Len()
	if math.IsNaN(r) || math.Abs(r-radius) > surfaceTolerance*radius {
		return GeoCoordinate{}, false
	}

	lat := 90 - mgl64.RadToDeg(math.Acos(mgl64.Clamp(p.Y()/r, -1, 1)))
	var lng float64
	if math.Hypot(p.X(), p.Z()) > 1e-12*r {
		lng = NormalizeLng(90 - mgl64.RadToDeg(math.Atan2(p.Z(), p.X())))
	}
	return GeoCoordinate{Lat: lat, Lng: lng}, true
}

// NormalizeLng wraps a longitude into [-180, 180].
func NormalizeLng(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

// CentralAngle returns the great-circle angle between two coordinates in radians.
func CentralAngle(a, b GeoCoordinate) float64 {
	lat1, lat2 := mgl64.DegToRad(a.Lat), mgl64.DegToRad(b.Lat)
	dLat := lat2 - lat1
	dLng := mgl64.DegToRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * math.Asin(math.Sqrt(mgl64.Clamp(h, 0, 1)))
}
