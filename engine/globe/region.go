package globe

import (
	"fmt"
	"math"
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

// BBox is an axis-aligned latitude/longitude box. A box with MinLng > MaxLng
// wraps across the antimeridian.
type BBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Valid reports whether the box has finite, in-range bounds and MinLat <= MaxLat.
func (b BBox) Valid() bool {
	return GeoCoordinate{Lat: b.MinLat, Lng: b.MinLng}.Valid() &&
		GeoCoordinate{Lat: b.MaxLat, Lng: b.MaxLng}.Valid() &&
		b.MinLat <= b.MaxLat
}

// Wraps reports whether the box crosses the antimeridian.
func (b BBox) Wraps() bool {
	return b.MinLng > b.MaxLng
}

// Contains reports whether c lies inside the box, edges included.
func (b BBox) Contains(c GeoCoordinate) bool {
	if c.Lat < b.MinLat || c.Lat > b.MaxLat {
		return false
	}
	if b.Wraps() {
		return c.Lng >= b.MinLng || c.Lng <= b.MaxLng
	}
	return c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// Center returns the middle of the box, taking antimeridian wrap into account.
func (b BBox) Center() GeoCoordinate {
	maxLng := b.MaxLng
	if b.Wraps() {
		maxLng += 360
	}
	return GeoCoordinate{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lng: NormalizeLng((b.MinLng + maxLng) / 2),
	}
}

// RegionFeature is a selectable region of the globe. Features are immutable once
// loaded; only Weight changes, through Globe.UpdateWeights.
type RegionFeature struct {
	ISOCode string `json:"isoCode"`
	Name    string `json:"name,omitempty"`

	// Boundary is the optional Polygon or MultiPolygon outline. When present it
	// decides containment and BBox is only a pre-filter.
	Boundary *geojson.Geometry `json:"-"`
	BBox     BBox              `json:"bbox"`

	// Center overrides the box center used for camera focus.
	Center *GeoCoordinate `json:"center,omitempty"`
	Weight float64        `json:"weight"`
}

// FocusCenter returns the explicit center, or the center of the bounding box.
func (f RegionFeature) FocusCenter() GeoCoordinate {
	if f.Center != nil {
		return *f.Center
	}
	return f.BBox.Center()
}

// Contains reports whether c falls in the region.
func (f RegionFeature) Contains(c GeoCoordinate) bool {
	if !f.BBox.Contains(c) {
		return false
	}
	if f.Boundary == nil {
		return true
	}
	return geometryContains(f.Boundary, c)
}

// validate returns a reason the feature cannot be indexed, or "".
func (f RegionFeature) validate() string {
	switch {
	case f.ISOCode == "":
		return "missing iso code"
	case !f.BBox.Valid():
		return fmt.Sprintf("invalid bounding box %+v", f.BBox)
	case f.Center != nil && !f.Center.Valid():
		return fmt.Sprintf("invalid center %+v", *f.Center)
	case f.Boundary != nil && !f.Boundary.IsPolygon() && !f.Boundary.IsMultiPolygon():
		return fmt.Sprintf("unsupported boundary type %s", f.Boundary.Type)
	}
	return ""
}

// regionIndex is the ordered lookup table. The first feature whose shape
// contains the coordinate wins.
type regionIndex struct {
	features []RegionFeature
	byISO    map[string]int
}

func newRegionIndex(features []RegionFeature) *regionIndex {
	idx := &regionIndex{
		features: features,
		byISO:    make(map[string]int, len(features)),
	}
	for i, f := range features {
		idx.byISO[f.ISOCode] = i
	}
	return idx
}

func (idx *regionIndex) lookup(c GeoCoordinate) (int, bool) {
	for i := range idx.features {
		if idx.features[i].Contains(c) {
			return i, true
		}
	}
	return -1, false
}

func (idx *regionIndex) find(iso string) (int, bool) {
	i, ok := idx.byISO[iso]
	return i, ok
}

// geometryContains is even-odd containment over every ring of a Polygon or
// MultiPolygon, so holes are excluded.
func geometryContains(g *geojson.Geometry, c GeoCoordinate) bool {
	switch {
	case g.IsPolygon():
		return polygonContains(g.Polygon, c)
	case g.IsMultiPolygon():
		for _, poly := range g.MultiPolygon {
			if polygonContains(poly, c) {
				return true
			}
		}
	}
	return false
}

func polygonContains(rings [][][]float64, c GeoCoordinate) bool {
	inside := false
	for _, ring := range rings {
		if ringContains(ring, c) {
			inside = !inside
		}
	}
	return inside
}

// ringContains casts a ray along +lng. Rings that jump across the antimeridian
// are unwrapped first, and the point is tested at lng and lng±360.
func ringContains(ring [][]float64, c GeoCoordinate) bool {
	if len(ring) < 3 {
		return false
	}
	pts := unwrapRing(ring)
	for _, lng := range [...]float64{c.Lng, c.Lng + 360, c.Lng - 360} {
		if rayCast(pts, lng, c.Lat) {
			return true
		}
	}
	return false
}

func unwrapRing(ring [][]float64) [][2]float64 {
	pts := make([][2]float64, 0, len(ring))
	offset := 0.0
	for i, p := range ring {
		if len(p) < 2 {
			continue
		}
		lng := p[0] + offset
		if i > 0 && len(pts) > 0 {
			prev := pts[len(pts)-1][0]
			switch {
			case lng-prev > 180:
				offset -= 360
				lng -= 360
			case prev-lng > 180:
				offset += 360
				lng += 360
			}
		}
		pts = append(pts, [2]float64{lng, p[1]})
	}
	return pts
}

func rayCast(pts [][2]float64, x, y float64) bool {
	inside := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		xi, yi := pts[i][0], pts[i][1]
		xj, yj := pts[j][0], pts[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// boundsOf derives the bounding box of a Polygon or MultiPolygon from its outer
// rings. Longitudes take the smallest interval covering every ring, so parts
// split at ±180 give a box that wraps instead of one spanning the whole globe.
func boundsOf(g *geojson.Geometry) (BBox, bool) {
	var polys [][][][]float64
	switch {
	case g.IsPolygon():
		polys = [][][][]float64{g.Polygon}
	case g.IsMultiPolygon():
		polys = g.MultiPolygon
	default:
		return BBox{}, false
	}

	b := BBox{MinLat: math.Inf(1), MaxLat: math.Inf(-1)}
	var spans []lngSpan
	for _, poly := range polys {
		if len(poly) == 0 {
			continue
		}
		pts := unwrapRing(poly[0])
		if len(pts) == 0 {
			continue
		}
		span := lngSpan{lo: math.Inf(1), hi: math.Inf(-1)}
		for _, p := range pts {
			span.lo = math.Min(span.lo, p[0])
			span.hi = math.Max(span.hi, p[0])
			b.MinLat = math.Min(b.MinLat, p[1])
			b.MaxLat = math.Max(b.MaxLat, p[1])
		}
		spans = append(spans, span)
	}
	b.MinLng, b.MaxLng = coverLongitudes(spans)
	if !b.Valid() {
		return BBox{}, false
	}
	return b, true
}

// lngSpan is a closed longitude interval; hi may exceed 180 for rings that
// cross the antimeridian.
type lngSpan struct {
	lo, hi float64
}

// coverLongitudes returns the bounds of the smallest longitude interval
// containing every span. The result has min > max when it wraps.
func coverLongitudes(spans []lngSpan) (float64, float64) {
	if len(spans) == 0 {
		return math.NaN(), math.NaN()
	}
	for i, s := range spans {
		if s.hi-s.lo >= 360 {
			return -180, 180
		}
		shift := 360 * math.Floor((s.lo+180)/360)
		spans[i] = lngSpan{lo: s.lo - shift, hi: s.hi - shift}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })

	merged := []lngSpan{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.lo <= last.hi {
			last.hi = math.Max(last.hi, s.hi)
			continue
		}
		merged = append(merged, s)
	}

	// The gap after the last span runs east to the first span, one turn later.
	first, last := merged[0], merged[len(merged)-1]
	bestGap := first.lo + 360 - last.hi
	minLng, maxLng := first.lo, last.hi
	for i := 0; i+1 < len(merged); i++ {
		if gap := merged[i+1].lo - merged[i].hi; gap > bestGap {
			bestGap = gap
			minLng, maxLng = merged[i+1].lo, merged[i].hi
		}
	}
	if bestGap <= 0 {
		return -180, 180
	}
	if maxLng > 180 {
		maxLng -= 360
	}
	return minLng, maxLng
}
