package globe

import (
	"math"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

// Encoding holds the constants of the data-driven visual encoding.
type Encoding struct {
	// Region color: lerp(NeutralColor, HighlightColor, clamp(weight/NormalizationCap, 0, 1)).
	NeutralColor     common.Color
	HighlightColor   common.Color
	HomeColor        common.Color
	NormalizationCap float64
	// HomeISO is the region that always receives HomeColor and HomeAltitude.
	HomeISO string

	// Region altitude: clamp(BaseAltitude + weight*AltitudeScale, MinAltitude, MaxAltitude).
	BaseAltitude  float64
	AltitudeScale float64
	MinAltitude   float64
	MaxAltitude   float64
	HomeAltitude  float64

	ArcActiveColor   common.Color
	ArcInactiveColor common.Color
	ArcStroke        float64
	// ArcAltitude is used for arcs without a hint; 0 scales with great-circle distance.
	ArcAltitude float64
	// DashPeriod is the time for one dash cycle, in seconds.
	DashPeriod float64
	// DashStagger shifts each arc's dash phase by OrderIndex * DashStagger cycles.
	DashStagger float64

	MarkerColor common.Color
	MarkerSize  float64
}

// DefaultEncoding returns the stock palette and scales.
func DefaultEncoding() Encoding {
	return Encoding{
		NeutralColor:     common.RGB(0x2b, 0x3a, 0x4a),
		HighlightColor:   common.RGB(0x00, 0xc8, 0x96),
		HomeColor:        common.RGB(0xff, 0x5a, 0x5f),
		NormalizationCap: 100,
		HomeISO:          "SG",

		BaseAltitude:  0.01,
		AltitudeScale: 0.0005,
		MinAltitude:   0.005,
		MaxAltitude:   0.06,
		HomeAltitude:  0.08,

		ArcActiveColor:   common.RGB(0x00, 0xe5, 0xff),
		ArcInactiveColor: common.RGB(0xff, 0xaa, 0x00),
		ArcStroke:        0.5,
		DashPeriod:       2,
		DashStagger:      0.15,

		MarkerColor: common.RGB(0xff, 0xff, 0xff),
		MarkerSize:  1,
	}
}

// sanitizeWeight maps NaN, infinite and negative weights to 0.
func sanitizeWeight(w float64) float64 {
	if !common.IsFinite(w) || w < 0 {
		return 0
	}
	return w
}

// RegionColor is monotonic non-decreasing in weight and saturates at NormalizationCap.
//
// Parameters:
//   - weight: the region weight
//   - home: whether the region is the home region
//
// Returns:
//   - common.Color: the region color
func (e Encoding) RegionColor(weight float64, home bool) common.Color {
	if home {
		return e.HomeColor
	}
	if e.NormalizationCap <= 0 {
		return e.NeutralColor
	}
	return e.NeutralColor.Lerp(e.HighlightColor, common.Clamp(sanitizeWeight(weight)/e.NormalizationCap, 0, 1))
}

// RegionAltitude returns the extrusion height of a region.
func (e Encoding) RegionAltitude(weight float64, home bool) float64 {
	if home {
		return e.HomeAltitude
	}
	return common.Clamp(e.BaseAltitude+sanitizeWeight(weight)*e.AltitudeScale, e.MinAltitude, e.MaxAltitude)
}

// ArcStyle is the resolved look of one arc.
type ArcStyle struct {
	Color    common.Color `json:"color"`
	Stroke   float64      `json:"stroke"`
	Altitude float64      `json:"altitude"`
}

// ArcStyle resolves color, stroke and altitude, falling back to defaults for unset fields.
func (e Encoding) ArcStyle(a ArcSegment) ArcStyle {
	color := e.ArcInactiveColor
	if a.Status {
		color = e.ArcActiveColor
	}
	return ArcStyle{
		Color:    color,
		Stroke:   common.FirstPositive(a.Stroke, e.ArcStroke),
		Altitude: common.FirstPositive(a.AltitudeHint, e.ArcAltitude, autoArcAltitude(a)),
	}
}

// autoArcAltitude grows from 0.05 for neighbors to 0.5 for antipodes.
func autoArcAltitude(a ArcSegment) float64 {
	return 0.05 + 0.45*CentralAngle(a.Start, a.End)/math.Pi
}

// DashOffset returns the dash phase in [0, 1) at the given elapsed time.
// It depends only on time, not on frame count.
//
// Parameters:
//   - elapsed: seconds since the loop started
//   - order: the arc OrderIndex, staggering arcs by DashStagger
//
// Returns:
//   - float64: the dash offset
func (e Encoding) DashOffset(elapsed float64, order int) float64 {
	if e.DashPeriod <= 0 || !common.IsFinite(elapsed) {
		return 0
	}
	phase := elapsed/e.DashPeriod - float64(order)*e.DashStagger
	phase -= math.Floor(phase)
	if phase >= 1 {
		phase = 0
	}
	return phase
}

// regionEncoding is the precomputed look of one region.
type regionEncoding struct {
	color    common.Color
	altitude float64
}

func (e Encoding) encodeRegion(f RegionFeature) regionEncoding {
	home := e.HomeISO != "" && f.ISOCode == e.HomeISO
	return regionEncoding{
		color:    e.RegionColor(f.Weight, home),
		altitude: e.RegionAltitude(f.Weight, home),
	}
}
