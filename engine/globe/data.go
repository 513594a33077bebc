package globe

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

// Diagnostic kinds, also used as the metric label for rejected data.
const (
	DiagnosticArc    = "arc"
	DiagnosticMarker = "marker"
	DiagnosticRegion = "region"
)

// Diagnostic records one input item dropped at load time.
type Diagnostic struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	if d.ID != "" {
		return fmt.Sprintf("%s %d (%s): %s", d.Kind, d.Index, d.ID, d.Reason)
	}
	return fmt.Sprintf("%s %d: %s", d.Kind, d.Index, d.Reason)
}

// ArcSegment is a connection drawn between two coordinates.
type ArcSegment struct {
	ID    string        `json:"id,omitempty"`
	Start GeoCoordinate `json:"start"`
	End   GeoCoordinate `json:"end"`

	// AltitudeHint is the peak height as a fraction of the radius; 0 scales with distance.
	AltitudeHint float64 `json:"altitudeHint,omitempty"`
	// Stroke is the line width; 0 uses the default.
	Stroke float64 `json:"stroke,omitempty"`
	// Status selects the active or inactive arc color.
	Status     bool `json:"status"`
	OrderIndex int  `json:"orderIndex"`
}

// Marker is a point of interest placed above the surface.
type Marker struct {
	ID         string        `json:"id"`
	Label      string        `json:"label,omitempty"`
	Coordinate GeoCoordinate `json:"coordinate"`
	// Altitude above the surface as a fraction of the radius.
	Altitude float64 `json:"altitude,omitempty"`
	// Size is the marker radius in world units; 0 uses the default.
	Size float64 `json:"size,omitempty"`
	// Color overrides the default marker color when A > 0.
	Color common.Color `json:"color"`
}

func validateArc(a ArcSegment) string {
	switch {
	case !common.IsFinite(a.Start.Lat, a.Start.Lng, a.End.Lat, a.End.Lng):
		return "non-finite coordinate"
	case !a.Start.Valid():
		return fmt.Sprintf("start %+v out of range", a.Start)
	case !a.End.Valid():
		return fmt.Sprintf("end %+v out of range", a.End)
	case !common.IsFinite(a.AltitudeHint, a.Stroke) || a.AltitudeHint < 0 || a.Stroke < 0:
		return "invalid altitude or stroke"
	}
	return ""
}

func validateMarker(m Marker) string {
	switch {
	case !common.IsFinite(m.Coordinate.Lat, m.Coordinate.Lng):
		return "non-finite coordinate"
	case !m.Coordinate.Valid():
		return fmt.Sprintf("coordinate %+v out of range", m.Coordinate)
	case !common.IsFinite(m.Altitude, m.Size) || m.Altitude < 0 || m.Size < 0:
		return "invalid altitude or size"
	}
	return ""
}
