package globe

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

// RegionPayload is published on region:hovered and region:clicked.
type RegionPayload struct {
	Region  RegionFeature `json:"region"`
	Record  Record        `json:"record,omitempty"`
	ISOCode string        `json:"isoCode"`
}

// HoverEndPayload is published on region:hover-end.
type HoverEndPayload struct {
	PreviousRegion RegionFeature `json:"previousRegion"`
}

// NoDataPayload is published on region:no-data when a clicked region has no record.
type NoDataPayload struct {
	Region  RegionFeature `json:"region"`
	ISOCode string        `json:"isoCode"`
}

// FocusPayload is published on region:focused.
type FocusPayload struct {
	ISOCode      string        `json:"isoCode"`
	Coordinate   GeoCoordinate `json:"coordinate"`
	CameraTarget mgl64.Vec3    `json:"cameraTarget"`
}

// InteractionState is the hover/selection snapshot of the globe.
type InteractionState struct {
	Hovered     *RegionFeature `json:"hovered,omitempty"`
	Selected    *RegionFeature `json:"selected,omitempty"`
	Dragging    bool           `json:"dragging"`
	Interacting bool           `json:"interacting"`
}

// RegionRenderable is the encoded look of one region.
type RegionRenderable struct {
	ISOCode  string       `json:"isoCode"`
	Color    common.Color `json:"color"`
	Altitude float64      `json:"altitude"`
	Hovered  bool         `json:"hovered,omitempty"`
	Selected bool         `json:"selected,omitempty"`
}

// ArcRenderable is an arc with its resolved style and current dash phase.
type ArcRenderable struct {
	Arc        ArcSegment `json:"arc"`
	Style      ArcStyle   `json:"style"`
	DashOffset float64    `json:"dashOffset"`
}

// MarkerRenderable is a marker with its world position.
type MarkerRenderable struct {
	Marker   Marker       `json:"marker"`
	Position mgl64.Vec3   `json:"position"`
	Color    common.Color `json:"color"`
	Size     float64      `json:"size"`
}

// Renderables is everything the drawing layer needs for one frame.
type Renderables struct {
	Elapsed float64            `json:"elapsed"`
	Regions []RegionRenderable `json:"regions"`
	Arcs    []ArcRenderable    `json:"arcs"`
	Markers []MarkerRenderable `json:"markers"`
}
