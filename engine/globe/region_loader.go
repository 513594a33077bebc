package globe

import (
	"fmt"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// DefaultISOProperties are the feature properties searched, in order, for a region code.
var DefaultISOProperties = []string{"iso_a2", "ISO_A2", "iso", "ISO", "iso_code"}

// DefaultNameProperties are the feature properties searched, in order, for a display name.
var DefaultNameProperties = []string{"name", "NAME", "ADMIN", "admin"}

type loadConfig struct {
	isoKeys    []string
	nameKeys   []string
	weightKey  string
	centerKeys [2]string
}

// LoadOption configures LoadRegionFeatures.
type LoadOption func(*loadConfig)

// WithISOProperty overrides the property holding the region code.
func WithISOProperty(key string) LoadOption {
	return func(c *loadConfig) {
		c.isoKeys = []string{key}
	}
}

// WithNameProperty overrides the property holding the display name.
func WithNameProperty(key string) LoadOption {
	return func(c *loadConfig) {
		c.nameKeys = []string{key}
	}
}

// WithWeightProperty sets the numeric property used as the initial weight.
// The default is "weight".
func WithWeightProperty(key string) LoadOption {
	return func(c *loadConfig) {
		c.weightKey = key
	}
}

// LoadRegionFeatures parses a GeoJSON FeatureCollection into region features.
// Each feature needs a region code and Polygon or MultiPolygon geometry; the
// bounding box is derived from the outer rings. Optional "center_lat" and
// "center_lng" properties override the focus center.
// Unusable features are skipped with a Diagnostic.
//
// Parameters:
//   - data: the GeoJSON document
//   - options: property name overrides
//
// Returns:
//   - []RegionFeature: the usable features in document order
//   - []Diagnostic: one entry per skipped feature
//   - error: error if data is not a FeatureCollection
func LoadRegionFeatures(data []byte, options ...LoadOption) ([]RegionFeature, []Diagnostic, error) {
	cfg := loadConfig{
		isoKeys:    DefaultISOProperties,
		nameKeys:   DefaultNameProperties,
		weightKey:  "weight",
		centerKeys: [2]string{"center_lat", "center_lng"},
	}
	for _, opt := range options {
		opt(&cfg)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("load region features: %w", err)
	}

	var (
		features []RegionFeature
		diags    []Diagnostic
	)
	for i, f := range fc.Features {
		iso := strings.ToUpper(stringProperty(f.Properties, cfg.isoKeys...))
		reject := func(reason string) {
			diags = append(diags, Diagnostic{Kind: DiagnosticRegion, Index: i, ID: iso, Reason: reason})
		}
		if iso == "" || iso == "-99" {
			reject("missing iso code")
			continue
		}
		if f.Geometry == nil {
			reject("missing geometry")
			continue
		}
		bbox, ok := boundsOf(f.Geometry)
		if !ok {
			reject(fmt.Sprintf("unsupported or empty geometry %s", f.Geometry.Type))
			continue
		}

		feature := RegionFeature{
			ISOCode:  iso,
			Name:     stringProperty(f.Properties, cfg.nameKeys...),
			Boundary: f.Geometry,
			BBox:     bbox,
		}
		if w, ok := floatProperty(f.Properties, cfg.weightKey); ok {
			feature.Weight = w
		}
		lat, latOK := floatProperty(f.Properties, cfg.centerKeys[0])
		lng, lngOK := floatProperty(f.Properties, cfg.centerKeys[1])
		if latOK && lngOK {
			center := GeoCoordinate{Lat: lat, Lng: lng}
			if center.Valid() {
				feature.Center = &center
			}
		}
		features = append(features, feature)
	}
	return features, diags, nil
}

func stringProperty(props map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func floatProperty(props map[string]interface{}, key string) (float64, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
