// Package config loads application settings from an optional .env file and
// OXY_GLOBE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/globe"
	"github.com/Carmen-Shannon/oxy-globe/engine/surface"
)

// Prefix is prepended to every environment variable name.
const Prefix = "OXY_GLOBE_"

// ErrInvalidSetting is wrapped by every parse error returned from Load and FromLookup.
var ErrInvalidSetting = errors.New("invalid setting")

type WindowSettings struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
}

type SurfaceSettings struct {
	PresentMode          surface.PresentMode
	ForceFallbackAdapter bool
	ClearColor           common.Color
	RefreshRate          int
}

type GlobeSettings struct {
	Radius           float64
	FocusDistance    float64
	FocusDuration    time.Duration
	HomeISO          string
	NormalizationCap float64
	NeutralColor     common.Color
	HighlightColor   common.Color
	HomeColor        common.Color
	EncodeWorkers    int
}

type OrbitSettings struct {
	AutoRotate      bool
	AutoRotateSpeed float64
	IdleDelay       time.Duration
	MinDistance     float64
	MaxDistance     float64
	DampingFactor   float64
}

type ServerSettings struct {
	// Addr is the listen address for /metrics and the websocket bridge; empty disables the server.
	Addr        string
	MetricsPath string
	BridgePath  string
	// AllowedOrigins lists websocket origins accepted in addition to same-origin requests. "*" accepts all.
	AllowedOrigins []string
}

type LogSettings struct {
	Level  string
	Format string
}

type DataSettings struct {
	RegionsPath string
	ArcsPath    string
	MarkersPath string
	RecordsPath string
}

// Settings is the complete application configuration.
type Settings struct {
	Window  WindowSettings
	Surface SurfaceSettings
	Globe   GlobeSettings
	Orbit   OrbitSettings
	Server  ServerSettings
	Log     LogSettings
	Data    DataSettings
}

// Default returns the settings used when no variable overrides them.
func Default() Settings {
	enc := globe.DefaultEncoding()
	return Settings{
		Window: WindowSettings{
			Title:  "oxy-globe",
			Width:  1280,
			Height: 720,
		},
		Surface: SurfaceSettings{
			PresentMode: surface.PresentModeVSync,
			ClearColor:  common.RGB(0x05, 0x08, 0x10),
			RefreshRate: 60,
		},
		Globe: GlobeSettings{
			Radius:           100,
			FocusDistance:    2.5,
			FocusDuration:    1500 * time.Millisecond,
			HomeISO:          enc.HomeISO,
			NormalizationCap: enc.NormalizationCap,
			NeutralColor:     enc.NeutralColor,
			HighlightColor:   enc.HighlightColor,
			HomeColor:        enc.HomeColor,
		},
		Orbit: OrbitSettings{
			AutoRotate:      true,
			AutoRotateSpeed: 0.1,
			IdleDelay:       3 * time.Second,
			MinDistance:     110,
			MaxDistance:     600,
			DampingFactor:   0.1,
		},
		Server: ServerSettings{
			Addr:        ":8080",
			MetricsPath: "/metrics",
			BridgePath:  "/ws",
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Data: DataSettings{
			RegionsPath: "data/regions.geojson",
		},
	}
}

// Load reads the given .env files, or ./.env when none are named, and then
// parses the environment. Variables already set in the environment win over
// file values. A missing ./.env is not an error; a missing named file is.
//
// Parameters:
//   - files: .env files to load
//
// Returns:
//   - Settings: the parsed settings
//   - error: error if a file cannot be read or a value is invalid
func Load(files ...string) (Settings, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("config: load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Settings{}, fmt.Errorf("config: load %s: %w", strings.Join(files, ", "), err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup parses settings from a variable lookup such as os.LookupEnv.
// Empty values are treated as unset. Every invalid value is reported.
//
// Parameters:
//   - lookup: returns the value of a variable and whether it is set
//
// Returns:
//   - Settings: the parsed settings
//   - error: error wrapping ErrInvalidSetting for each invalid value
func FromLookup(lookup func(string) (string, bool)) (Settings, error) {
	p := &parser{lookup: lookup}
	s := Default()

	p.str("WINDOW_TITLE", &s.Window.Title)
	p.positiveInt("WINDOW_WIDTH", &s.Window.Width)
	p.positiveInt("WINDOW_HEIGHT", &s.Window.Height)
	p.boolean("FULLSCREEN", &s.Window.Fullscreen)

	p.presentMode("PRESENT_MODE", &s.Surface.PresentMode)
	p.boolean("FORCE_FALLBACK_ADAPTER", &s.Surface.ForceFallbackAdapter)
	p.color("CLEAR_COLOR", &s.Surface.ClearColor)
	p.positiveInt("REFRESH_RATE", &s.Surface.RefreshRate)

	p.positiveFloat("GLOBE_RADIUS", &s.Globe.Radius)
	p.positiveFloat("FOCUS_DISTANCE", &s.Globe.FocusDistance)
	p.duration("FOCUS_DURATION", &s.Globe.FocusDuration)
	p.str("HOME_ISO", &s.Globe.HomeISO)
	s.Globe.HomeISO = strings.ToUpper(s.Globe.HomeISO)
	p.positiveFloat("NORMALIZATION_CAP", &s.Globe.NormalizationCap)
	p.color("NEUTRAL_COLOR", &s.Globe.NeutralColor)
	p.color("HIGHLIGHT_COLOR", &s.Globe.HighlightColor)
	p.color("HOME_COLOR", &s.Globe.HomeColor)
	p.positiveInt("ENCODE_WORKERS", &s.Globe.EncodeWorkers)

	p.boolean("AUTO_ROTATE", &s.Orbit.AutoRotate)
	p.float("AUTO_ROTATE_SPEED", &s.Orbit.AutoRotateSpeed)
	p.duration("IDLE_DELAY", &s.Orbit.IdleDelay)
	p.positiveFloat("MIN_DISTANCE", &s.Orbit.MinDistance)
	p.positiveFloat("MAX_DISTANCE", &s.Orbit.MaxDistance)
	p.positiveFloat("DAMPING_FACTOR", &s.Orbit.DampingFactor)

	p.str("SERVER_ADDR", &s.Server.Addr)
	p.str("METRICS_PATH", &s.Server.MetricsPath)
	p.str("BRIDGE_PATH", &s.Server.BridgePath)
	p.list("ALLOWED_ORIGINS", &s.Server.AllowedOrigins)

	p.str("LOG_LEVEL", &s.Log.Level)
	p.str("LOG_FORMAT", &s.Log.Format)

	p.str("REGIONS_PATH", &s.Data.RegionsPath)
	p.str("ARCS_PATH", &s.Data.ArcsPath)
	p.str("MARKERS_PATH", &s.Data.MarkersPath)
	p.str("RECORDS_PATH", &s.Data.RecordsPath)

	if s.Orbit.MaxDistance < s.Orbit.MinDistance {
		p.fail("MAX_DISTANCE", strconv.FormatFloat(s.Orbit.MaxDistance, 'g', -1, 64), errors.New("below MIN_DISTANCE"))
	}
	if s.Orbit.DampingFactor > 1 {
		p.fail("DAMPING_FACTOR", strconv.FormatFloat(s.Orbit.DampingFactor, 'g', -1, 64), errors.New("above 1"))
	}

	if err := errors.Join(p.errs...); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Encoding returns the default encoding with the configured palette and home region.
func (s Settings) Encoding() globe.Encoding {
	enc := globe.DefaultEncoding()
	enc.HomeISO = s.Globe.HomeISO
	enc.NormalizationCap = s.Globe.NormalizationCap
	enc.NeutralColor = s.Globe.NeutralColor
	enc.HighlightColor = s.Globe.HighlightColor
	enc.HomeColor = s.Globe.HomeColor
	return enc
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) get(key string) (string, bool) {
	v, ok := p.lookup(Prefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidSetting, Prefix, key, value, err))
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) list(key string, dst *[]string) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = b
}

func (p *parser) positiveInt(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err == nil && n <= 0 {
		err = errors.New("must be positive")
	}
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = n
}

func (p *parser) float(key string, dst *float64) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil && !common.IsFinite(f) {
		err = errors.New("must be finite")
	}
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = f
}

func (p *parser) positiveFloat(key string, dst *float64) {
	before := *dst
	p.float(key, dst)
	if *dst <= 0 {
		p.fail(key, strconv.FormatFloat(*dst, 'g', -1, 64), errors.New("must be positive"))
		*dst = before
	}
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err == nil && d < 0 {
		err = errors.New("must not be negative")
	}
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = d
}

func (p *parser) color(key string, dst *common.Color) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	c, err := common.ParseHexColor(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = c
}

func (p *parser) presentMode(key string, dst *surface.PresentMode) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "vsync", "fifo":
		*dst = surface.PresentModeVSync
	case "uncapped", "immediate":
		*dst = surface.PresentModeUncapped
	default:
		p.fail(key, v, errors.New(`want "vsync" or "uncapped"`))
	}
}
