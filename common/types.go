// package common contains common types that are used throughout the globe engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a linear RGBA color with each channel in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// RGB builds an opaque Color from 8-bit channel values.
//
// Parameters:
//   - r, g, b: channel values in [0, 255]
//
// Returns:
//   - Color: the opaque color
func RGB(r, g, b uint8) Color {
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

// ParseHexColor parses a "#rrggbb" or "#rrggbbaa" string into a Color.
// The leading '#' is optional.
//
// Parameters:
//   - s: the hex color string
//
// Returns:
//   - Color: the parsed color
//   - error: error if the string is not a valid hex color
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float64((v>>24)&0xff) / 255,
		G: float64((v>>16)&0xff) / 255,
		B: float64((v>>8)&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// Lerp linearly interpolates every channel from c toward other.
// t is clamped to [0, 1]; the endpoints are returned exactly at 0 and 1.
//
// Parameters:
//   - other: the color reached at t = 1
//   - t: interpolation factor
//
// Returns:
//   - Color: the interpolated color
func (c Color) Lerp(other Color, t float64) Color {
	t = Clamp(t, 0, 1)
	if t == 0 {
		return c
	}
	if t == 1 {
		return other
	}
	return Color{
		R: Lerp(c.R, other.R, t),
		G: Lerp(c.G, other.G, t),
		B: Lerp(c.B, other.B, t),
		A: Lerp(c.A, other.A, t),
	}
}

// RGBA converts the color to an 8-bit image/color value.
func (c Color) RGBA() color.RGBA {
	to8 := func(v float64) uint8 {
		return uint8(Clamp(v, 0, 1)*255 + 0.5)
	}
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}

// Hex formats the color as "#rrggbb", dropping alpha.
func (c Color) Hex() string {
	rgba := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

// ScreenPoint is a position in viewport pixels, origin at the top-left corner.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TouchPoint is a single active touch contact.
type TouchPoint struct {
	// ID identifies the contact across move events.
	ID int
	// X and Y are the contact position in viewport pixels.
	X, Y float64
}

// FrameInfo describes one advanced frame of the render loop.
// All durations are in seconds.
type FrameInfo struct {
	Frame       uint64  `json:"frame"`
	DeltaTime   float64 `json:"deltaTime"`
	ElapsedTime float64 `json:"elapsedTime"`
}
