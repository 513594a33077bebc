// Package surface defines the drawable target the render loop presents into.
package surface

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

// ErrSurfaceLost is returned when the underlying drawable can no longer be acquired.
// The render loop treats it as fatal.
var ErrSurfaceLost = errors.New("surface lost")

// ErrNotConfigured is returned by BeginFrame before Configure succeeded.
var ErrNotConfigured = errors.New("surface not configured")

// ErrFrameInProgress is returned by BeginFrame when the previous frame was not presented.
var ErrFrameInProgress = errors.New("previous frame not yet presented")

// PresentMode controls how presented frames are paced.
type PresentMode int

const (
	// PresentModeVSync waits for the display's vertical blank.
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped presents immediately; may tear.
	PresentModeUncapped
)

// Surface is the drawing target driven once per frame by the engine.
type Surface interface {
	// Configure prepares the surface for the given pixel size. It must succeed before the first frame.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	//
	// Returns:
	//   - error: error if the surface could not be configured
	Configure(width, height int) error

	// Resize reconfigures the surface after a framebuffer size change.
	// Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width: new width in pixels
	//   - height: new height in pixels
	//
	// Returns:
	//   - error: error if reconfiguration fails
	Resize(width, height int) error

	// BeginFrame acquires the next drawable and starts the clear pass.
	//
	// Returns:
	//   - error: ErrSurfaceLost when the drawable is gone, or another acquisition error
	BeginFrame() error

	// EndFrame finishes and submits the commands recorded since BeginFrame.
	//
	// Returns:
	//   - error: error if submission fails
	EndFrame() error

	// Present shows the submitted frame. It is a no-op when no frame is held.
	Present()

	// Size returns the configured size in pixels.
	//
	// Returns:
	//   - int: width
	//   - int: height
	Size() (int, int)

	// SetClearColor sets the background color used by the clear pass.
	SetClearColor(c common.Color)

	// Release frees every resource held by the surface.
	Release()
}
