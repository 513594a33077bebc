package camera

import (
	"time"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

// OrbitController turns pointer, touch and keyboard input into a damped
// spherical orbit of the camera around its look-at target. It classifies
// gestures, emits the interaction lifecycle on the event bus and owns the idle
// timer that resumes auto-rotation.
//
// Input handlers commit their effects synchronously; the accumulated angular
// velocity is applied and damped by Update on each frame.
type OrbitController interface {
	pointerInput
	orbitState

	// Update applies damping of the pending angular velocity, auto-rotation and
	// distance/polar clamps, then writes the camera. While the animator owns the
	// camera the update is skipped and the orbit state is resynchronised from
	// the camera pose on the next update.
	//
	// Parameters:
	//   - info: the current frame
	Update(info common.FrameInfo)

	// KeyDown maps a key to its discrete action and performs it.
	// Keys are ignored while a text input has focus.
	//
	// Parameters:
	//   - key: the virtual key code
	//
	// Returns:
	//   - Action: the performed action, ActionNone when ignored or unbound
	KeyDown(key uint32) Action

	// SetTextInputFocused marks whether keyboard focus is inside a text input.
	//
	// Parameters:
	//   - focused: true while a text field has focus
	SetTextInputFocused(focused bool)

	// ResetView cancels any orbit momentum, animates the camera to the default
	// pose and publishes view:reset.
	ResetView()

	// SetAutoRotate enables or disables idle auto-rotation.
	// Disabling publishes auto-rotate:stopped.
	//
	// Parameters:
	//   - enabled: true to enable
	SetAutoRotate(enabled bool)

	// Close detaches the controller from the frame tick and cancels the idle timer.
	Close()
}

// pointerInput defines the raw input handlers fed by the window layer.
type pointerInput interface {
	// PointerDown starts a press at the given viewport position and begins an interaction.
	//
	// Parameters:
	//   - x, y: pointer position in pixels
	PointerDown(x, y float64)

	// PointerMove handles pointer motion. While pressed it accumulates drag
	// rotation; otherwise it publishes pointer:move for hover resolution.
	//
	// Parameters:
	//   - x, y: pointer position in pixels
	PointerMove(x, y float64)

	// PointerUp ends a press, classifies it and ends the interaction.
	// A click publishes pointer:click.
	//
	// Parameters:
	//   - x, y: pointer position in pixels
	//
	// Returns:
	//   - Gesture: the classification, GestureNone if no press was active
	PointerUp(x, y float64) Gesture

	// PointerLeave handles the pointer leaving the viewport. An active press
	// ends as a drag and pointer:leave is published.
	PointerLeave()

	// Scroll zooms the camera. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: scroll amount in wheel notches
	Scroll(delta float64)

	// TouchStart handles new touch contacts. Two contacts start a pinch.
	//
	// Parameters:
	//   - touches: all active contacts
	TouchStart(touches []common.TouchPoint)

	// TouchMove handles touch motion. During a pinch the camera distance is
	// scaled by the ratio of successive inter-touch distances.
	//
	// Parameters:
	//   - touches: all active contacts
	TouchMove(touches []common.TouchPoint)

	// TouchEnd handles lifted contacts.
	//
	// Parameters:
	//   - touches: the contacts still active
	//
	// Returns:
	//   - Gesture: the classification of the completed gesture, or GestureNone if contacts remain
	TouchEnd(touches []common.TouchPoint) Gesture
}

// orbitState exposes the controller's current spherical state.
type orbitState interface {
	// Distance returns the current distance from the target.
	Distance() float64

	// Azimuth returns the horizontal angle around the Y axis in radians, 0 on +Z.
	Azimuth() float64

	// Polar returns the angle from the +Y axis in radians.
	Polar() float64

	// Interacting reports whether a pointer, touch or scroll interaction is in progress.
	Interacting() bool

	// Dragging reports whether the active press has moved past the click threshold.
	Dragging() bool

	// AutoRotateEnabled reports whether auto-rotation is enabled.
	AutoRotateEnabled() bool

	// AutoRotating reports whether the camera is currently auto-rotating.
	AutoRotating() bool

	// IdleDelay returns the delay before auto-rotation resumes after an interaction.
	IdleDelay() time.Duration
}
