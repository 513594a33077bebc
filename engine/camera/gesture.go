package camera

import "time"

// Gesture is the classification of a completed pointer cycle.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureClick
	GestureDrag
	GesturePinch
)

// Click thresholds. A press-release cycle is a click only when it stays below both.
const (
	ClickMovementThreshold = 5.0 // pixels
	ClickDurationThreshold = 200 * time.Millisecond
)

func (g Gesture) String() string {
	switch g {
	case GestureClick:
		return "click"
	case GestureDrag:
		return "drag"
	case GesturePinch:
		return "pinch"
	default:
		return "none"
	}
}

// ClassifyGesture classifies a press-release cycle from its cumulative pointer
// movement in pixels and its duration.
//
// Parameters:
//   - movement: cumulative pointer travel in pixels
//   - duration: time between press and release
//
// Returns:
//   - Gesture: GestureClick or GestureDrag
func ClassifyGesture(movement float64, duration time.Duration) Gesture {
	if movement < ClickMovementThreshold && duration < ClickDurationThreshold {
		return GestureClick
	}
	return GestureDrag
}

// Action is the discrete command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionResetView
	ActionToggleAutoRotate
	ActionToggleFullscreen
	ActionCancelInteraction
	ActionOrbitLeft
	ActionOrbitRight
	ActionOrbitUp
	ActionOrbitDown
)

func (a Action) String() string {
	switch a {
	case ActionResetView:
		return "reset-view"
	case ActionToggleAutoRotate:
		return "toggle-auto-rotate"
	case ActionToggleFullscreen:
		return "toggle-fullscreen"
	case ActionCancelInteraction:
		return "cancel-interaction"
	case ActionOrbitLeft:
		return "orbit-left"
	case ActionOrbitRight:
		return "orbit-right"
	case ActionOrbitUp:
		return "orbit-up"
	case ActionOrbitDown:
		return "orbit-down"
	default:
		return "none"
	}
}

// PointerPayload is published on pointer:click and pointer:move.
type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AutoRotatePayload is published on auto-rotate:started and auto-rotate:stopped.
type AutoRotatePayload struct {
	Enabled bool `json:"enabled"`
}

// InteractionPayload is published on interaction:start and interaction:end.
type InteractionPayload struct {
	Gesture string `json:"gesture"`
}
