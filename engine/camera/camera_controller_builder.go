package camera

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/clock"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// CameraControllerOption is a functional option for configuring an OrbitController.
type CameraControllerOption func(*orbitControllerImpl)

// WithDampingFactor sets the fraction of pending angular velocity applied per 1/60s.
// Values are clamped to (0, 1]; 1 disables damping.
//
// Parameters:
//   - factor: the damping factor
//
// Returns:
//   - CameraControllerOption: functional option to set the damping factor
func WithDampingFactor(factor float64) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		if factor > 0 {
			oc.dampingFactor = min(factor, 1)
		}
	}
}

// WithRotateSpeed sets the drag rotation in radians per pixel.
//
// Parameters:
//   - speed: radians per pixel of drag
//
// Returns:
//   - CameraControllerOption: functional option to set the rotate speed
func WithRotateSpeed(speed float64) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.rotateSpeed = speed
	}
}

// WithZoomSpeed sets the scroll zoom multiplier.
//
// Parameters:
//   - speed: multiplier for scroll input
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom speed
func WithZoomSpeed(speed float64) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.zoomSpeed = speed
	}
}

// WithDistanceLimits sets the minimum and maximum distance from the target.
//
// Parameters:
//   - minDistance: closest allowed distance
//   - maxDistance: farthest allowed distance
//
// Returns:
//   - CameraControllerOption: functional option to set the distance clamp
func WithDistanceLimits(minDistance, maxDistance float64) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		if minDistance > 0 && maxDistance >= minDistance {
			oc.minDistance = minDistance
			oc.maxDistance = maxDistance
		}
	}
}

// WithPolarLimits sets the polar angle clamp in radians, measured from +Y.
// Keeping the limits inside (0, π) prevents flipping over the poles.
//
// Parameters:
//   - minPolar: smallest allowed polar angle
//   - maxPolar: largest allowed polar angle
//
// Returns:
//   - CameraControllerOption: functional option to set the polar clamp
func WithPolarLimits(minPolar, maxPolar float64) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		if minPolar >= 0 && maxPolar >= minPolar {
			oc.minPolar = minPolar
			oc.maxPolar = maxPolar
		}
	}
}

// WithAutoRotate enables or disables idle auto-rotation at construction.
func WithAutoRotate(enabled bool) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.autoRotateEnabled = enabled
	}
}

// WithAutoRotateSpeed sets the auto-rotation speed in radians per second.
func WithAutoRotateSpeed(speed float64) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.autoRotateSpeed = speed
	}
}

// WithIdleDelay sets how long after an interaction ends auto-rotation resumes.
func WithIdleDelay(d time.Duration) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		if d >= 0 {
			oc.idleDelay = d
		}
	}
}

// WithKeyOrbitStep sets the pending rotation added per arrow key press, in radians.
func WithKeyOrbitStep(step float64) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.keyOrbitStep = step
	}
}

// WithDefaultPose sets the pose ResetView animates to.
// The default is the camera pose at construction.
//
// Parameters:
//   - position: default camera position
//   - target: default look-at point
//
// Returns:
//   - CameraControllerOption: functional option to set the default pose
func WithDefaultPose(position, target mgl64.Vec3) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.defaultPosition = position
		oc.defaultTarget = target
	}
}

// WithResetDuration sets the ResetView tween duration.
func WithResetDuration(d time.Duration) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.resetDuration = d
	}
}

// WithAnimator sets the animator that owns the camera during tweens.
func WithAnimator(a CameraAnimator) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.animator = a
	}
}

// WithEventBus subscribes the controller to frame:tick and enables its lifecycle events.
func WithEventBus(bus eventbus.EventBus) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.bus = bus
	}
}

// WithScheduler sets the scheduler hosting the idle timer. Gesture durations
// are measured on the scheduler's clock.
func WithScheduler(s clock.Scheduler) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.scheduler = s
	}
}

// WithLogger sets the controller logger.
func WithLogger(l logging.Logger) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		if l != nil {
			oc.logger = l
		}
	}
}

// WithMetrics attaches a collector counting auto-rotate resumes.
func WithMetrics(c *profiler.Collector) CameraControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.metrics = c
	}
}
