package globe

import (
	"time"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// GlobeBuilderOption is a functional option for configuring a Globe during construction.
type GlobeBuilderOption func(*globeImpl)

// WithRadius sets the sphere radius in world units. Non-positive values keep the default of 100.
//
// Parameters:
//   - radius: the sphere radius
//
// Returns:
//   - GlobeBuilderOption: functional option to set the radius
func WithRadius(radius float64) GlobeBuilderOption {
	return func(g *globeImpl) {
		if radius > 0 {
			g.radius = radius
		}
	}
}

// WithEncoding replaces the visual encoding constants.
func WithEncoding(e Encoding) GlobeBuilderOption {
	return func(g *globeImpl) {
		g.encoding = e
	}
}

// WithFocus sets the camera distance, as a multiple of the radius, and the tween duration used by FocusRegion.
//
// Parameters:
//   - distance: camera distance in radii, must exceed 1
//   - duration: tween duration
//
// Returns:
//   - GlobeBuilderOption: functional option to set the focus parameters
func WithFocus(distance float64, duration time.Duration) GlobeBuilderOption {
	return func(g *globeImpl) {
		if distance > 1 {
			g.focusDistance = distance
		}
		if duration >= 0 {
			g.focusDuration = duration
		}
	}
}

// WithPicker sets the ray picker used for hover and click resolution.
func WithPicker(p Picker) GlobeBuilderOption {
	return func(g *globeImpl) {
		g.picker = p
	}
}

// WithAnimator sets the camera animator FocusRegion delegates to.
func WithAnimator(a camera.CameraAnimator) GlobeBuilderOption {
	return func(g *globeImpl) {
		g.animator = a
	}
}

// WithRecordSource sets where clicked and hovered regions look up their records.
func WithRecordSource(s RecordSource) GlobeBuilderOption {
	return func(g *globeImpl) {
		g.records = s
	}
}

// WithInteractionSource sets the live gesture state. Hover resolution pauses while it reports a drag.
func WithInteractionSource(s InteractionSource) GlobeBuilderOption {
	return func(g *globeImpl) {
		g.interaction = s
	}
}

// WithEventBus subscribes the globe to frame and pointer events and enables its region events.
func WithEventBus(bus eventbus.EventBus) GlobeBuilderOption {
	return func(g *globeImpl) {
		g.bus = bus
	}
}

// WithEncodeWorkers sets the worker pool size for region encoding.
func WithEncodeWorkers(n int) GlobeBuilderOption {
	return func(g *globeImpl) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithLogger sets the globe logger.
func WithLogger(l logging.Logger) GlobeBuilderOption {
	return func(g *globeImpl) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics attaches a collector counting rejected input.
func WithMetrics(c *profiler.Collector) GlobeBuilderOption {
	return func(g *globeImpl) {
		g.metrics = c
	}
}
