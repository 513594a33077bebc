package camera

import (
	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// CameraAnimatorOption is a functional option for configuring a CameraAnimator.
type CameraAnimatorOption func(*cameraAnimatorImpl)

// WithAnimatorEventBus subscribes the animator to frame:tick and enables the completion event.
//
// Parameters:
//   - bus: the engine event bus
//
// Returns:
//   - CameraAnimatorOption: functional option to set the bus
func WithAnimatorEventBus(bus eventbus.EventBus) CameraAnimatorOption {
	return func(a *cameraAnimatorImpl) {
		a.bus = bus
	}
}

// WithAnimatorLogger sets the animator logger.
func WithAnimatorLogger(l logging.Logger) CameraAnimatorOption {
	return func(a *cameraAnimatorImpl) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAnimatorMetrics attaches a collector tracking whether a tween is active.
func WithAnimatorMetrics(c *profiler.Collector) CameraAnimatorOption {
	return func(a *cameraAnimatorImpl) {
		a.metrics = c
	}
}
