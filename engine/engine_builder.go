package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/clock"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
	"github.com/Carmen-Shannon/oxy-globe/engine/surface"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithCamera sets the camera the engine owns. Required.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithSurface sets the rendering surface. Required.
//
// Parameters:
//   - s: the surface, configured by NewEngine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurface(s surface.Surface) EngineBuilderOption {
	return func(e *engine) {
		e.surface = s
	}
}

// WithSize sets the initial viewport size used to configure the surface.
// Non-positive values keep the 1280x720 default.
func WithSize(width, height int) EngineBuilderOption {
	return func(e *engine) {
		if width > 0 && height > 0 {
			e.width = width
			e.height = height
		}
	}
}

// WithClock sets the time source for frame deltas. Tests pass a clock.FakeClock.
func WithClock(c clock.Clock) EngineBuilderOption {
	return func(e *engine) {
		e.clock = c
	}
}

// WithScheduler sets the scheduler drained before each frame tick.
// It should run on the same clock as the engine.
func WithScheduler(s clock.Scheduler) EngineBuilderOption {
	return func(e *engine) {
		e.scheduler = s
	}
}

// WithEventBus sets the bus frame ticks are published on.
func WithEventBus(b eventbus.EventBus) EngineBuilderOption {
	return func(e *engine) {
		e.bus = b
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics attaches the collector receiving frame deltas.
func WithMetrics(c *profiler.Collector) EngineBuilderOption {
	return func(e *engine) {
		e.metrics = c
	}
}

// WithProfiler enables the FPS and memory profiler, ticked once per frame.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithMaxDeltaTime caps the per-frame delta so a stalled frame does not jump animations.
// Values <= 0 keep the 100ms default.
//
// Parameters:
//   - d: the largest delta reported in FrameInfo
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxDeltaTime(d time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if d > 0 {
			e.maxDeltaTime = d
		}
	}
}

// WithRefreshRate sets how often Run steps the engine, in frames per second.
// Values <= 0 are treated as the default (60Hz).
//
// Parameters:
//   - fps: target frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRefreshRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.frameInterval = time.Duration(float64(time.Second) / fps)
	}
}
