// Package engine hosts the render loop that advances frames, drives the
// surface and fans the frame tick out to the globe components over the bus.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/clock"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/game_object"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
	"github.com/Carmen-Shannon/oxy-globe/engine/surface"
)

var (
	// ErrMissingCamera is returned by NewEngine when no camera was supplied.
	ErrMissingCamera = errors.New("engine: missing camera")
	// ErrMissingSurface is returned by NewEngine when no rendering surface was supplied.
	ErrMissingSurface = errors.New("engine: missing surface")
	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("engine: stopped")
)

// FrameInfo describes one advanced frame. It is the payload of eventbus.TopicFrameTick.
type FrameInfo = common.FrameInfo

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	camera    camera.Camera
	surface   surface.Surface
	clock     clock.Clock
	scheduler clock.Scheduler
	bus       eventbus.EventBus
	logger    logging.Logger
	metrics   *profiler.Collector
	profiler  *profiler.Profiler

	width, height int
	maxDeltaTime  time.Duration
	frameInterval time.Duration

	started  bool
	paused   bool
	stopped  bool
	lastTime time.Time
	frame    uint64
	elapsed  time.Duration
	err      error

	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine is the render loop. It owns the camera and surface, advances time on
// an injected clock and publishes one frame tick per frame on the event bus.
// Subscribers run in priority order: orbit damping, the camera animator, the
// globe, then observers.
type Engine interface {
	// Start begins advancing frames. Calling Start on a running engine is a no-op.
	//
	// Returns:
	//   - error: ErrStopped after Stop, or the fatal error that stopped the loop
	Start() error

	// Pause stops frame advancement while keeping all state.
	// Elapsed time does not accumulate while paused and scheduled callbacks are held.
	Pause()

	// Resume continues after Pause. The delta baseline is reset so the first
	// frame after resuming does not see the paused interval.
	Resume()

	// Stop ends the loop permanently. Safe to call multiple times.
	Stop()

	// Step advances exactly one frame: due scheduled callbacks run, frame:tick is
	// published and the surface is cleared and presented. It is a no-op when the
	// engine is not started, paused or stopped.
	//
	// Returns:
	//   - FrameInfo: the advanced frame, or the zero value when nothing advanced
	//   - error: a fatal error such as surface.ErrSurfaceLost; the engine is stopped when non-nil
	Step() (FrameInfo, error)

	// Run starts the engine and calls Step at the configured refresh rate until
	// ctx is done, Stop is called or a fatal error occurs.
	//
	// Parameters:
	//   - ctx: controls the loop lifetime
	//
	// Returns:
	//   - error: the fatal error, or nil on a clean shutdown
	Run(ctx context.Context) error

	// Pick casts a ray from the camera through a viewport pixel and intersects it
	// with the candidates. Disabled objects are skipped.
	//
	// Parameters:
	//   - x, y: viewport position in pixels, origin top-left
	//   - candidates: the objects to test
	//
	// Returns:
	//   - []game_object.Hit: hits nearest first, equal distances ordered by object ID
	Pick(x, y float64, candidates []game_object.GameObject) []game_object.Hit

	// Resize updates the camera aspect ratio and the surface size.
	// The camera pose is never changed. Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width: new viewport width in pixels
	//   - height: new viewport height in pixels
	Resize(width, height int)

	// Size returns the current viewport size in pixels.
	Size() (int, int)

	// Camera returns the engine-owned camera.
	Camera() camera.Camera

	// EventBus returns the bus frame ticks are published on.
	EventBus() eventbus.EventBus

	// Scheduler returns the scheduler drained at the start of each frame.
	Scheduler() clock.Scheduler

	// Running reports whether the engine is started and neither paused nor stopped.
	Running() bool

	// Err returns the fatal error that stopped the engine, if any.
	Err() error
}

var _ Engine = &engine{}

// NewEngine creates an Engine from the provided options and configures the surface.
// A camera and a surface are required; the clock, scheduler and bus default to
// real time, a fresh scheduler on that clock and a fresh bus.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine, not yet started
//   - error: ErrMissingCamera, ErrMissingSurface or a wrapped surface configuration error
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:            &sync.Mutex{},
		logger:        logging.Noop(),
		width:         1280,
		height:        720,
		maxDeltaTime:  100 * time.Millisecond,
		frameInterval: time.Second / 60,
		quitChannel:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.camera == nil {
		return nil, ErrMissingCamera
	}
	if e.surface == nil {
		return nil, ErrMissingSurface
	}
	if e.clock == nil {
		e.clock = clock.Real()
	}
	if e.scheduler == nil {
		e.scheduler = clock.NewScheduler(e.clock)
	}
	if e.bus == nil {
		e.bus = eventbus.NewEventBus(eventbus.WithLogger(e.logger), eventbus.WithMetrics(e.metrics))
	}

	if err := e.surface.Configure(e.width, e.height); err != nil {
		return nil, fmt.Errorf("engine: configure surface: %w", err)
	}
	e.camera.SetAspect(float64(e.width) / float64(e.height))

	return e, nil
}

func (e *engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		if e.err != nil {
			return e.err
		}
		return ErrStopped
	}
	if e.started {
		return nil
	}
	e.started = true
	e.lastTime = e.clock.Now()
	e.logger.Info(context.Background(), "engine started",
		logging.Int("width", e.width),
		logging.Int("height", e.height),
	)
	return nil
}

func (e *engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started && !e.stopped && !e.paused {
		e.paused = true
		e.scheduler.Pause()
	}
}

func (e *engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused || e.stopped {
		return
	}
	e.paused = false
	e.lastTime = e.clock.Now()
	e.scheduler.Resume()
}

func (e *engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	e.signalQuit()
}

// signalQuit closes the quit channel so Run returns. Only the first call has an effect.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Step() (FrameInfo, error) {
	e.mu.Lock()
	if e.stopped {
		err := e.err
		e.mu.Unlock()
		return FrameInfo{}, err
	}
	if !e.started || e.paused {
		e.mu.Unlock()
		return FrameInfo{}, nil
	}

	now := e.clock.Now()
	delta := now.Sub(e.lastTime)
	if delta < 0 {
		delta = 0
	}
	if delta > e.maxDeltaTime {
		delta = e.maxDeltaTime
	}
	e.lastTime = now
	e.frame++
	e.elapsed += delta
	info := FrameInfo{
		Frame:       e.frame,
		DeltaTime:   delta.Seconds(),
		ElapsedTime: e.elapsed.Seconds(),
	}
	e.mu.Unlock()

	e.scheduler.RunDue()
	e.bus.Publish(eventbus.TopicFrameTick, info)
	e.metrics.ObserveFrame(info.DeltaTime)
	if e.profiler != nil {
		e.profiler.Tick(now)
	}

	if err := e.drawFrame(); err != nil {
		if errors.Is(err, surface.ErrSurfaceLost) {
			e.fail(err)
			return info, err
		}
		e.logger.Warn(context.Background(), "frame skipped",
			logging.Int("frame", int(info.Frame)),
			logging.Err(err),
		)
	}
	return info, nil
}

// drawFrame runs the surface frame lifecycle once.
func (e *engine) drawFrame() error {
	if err := e.surface.BeginFrame(); err != nil {
		return err
	}
	if err := e.surface.EndFrame(); err != nil {
		e.surface.Present()
		return err
	}
	e.surface.Present()
	return nil
}

// fail records a fatal error and stops the loop.
func (e *engine) fail(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.stopped = true
	e.mu.Unlock()
	e.logger.Error(context.Background(), "engine stopped", logging.Err(err))
	e.signalQuit()
}

func (e *engine) Run(ctx context.Context) error {
	if err := e.Start(); err != nil {
		return err
	}

	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return nil
		case <-e.quitChannel:
			return e.Err()
		case <-ticker.C:
			if _, err := e.Step(); err != nil {
				return err
			}
		}
	}
}

func (e *engine) Pick(x, y float64, candidates []game_object.GameObject) []game_object.Hit {
	width, height := e.Size()
	origin, dir, ok := e.camera.Ray(x, y, float64(width), float64(height))
	if !ok {
		return nil
	}

	var hits []game_object.Hit
	for _, obj := range candidates {
		if obj == nil || !obj.Enabled() {
			continue
		}
		if d, hit := obj.Intersect(origin, dir); hit {
			hits = append(hits, game_object.Hit{
				Object:   obj,
				Point:    origin.Add(dir.Mul(d)),
				Distance: d,
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Object.ID() < hits[j].Object.ID()
	})
	return hits
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	e.width, e.height = width, height
	e.mu.Unlock()

	e.camera.SetAspect(float64(width) / float64(height))
	if err := e.surface.Resize(width, height); err != nil {
		e.logger.Warn(context.Background(), "surface resize failed",
			logging.Int("width", width),
			logging.Int("height", height),
			logging.Err(err),
		)
	}
}

func (e *engine) Size() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width, e.height
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) EventBus() eventbus.EventBus {
	return e.bus
}

func (e *engine) Scheduler() clock.Scheduler {
	return e.scheduler
}

func (e *engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started && !e.paused && !e.stopped
}

func (e *engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
