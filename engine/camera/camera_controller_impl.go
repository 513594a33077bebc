package camera

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/clock"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// zoomStep is the log-distance change per scroll notch at zoom speed 1.
const zoomStep = 0.1

// velocityEpsilon is the pending velocity below which damping snaps to rest.
const velocityEpsilon = 1e-7

type outgoing struct {
	topic   string
	payload any
}

// orbitControllerImpl is the implementation of OrbitController.
// The camera pose is the source of truth: spherical state is re-derived from it
// at the start of every update so writes by the animator are picked up.
type orbitControllerImpl struct {
	mu *sync.Mutex

	camera    Camera
	animator  CameraAnimator
	bus       eventbus.EventBus
	scheduler clock.Scheduler
	idle      *clock.IdleTimer
	logger    logging.Logger
	metrics   *profiler.Collector
	subID     string

	// Spherical coordinates of the camera relative to its target
	distance float64
	azimuth  float64 // around +Y, 0 on +Z
	polar    float64 // from +Y

	// Pending velocity consumed by damping
	pendingAzimuth float64
	pendingPolar   float64
	pendingZoom    float64 // log-distance

	// Orbit constraints
	minDistance float64
	maxDistance float64
	minPolar    float64
	maxPolar    float64

	dampingFactor float64
	rotateSpeed   float64 // radians per pixel
	zoomSpeed     float64
	keyOrbitStep  float64

	autoRotateEnabled bool
	autoRotating      bool
	autoRotateSpeed   float64 // radians per second
	idleDelay         time.Duration

	defaultPosition mgl64.Vec3
	defaultTarget   mgl64.Vec3
	resetDuration   time.Duration

	// Pointer state
	pointerDown bool
	downAt      time.Time
	last        common.ScreenPoint
	movement    float64
	dragging    bool
	interacting bool

	pinching      bool
	pinchDistance float64

	textFocused bool
}

var _ OrbitController = &orbitControllerImpl{}

// NewOrbitController creates an orbit controller driving cam.
// With an event bus the controller follows frame:tick at eventbus.PriorityOrbit
// and publishes its interaction lifecycle there.
//
// Parameters:
//   - cam: the camera to orbit
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(cam Camera, options ...CameraControllerOption) OrbitController {
	oc := &orbitControllerImpl{
		mu:     &sync.Mutex{},
		camera: cam,
		logger: logging.Noop(),

		minDistance: 110.0,
		maxDistance: 600.0,
		minPolar:    0.1,
		maxPolar:    math.Pi - 0.1,

		dampingFactor: 0.1,
		rotateSpeed:   0.005,
		zoomSpeed:     1.0,
		keyOrbitStep:  0.05,

		autoRotateEnabled: true,
		autoRotateSpeed:   0.2,
		idleDelay:         3 * time.Second,

		defaultPosition: cam.Position(),
		defaultTarget:   cam.Target(),
		resetDuration:   time.Second,
	}
	for _, option := range options {
		option(oc)
	}
	if oc.scheduler == nil {
		oc.scheduler = clock.NewScheduler(clock.Real())
	}
	oc.idle = clock.NewIdleTimer(oc.scheduler, oc.idleDelay, oc.onIdle)
	oc.autoRotating = oc.autoRotateEnabled

	oc.syncFromCameraLocked()
	if oc.clampLocked() {
		oc.writeCameraLocked()
	}

	if oc.bus != nil {
		oc.subID = oc.bus.Subscribe(eventbus.TopicFrameTick, func(evt eventbus.Event) error {
			if info, ok := evt.Payload.(common.FrameInfo); ok {
				oc.Update(info)
			}
			return nil
		}, eventbus.WithPriority(eventbus.PriorityOrbit))
	}
	return oc
}

// --- internal helpers ---

// syncFromCameraLocked re-derives the spherical state from the camera pose.
// Caller must hold the mutex.
func (oc *orbitControllerImpl) syncFromCameraLocked() {
	offset := oc.camera.Position().Sub(oc.camera.Target())
	r := offset.Len()
	if r < 1e-9 {
		return
	}
	oc.distance = r
	oc.polar = math.Acos(common.Clamp(offset[1]/r, -1, 1))
	oc.azimuth = math.Atan2(offset[0], offset[2])
}

// clampLocked enforces the distance and polar bounds and reports whether anything changed.
// Caller must hold the mutex.
func (oc *orbitControllerImpl) clampLocked() bool {
	d := common.Clamp(oc.distance, oc.minDistance, oc.maxDistance)
	p := common.Clamp(oc.polar, oc.minPolar, oc.maxPolar)
	changed := d != oc.distance || p != oc.polar
	oc.distance = d
	oc.polar = p
	return changed
}

// writeCameraLocked writes the spherical state back to the camera position.
// Caller must hold the mutex.
func (oc *orbitControllerImpl) writeCameraLocked() {
	sinPolar := math.Sin(oc.polar)
	offset := mgl64.Vec3{
		oc.distance * sinPolar * math.Sin(oc.azimuth),
		oc.distance * math.Cos(oc.polar),
		oc.distance * sinPolar * math.Cos(oc.azimuth),
	}
	oc.camera.SetPosition(oc.camera.Target().Add(offset))
}

// beginInteractionLocked starts an interaction, pausing auto-rotation and
// cancelling the idle timer before anything else can observe it.
// Caller must hold the mutex.
func (oc *orbitControllerImpl) beginInteractionLocked(gesture string) []outgoing {
	if oc.interacting {
		return nil
	}
	oc.interacting = true
	oc.autoRotating = false
	oc.idle.Cancel()
	return []outgoing{{eventbus.TopicInteractionStart, InteractionPayload{Gesture: gesture}}}
}

// endInteractionLocked ends an interaction and re-arms the idle timer.
// Caller must hold the mutex.
func (oc *orbitControllerImpl) endInteractionLocked(gesture string) []outgoing {
	if !oc.interacting {
		return nil
	}
	oc.interacting = false
	if oc.autoRotateEnabled {
		oc.idle.Reschedule()
	}
	return []outgoing{{eventbus.TopicInteractionEnd, InteractionPayload{Gesture: gesture}}}
}

// dragLocked accumulates drag movement toward (x, y).
// Caller must hold the mutex.
func (oc *orbitControllerImpl) dragLocked(x, y float64) {
	dx := x - oc.last.X
	dy := y - oc.last.Y
	oc.movement += math.Hypot(dx, dy)
	oc.last = common.ScreenPoint{X: x, Y: y}
	if oc.movement >= ClickMovementThreshold {
		oc.dragging = true
	}
	if oc.tweenActive() {
		return
	}
	oc.pendingAzimuth -= dx * oc.rotateSpeed
	oc.pendingPolar -= dy * oc.rotateSpeed
}

// tweenActive reports whether the animator owns the camera. Input deltas made
// meanwhile are dropped.
func (oc *orbitControllerImpl) tweenActive() bool {
	return oc.animator != nil && oc.animator.Active()
}

func (oc *orbitControllerImpl) emit(events []outgoing) {
	if oc.bus == nil {
		return
	}
	for _, e := range events {
		oc.bus.Publish(e.topic, e.payload)
	}
}

// onIdle runs from the scheduler once the idle delay elapsed without interaction.
func (oc *orbitControllerImpl) onIdle() {
	oc.mu.Lock()
	if oc.interacting || !oc.autoRotateEnabled {
		oc.mu.Unlock()
		return
	}
	oc.autoRotating = true
	oc.mu.Unlock()

	oc.metrics.AutoRotateStarted()
	oc.logger.Debug(context.Background(), "auto-rotate resumed after idle")
	oc.emit([]outgoing{{eventbus.TopicAutoRotateStarted, AutoRotatePayload{Enabled: true}}})
}

// --- frame update ---

func (oc *orbitControllerImpl) Update(info common.FrameInfo) {
	if oc.tweenActive() {
		return
	}

	oc.mu.Lock()
	defer oc.mu.Unlock()

	oc.syncFromCameraLocked()

	dt := math.Max(info.DeltaTime, 0)
	changed := false

	if oc.autoRotating && !oc.interacting && oc.autoRotateSpeed != 0 {
		oc.azimuth += oc.autoRotateSpeed * dt
		changed = true
	}

	if oc.pendingAzimuth != 0 || oc.pendingPolar != 0 || oc.pendingZoom != 0 {
		// Frame-rate independent: the damping factor is the fraction applied per 1/60s.
		factor := 1.0
		if oc.dampingFactor < 1 {
			factor = 1 - math.Pow(1-oc.dampingFactor, dt*60)
		}
		da := oc.pendingAzimuth * factor
		dp := oc.pendingPolar * factor
		dz := oc.pendingZoom * factor
		oc.pendingAzimuth -= da
		oc.pendingPolar -= dp
		oc.pendingZoom -= dz

		oc.azimuth += da
		oc.polar += dp
		oc.distance *= math.Exp(dz)

		if math.Abs(oc.pendingAzimuth) < velocityEpsilon {
			oc.pendingAzimuth = 0
		}
		if math.Abs(oc.pendingPolar) < velocityEpsilon {
			oc.pendingPolar = 0
		}
		if math.Abs(oc.pendingZoom) < velocityEpsilon {
			oc.pendingZoom = 0
		}
		changed = true
	}

	if oc.clampLocked() {
		changed = true
	}
	if changed {
		oc.writeCameraLocked()
	}
}

// --- pointer input ---

func (oc *orbitControllerImpl) PointerDown(x, y float64) {
	oc.mu.Lock()
	oc.pointerDown = true
	oc.downAt = oc.scheduler.Now()
	oc.last = common.ScreenPoint{X: x, Y: y}
	oc.movement = 0
	oc.dragging = false
	events := oc.beginInteractionLocked("pointer")
	oc.mu.Unlock()

	oc.emit(events)
}

func (oc *orbitControllerImpl) PointerMove(x, y float64) {
	oc.mu.Lock()
	if oc.pinching {
		oc.mu.Unlock()
		return
	}
	if oc.pointerDown {
		oc.dragLocked(x, y)
		oc.mu.Unlock()
		return
	}
	oc.last = common.ScreenPoint{X: x, Y: y}
	oc.mu.Unlock()

	oc.emit([]outgoing{{eventbus.TopicPointerMove, PointerPayload{X: x, Y: y}}})
}

func (oc *orbitControllerImpl) PointerUp(x, y float64) Gesture {
	oc.mu.Lock()
	if !oc.pointerDown {
		oc.mu.Unlock()
		return GestureNone
	}
	oc.dragLocked(x, y)
	gesture := ClassifyGesture(oc.movement, oc.scheduler.Now().Sub(oc.downAt))
	oc.pointerDown = false
	oc.dragging = false
	events := oc.endInteractionLocked(gesture.String())
	if gesture == GestureClick {
		events = append(events, outgoing{eventbus.TopicPointerClick, PointerPayload{X: x, Y: y}})
	}
	oc.mu.Unlock()

	oc.emit(events)
	return gesture
}

func (oc *orbitControllerImpl) PointerLeave() {
	oc.mu.Lock()
	var events []outgoing
	if oc.pointerDown {
		oc.pointerDown = false
		oc.dragging = false
		events = oc.endInteractionLocked(GestureDrag.String())
	}
	events = append(events, outgoing{eventbus.TopicPointerLeave, nil})
	oc.mu.Unlock()

	oc.emit(events)
}

func (oc *orbitControllerImpl) Scroll(delta float64) {
	if delta == 0 || !common.IsFinite(delta) {
		return
	}
	oc.mu.Lock()
	events := oc.beginInteractionLocked("scroll")
	if !oc.tweenActive() {
		oc.pendingZoom -= delta * oc.zoomSpeed * zoomStep
	}
	if !oc.pointerDown && !oc.pinching {
		events = append(events, oc.endInteractionLocked("scroll")...)
	}
	oc.mu.Unlock()

	oc.emit(events)
}

func touchDistance(touches []common.TouchPoint) float64 {
	return math.Hypot(touches[1].X-touches[0].X, touches[1].Y-touches[0].Y)
}

func (oc *orbitControllerImpl) TouchStart(touches []common.TouchPoint) {
	switch {
	case len(touches) >= 2:
		oc.mu.Lock()
		oc.pointerDown = false
		oc.dragging = false
		oc.pinching = true
		oc.pinchDistance = touchDistance(touches)
		events := oc.beginInteractionLocked(GesturePinch.String())
		oc.mu.Unlock()
		oc.emit(events)
	case len(touches) == 1:
		oc.PointerDown(touches[0].X, touches[0].Y)
	}
}

func (oc *orbitControllerImpl) TouchMove(touches []common.TouchPoint) {
	oc.mu.Lock()
	if !oc.pinching {
		oc.mu.Unlock()
		if len(touches) == 1 {
			oc.PointerMove(touches[0].X, touches[0].Y)
		}
		return
	}
	defer oc.mu.Unlock()

	if len(touches) < 2 {
		return
	}
	d := touchDistance(touches)
	prev := oc.pinchDistance
	oc.pinchDistance = d
	if prev <= 0 || d <= 0 {
		return
	}
	if oc.tweenActive() {
		return
	}

	// Spreading the fingers apart moves the camera closer.
	oc.syncFromCameraLocked()
	oc.distance *= prev / d
	oc.clampLocked()
	oc.writeCameraLocked()
}

func (oc *orbitControllerImpl) TouchEnd(touches []common.TouchPoint) Gesture {
	oc.mu.Lock()
	if oc.pinching {
		if len(touches) >= 2 {
			oc.pinchDistance = touchDistance(touches)
			oc.mu.Unlock()
			return GestureNone
		}
		if len(touches) == 1 {
			// One finger still down: keep the interaction open without rotating.
			oc.mu.Unlock()
			return GestureNone
		}
		oc.pinching = false
		oc.pinchDistance = 0
		events := oc.endInteractionLocked(GesturePinch.String())
		oc.mu.Unlock()
		oc.emit(events)
		return GesturePinch
	}
	last := oc.last
	down := oc.pointerDown
	oc.mu.Unlock()

	if down && len(touches) == 0 {
		return oc.PointerUp(last.X, last.Y)
	}
	return GestureNone
}

// --- keyboard ---

func (oc *orbitControllerImpl) SetTextInputFocused(focused bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.textFocused = focused
}

func (oc *orbitControllerImpl) KeyDown(key uint32) Action {
	oc.mu.Lock()
	focused := oc.textFocused
	oc.mu.Unlock()
	if focused {
		return ActionNone
	}

	switch key {
	case common.KeyR:
		oc.ResetView()
		return ActionResetView
	case common.KeySpace:
		oc.SetAutoRotate(!oc.AutoRotateEnabled())
		return ActionToggleAutoRotate
	case common.KeyF:
		oc.emit([]outgoing{{eventbus.TopicViewFullscreenToggle, nil}})
		return ActionToggleFullscreen
	case common.KeyEsc:
		oc.cancelInteraction()
		return ActionCancelInteraction
	case common.KeyLeft:
		oc.nudge(-oc.keyOrbitStep, 0)
		return ActionOrbitLeft
	case common.KeyRight:
		oc.nudge(oc.keyOrbitStep, 0)
		return ActionOrbitRight
	case common.KeyUp:
		oc.nudge(0, -oc.keyOrbitStep)
		return ActionOrbitUp
	case common.KeyDown:
		oc.nudge(0, oc.keyOrbitStep)
		return ActionOrbitDown
	}
	return ActionNone
}

func (oc *orbitControllerImpl) nudge(azimuth, polar float64) {
	oc.mu.Lock()
	events := oc.beginInteractionLocked("keyboard")
	oc.pendingAzimuth += azimuth
	oc.pendingPolar += polar
	if !oc.pointerDown && !oc.pinching {
		events = append(events, oc.endInteractionLocked("keyboard")...)
	}
	oc.mu.Unlock()

	oc.emit(events)
}

// cancelInteraction aborts an active press or pinch and drops its momentum.
func (oc *orbitControllerImpl) cancelInteraction() {
	oc.mu.Lock()
	oc.pendingAzimuth, oc.pendingPolar, oc.pendingZoom = 0, 0, 0
	oc.pointerDown = false
	oc.dragging = false
	oc.pinching = false
	oc.pinchDistance = 0
	events := oc.endInteractionLocked("cancel")
	oc.mu.Unlock()

	oc.emit(events)
}

// --- view commands ---

func (oc *orbitControllerImpl) ResetView() {
	oc.mu.Lock()
	oc.pendingAzimuth, oc.pendingPolar, oc.pendingZoom = 0, 0, 0
	pos, target, dur := oc.defaultPosition, oc.defaultTarget, oc.resetDuration
	oc.mu.Unlock()

	if oc.animator != nil {
		oc.animator.AnimateTo(pos, target, dur)
	} else {
		oc.camera.SetPose(pos, target)
	}
	oc.emit([]outgoing{{eventbus.TopicViewReset, PosePayload{Position: pos, LookAt: target}}})
}

func (oc *orbitControllerImpl) SetAutoRotate(enabled bool) {
	oc.mu.Lock()
	if oc.autoRotateEnabled == enabled {
		oc.mu.Unlock()
		return
	}
	oc.autoRotateEnabled = enabled
	topic := eventbus.TopicAutoRotateStopped
	if enabled {
		topic = eventbus.TopicAutoRotateStarted
		if !oc.interacting {
			oc.autoRotating = true
		}
	} else {
		oc.autoRotating = false
		oc.idle.Cancel()
	}
	oc.mu.Unlock()

	oc.emit([]outgoing{{topic, AutoRotatePayload{Enabled: enabled}}})
}

func (oc *orbitControllerImpl) Close() {
	oc.idle.Cancel()
	if oc.bus != nil && oc.subID != "" {
		oc.bus.Unsubscribe(oc.subID)
		oc.subID = ""
	}
}

// --- state accessors ---

func (oc *orbitControllerImpl) Distance() float64 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.distance
}

func (oc *orbitControllerImpl) Azimuth() float64 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.azimuth
}

func (oc *orbitControllerImpl) Polar() float64 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.polar
}

func (oc *orbitControllerImpl) Interacting() bool {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.interacting
}

func (oc *orbitControllerImpl) Dragging() bool {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.dragging
}

func (oc *orbitControllerImpl) AutoRotateEnabled() bool {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.autoRotateEnabled
}

func (oc *orbitControllerImpl) AutoRotating() bool {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.autoRotating
}

func (oc *orbitControllerImpl) IdleDelay() time.Duration {
	return oc.idleDelay
}
