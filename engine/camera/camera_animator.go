package camera

import (
	"context"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// Tween is a single camera transition. StartTime is in engine elapsed seconds.
type Tween struct {
	StartPosition mgl64.Vec3
	EndPosition   mgl64.Vec3
	StartLookAt   mgl64.Vec3
	EndLookAt     mgl64.Vec3
	StartTime     float64
	Duration      time.Duration
}

// Progress returns the linear progress of the tween at the given elapsed time, clamped to [0, 1].
// A non-positive duration is always complete.
func (t Tween) Progress(elapsed float64) float64 {
	if t.Duration <= 0 {
		return 1
	}
	return common.Clamp((elapsed-t.StartTime)/t.Duration.Seconds(), 0, 1)
}

// At returns the eased camera pose of the tween at the given linear progress.
func (t Tween) At(progress float64) (position, lookAt mgl64.Vec3) {
	eased := common.EaseOutCubic(progress)
	return common.LerpVec3(t.StartPosition, t.EndPosition, eased), common.LerpVec3(t.StartLookAt, t.EndLookAt, eased)
}

// PosePayload is published on camera:animation-complete and view:reset.
type PosePayload struct {
	Position mgl64.Vec3 `json:"position"`
	LookAt   mgl64.Vec3 `json:"lookAt"`
}

type cameraAnimatorImpl struct {
	mu *sync.Mutex

	camera  Camera
	bus     eventbus.EventBus
	logger  logging.Logger
	metrics *profiler.Collector

	active      *Tween
	lastElapsed float64
	started     bool // the active tween has been anchored to a frame time
	subID       string
}

// CameraAnimator owns the camera while a tween is in flight. A new request
// replaces the active tween and starts from the current, possibly mid-tween, pose.
type CameraAnimator interface {
	// AnimateTo starts a tween from the current camera pose to the given pose.
	// The tween is anchored to the time of the frame it was requested in.
	//
	// Parameters:
	//   - position: destination camera position
	//   - lookAt: destination look-at point
	//   - duration: tween duration; <= 0 snaps on the next update
	AnimateTo(position, lookAt mgl64.Vec3, duration time.Duration)

	// Update advances the active tween and writes the camera. On completion the
	// camera is snapped to the exact destination, camera:animation-complete is
	// published once and ownership of the camera is released.
	//
	// Parameters:
	//   - info: the current frame
	Update(info common.FrameInfo)

	// Active reports whether a tween currently owns the camera.
	//
	// Returns:
	//   - bool: true while a tween is in flight
	Active() bool

	// Cancel drops the active tween without publishing a completion event.
	Cancel()

	// Tween returns a copy of the active tween.
	//
	// Returns:
	//   - Tween: the active tween
	//   - bool: false when no tween is active
	Tween() (Tween, bool)

	// Close detaches the animator from the frame tick.
	Close()
}

var _ CameraAnimator = &cameraAnimatorImpl{}

// NewCameraAnimator creates an animator writing to cam. With an event bus the
// animator follows frame:tick on its own at eventbus.PriorityAnimator.
//
// Parameters:
//   - cam: the camera to drive
//   - options: functional options to configure the animator
//
// Returns:
//   - CameraAnimator: the newly created animator
func NewCameraAnimator(cam Camera, options ...CameraAnimatorOption) CameraAnimator {
	a := &cameraAnimatorImpl{
		mu:     &sync.Mutex{},
		camera: cam,
		logger: logging.Noop(),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.bus != nil {
		a.subID = a.bus.Subscribe(eventbus.TopicFrameTick, func(evt eventbus.Event) error {
			if info, ok := evt.Payload.(common.FrameInfo); ok {
				a.Update(info)
			}
			return nil
		}, eventbus.WithPriority(eventbus.PriorityAnimator))
	}
	return a
}

func (a *cameraAnimatorImpl) AnimateTo(position, lookAt mgl64.Vec3, duration time.Duration) {
	a.mu.Lock()
	preempted := a.active != nil
	a.active = &Tween{
		StartPosition: a.camera.Position(),
		EndPosition:   position,
		StartLookAt:   a.camera.Target(),
		EndLookAt:     lookAt,
		StartTime:     a.lastElapsed,
		Duration:      duration,
	}
	a.started = false
	a.mu.Unlock()

	if preempted {
		a.logger.Debug(context.Background(), "camera tween preempted")
	}
	a.metrics.SetTweenActive(true)
}

func (a *cameraAnimatorImpl) Update(info common.FrameInfo) {
	a.mu.Lock()
	a.lastElapsed = info.ElapsedTime
	if a.active == nil {
		a.mu.Unlock()
		return
	}
	tw := a.active
	if !a.started {
		// Requests made between frames start counting from the previous frame.
		a.started = true
		if info.ElapsedTime-info.DeltaTime > tw.StartTime {
			tw.StartTime = info.ElapsedTime - info.DeltaTime
		}
	}

	progress := tw.Progress(info.ElapsedTime)
	if progress < 1 {
		pos, look := tw.At(progress)
		a.camera.SetPose(pos, look)
		a.mu.Unlock()
		return
	}

	a.camera.SetPose(tw.EndPosition, tw.EndLookAt)
	a.active = nil
	payload := PosePayload{Position: tw.EndPosition, LookAt: tw.EndLookAt}
	a.mu.Unlock()

	a.metrics.SetTweenActive(false)
	if a.bus != nil {
		a.bus.Publish(eventbus.TopicCameraAnimationComplete, payload)
	}
}

func (a *cameraAnimatorImpl) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active != nil
}

func (a *cameraAnimatorImpl) Cancel() {
	a.mu.Lock()
	wasActive := a.active != nil
	a.active = nil
	a.mu.Unlock()

	if wasActive {
		a.metrics.SetTweenActive(false)
	}
}

func (a *cameraAnimatorImpl) Tween() (Tween, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return Tween{}, false
	}
	return *a.active, true
}

func (a *cameraAnimatorImpl) Close() {
	if a.bus != nil && a.subID != "" {
		a.bus.Unsubscribe(a.subID)
		a.subID = ""
	}
}
