package camera

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/clock"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
)

const eps = 1e-9

func closeTo(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

type recorder struct {
	events []eventbus.Event
}

func (r *recorder) listen(bus eventbus.EventBus, topics ...string) {
	for _, topic := range topics {
		bus.Subscribe(topic, func(evt eventbus.Event) error {
			r.events = append(r.events, evt)
			return nil
		})
	}
}

func (r *recorder) count(topic string) int {
	n := 0
	for _, e := range r.events {
		if e.Topic == topic {
			n++
		}
	}
	return n
}

func (r *recorder) topics() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Topic)
	}
	return out
}

type fixture struct {
	clock     *clock.FakeClock
	scheduler clock.Scheduler
	bus       eventbus.EventBus
	camera    Camera
	animator  CameraAnimator
	rec       *recorder
}

func newFixture() *fixture {
	fc := clock.NewFakeClock(time.Unix(0, 0))
	f := &fixture{
		clock:     fc,
		scheduler: clock.NewScheduler(fc),
		bus:       eventbus.NewEventBus(),
		camera:    NewCamera(WithPose(mgl64.Vec3{0, 0, 300}, mgl64.Vec3{})),
		rec:       &recorder{},
	}
	f.animator = NewCameraAnimator(f.camera, WithAnimatorEventBus(f.bus))
	f.rec.listen(f.bus,
		eventbus.TopicInteractionStart, eventbus.TopicInteractionEnd,
		eventbus.TopicPointerClick, eventbus.TopicPointerMove, eventbus.TopicPointerLeave,
		eventbus.TopicAutoRotateStarted, eventbus.TopicAutoRotateStopped,
		eventbus.TopicViewReset, eventbus.TopicViewFullscreenToggle,
		eventbus.TopicCameraAnimationComplete,
	)
	return f
}

func (f *fixture) controller(options ...CameraControllerOption) OrbitController {
	base := []CameraControllerOption{
		WithEventBus(f.bus),
		WithScheduler(f.scheduler),
		WithAnimator(f.animator),
	}
	return NewOrbitController(f.camera, append(base, options...)...)
}

func TestClassifyGesture(t *testing.T) {
	cases := []struct {
		name     string
		movement float64
		duration time.Duration
		want     Gesture
	}{
		{"small and quick", 3, 150 * time.Millisecond, GestureClick},
		{"moved too far", 10, 150 * time.Millisecond, GestureDrag},
		{"held too long", 3, 250 * time.Millisecond, GestureDrag},
		{"at movement threshold", 5, 10 * time.Millisecond, GestureDrag},
		{"at duration threshold", 0, 200 * time.Millisecond, GestureDrag},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyGesture(tc.movement, tc.duration); got != tc.want {
				t.Fatalf("ClassifyGesture(%v, %v) = %v, want %v", tc.movement, tc.duration, got, tc.want)
			}
		})
	}
}

func TestCamera_RayThroughCenter(t *testing.T) {
	cam := NewCamera(WithPose(mgl64.Vec3{0, 0, 300}, mgl64.Vec3{}), WithAspect(800.0/600.0))
	origin, dir, ok := cam.Ray(400, 300, 800, 600)
	if !ok {
		t.Fatal("expected a valid ray")
	}
	if !closeTo(dir, mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("dir = %v, want (0,0,-1)", dir)
	}
	if math.Abs(origin[2]-(300-cam.Near())) > 1e-6 {
		t.Errorf("origin = %v, want on the near plane", origin)
	}
	if _, _, ok := cam.Ray(0, 0, 0, 600); ok {
		t.Error("degenerate viewport must not produce a ray")
	}
}

func TestCamera_SetAspectIgnoresInvalid(t *testing.T) {
	cam := NewCamera(WithAspect(2))
	cam.SetAspect(0)
	cam.SetAspect(math.NaN())
	cam.SetAspect(-1)
	if cam.Aspect() != 2 {
		t.Fatalf("aspect = %v, want 2", cam.Aspect())
	}
}

func TestTween_EaseOutCubic(t *testing.T) {
	tw := Tween{
		StartPosition: mgl64.Vec3{0, 0, 0},
		EndPosition:   mgl64.Vec3{8, 0, 0},
		Duration:      time.Second,
	}
	pos, _ := tw.At(0.5)
	if math.Abs(pos[0]-7) > eps {
		t.Fatalf("eased midpoint x = %v, want 7 (1-(0.5)^3 = 0.875)", pos[0])
	}
	if p := tw.Progress(2); p != 1 {
		t.Fatalf("progress past the end = %v, want 1", p)
	}
	if p := (Tween{}).Progress(0); p != 1 {
		t.Fatalf("zero-duration progress = %v, want 1", p)
	}
}

func runFrames(a CameraAnimator, start *common.FrameInfo, dt float64, max int) {
	for i := 0; i < max && a.Active(); i++ {
		start.Frame++
		start.DeltaTime = dt
		start.ElapsedTime += dt
		a.Update(*start)
	}
}

func TestAnimator_PreemptionStartsFromCurrentPoseAndCompletesOnce(t *testing.T) {
	f := newFixture()
	a := f.animator
	info := common.FrameInfo{}

	a.AnimateTo(mgl64.Vec3{300, 0, 0}, mgl64.Vec3{}, time.Second)
	for i := 0; i < 4; i++ {
		info.Frame++
		info.DeltaTime = 0.1
		info.ElapsedTime += 0.1
		a.Update(info)
	}
	mid := f.camera.Position()
	if mid.ApproxEqualThreshold(mgl64.Vec3{0, 0, 300}, 1e-6) || mid.ApproxEqualThreshold(mgl64.Vec3{300, 0, 0}, 1e-6) {
		t.Fatalf("camera should be mid-tween, got %v", mid)
	}

	dest := mgl64.Vec3{0, 250, 100}
	a.AnimateTo(dest, mgl64.Vec3{1, 2, 3}, 500*time.Millisecond)
	tw, ok := a.Tween()
	if !ok {
		t.Fatal("expected an active tween")
	}
	if tw.StartPosition != mid {
		t.Fatalf("preempting tween starts at %v, want current pose %v", tw.StartPosition, mid)
	}

	runFrames(a, &info, 0.1, 100)
	if a.Active() {
		t.Fatal("tween did not finish")
	}
	if got := f.camera.Position(); got != dest {
		t.Fatalf("final position = %v, want exact %v", got, dest)
	}
	if got := f.camera.Target(); got != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("final look-at = %v", got)
	}

	// Further frames must not publish again.
	runFrames(a, &info, 0.1, 5)
	a.Update(common.FrameInfo{Frame: 99, DeltaTime: 0.1, ElapsedTime: 99})
	if n := f.rec.count(eventbus.TopicCameraAnimationComplete); n != 1 {
		t.Fatalf("animation-complete published %d times, want 1", n)
	}
}

func TestAnimator_CancelDropsWithoutEvent(t *testing.T) {
	f := newFixture()
	f.animator.AnimateTo(mgl64.Vec3{300, 0, 0}, mgl64.Vec3{}, time.Second)
	f.animator.Cancel()
	f.animator.Update(common.FrameInfo{Frame: 1, DeltaTime: 2, ElapsedTime: 2})
	if f.rec.count(eventbus.TopicCameraAnimationComplete) != 0 {
		t.Fatal("cancelled tween must not complete")
	}
	if f.camera.Position() != (mgl64.Vec3{0, 0, 300}) {
		t.Fatalf("cancelled tween moved the camera to %v", f.camera.Position())
	}
}

func TestAnimator_FollowsFrameTick(t *testing.T) {
	f := newFixture()
	f.animator.AnimateTo(mgl64.Vec3{0, 0, 200}, mgl64.Vec3{}, 0)
	f.bus.Publish(eventbus.TopicFrameTick, common.FrameInfo{Frame: 1, DeltaTime: 0.016, ElapsedTime: 0.016})
	if f.camera.Position() != (mgl64.Vec3{0, 0, 200}) {
		t.Fatalf("zero-duration tween should snap on the next tick, got %v", f.camera.Position())
	}
	f.animator.Close()
}

func TestController_ClampsDistanceAndPolar(t *testing.T) {
	f := newFixture()
	f.camera.SetPose(mgl64.Vec3{0, 0, 1000}, mgl64.Vec3{})
	oc := f.controller(WithDistanceLimits(110, 600), WithAutoRotate(false))
	if d := f.camera.Position().Len(); math.Abs(d-600) > 1e-6 {
		t.Fatalf("distance = %v, want clamped to 600", d)
	}

	// Drag far enough to push past the pole.
	oc.PointerDown(0, 0)
	oc.PointerMove(0, 5000)
	oc.PointerUp(0, 5000)
	for i := 0; i < 300; i++ {
		oc.Update(common.FrameInfo{Frame: uint64(i + 1), DeltaTime: 1.0 / 60})
	}
	if p := oc.Polar(); p < 0.1-1e-9 || p > math.Pi-0.1+1e-9 {
		t.Fatalf("polar = %v, outside the clamp", p)
	}
	if math.Abs(oc.Polar()-0.1) > 1e-6 {
		t.Fatalf("polar = %v, want pinned at the min 0.1", oc.Polar())
	}

	oc.Scroll(-1000)
	for i := 0; i < 300; i++ {
		oc.Update(common.FrameInfo{DeltaTime: 1.0 / 60})
	}
	if d := oc.Distance(); math.Abs(d-600) > 1e-6 {
		t.Fatalf("distance after zooming out = %v, want 600", d)
	}
}

func TestController_DampingIsFrameRateIndependent(t *testing.T) {
	drag := func(oc OrbitController) {
		oc.PointerDown(100, 100)
		oc.PointerMove(140, 100)
		oc.PointerUp(140, 100)
	}

	fa := newFixture()
	a := fa.controller(WithAutoRotate(false), WithDampingFactor(0.2))
	drag(a)
	a.Update(common.FrameInfo{DeltaTime: 2.0 / 60})

	fb := newFixture()
	b := fb.controller(WithAutoRotate(false), WithDampingFactor(0.2))
	drag(b)
	b.Update(common.FrameInfo{DeltaTime: 1.0 / 60})
	b.Update(common.FrameInfo{DeltaTime: 1.0 / 60})

	if math.Abs(a.Azimuth()-b.Azimuth()) > 1e-9 {
		t.Fatalf("azimuth differs between frame rates: %v vs %v", a.Azimuth(), b.Azimuth())
	}
	if a.Azimuth() >= 0 {
		t.Fatalf("dragging right should orbit toward negative azimuth, got %v", a.Azimuth())
	}

	for i := 0; i < 600; i++ {
		a.Update(common.FrameInfo{DeltaTime: 1.0 / 60})
	}
	// 40px at 0.005 rad/px
	if math.Abs(a.Azimuth()-(-0.2)) > 1e-5 {
		t.Fatalf("azimuth converged to %v, want -0.2", a.Azimuth())
	}
}

func TestController_ClickAndDragEvents(t *testing.T) {
	f := newFixture()
	oc := f.controller(WithAutoRotate(false))

	oc.PointerDown(10, 10)
	f.clock.Advance(100 * time.Millisecond)
	oc.PointerMove(12, 11)
	if g := oc.PointerUp(12, 11); g != GestureClick {
		t.Fatalf("gesture = %v, want click", g)
	}
	want := []string{eventbus.TopicInteractionStart, eventbus.TopicInteractionEnd, eventbus.TopicPointerClick}
	if got := f.rec.topics(); len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("events = %v, want %v", got, want)
	}
	click := f.rec.events[2].Payload.(PointerPayload)
	if click.X != 12 || click.Y != 11 {
		t.Fatalf("click payload = %+v", click)
	}

	oc.PointerDown(10, 10)
	oc.PointerMove(20, 10)
	if !oc.Dragging() {
		t.Fatal("10px of movement should be a drag")
	}
	if g := oc.PointerUp(20, 10); g != GestureDrag {
		t.Fatalf("gesture = %v, want drag", g)
	}
	if n := f.rec.count(eventbus.TopicPointerClick); n != 1 {
		t.Fatalf("a drag must not publish pointer:click (got %d clicks)", n)
	}

	oc.PointerMove(50, 50)
	if n := f.rec.count(eventbus.TopicPointerMove); n != 1 {
		t.Fatalf("hover move should publish pointer:move once, got %d", n)
	}
	if g := oc.PointerUp(0, 0); g != GestureNone {
		t.Fatalf("release without press = %v, want none", g)
	}
}

func TestController_IdleTimerRace(t *testing.T) {
	f := newFixture()
	oc := f.controller(WithAutoRotate(true), WithIdleDelay(3*time.Second))

	oc.PointerDown(0, 0)
	oc.PointerUp(0, 0)
	f.clock.Advance(3 * time.Second)
	// A new interaction in the same tick, before the scheduler drains.
	oc.PointerDown(0, 0)
	f.scheduler.RunDue()
	if n := f.rec.count(eventbus.TopicAutoRotateStarted); n != 0 {
		t.Fatalf("auto-rotate:started published %d times, want 0", n)
	}
	if oc.AutoRotating() {
		t.Fatal("must not auto-rotate while interacting")
	}

	oc.PointerUp(0, 0)
	oc.Scroll(1) // rescheduling twice must still fire once
	f.clock.Advance(3 * time.Second)
	f.scheduler.RunDue()
	f.clock.Advance(10 * time.Second)
	f.scheduler.RunDue()
	if n := f.rec.count(eventbus.TopicAutoRotateStarted); n != 1 {
		t.Fatalf("auto-rotate:started published %d times, want 1", n)
	}
	if !oc.AutoRotating() {
		t.Fatal("expected auto-rotation after the idle delay")
	}

	before := oc.Azimuth()
	oc.Update(common.FrameInfo{DeltaTime: 0.5})
	if oc.Azimuth() <= before {
		t.Fatal("auto-rotation should advance the azimuth")
	}
}

func TestController_KeyboardIgnoredInTextInput(t *testing.T) {
	f := newFixture()
	oc := f.controller(WithAutoRotate(false), WithDefaultPose(mgl64.Vec3{0, 0, 300}, mgl64.Vec3{}))

	oc.SetTextInputFocused(true)
	for _, key := range []uint32{common.KeyR, common.KeySpace, common.KeyF, common.KeyEsc, common.KeyLeft} {
		if a := oc.KeyDown(key); a != ActionNone {
			t.Fatalf("key %d in text input = %v, want none", key, a)
		}
	}
	if len(f.rec.events) != 0 {
		t.Fatalf("no events expected while typing, got %v", f.rec.topics())
	}

	oc.SetTextInputFocused(false)
	if a := oc.KeyDown(common.KeyF); a != ActionToggleFullscreen {
		t.Fatalf("F = %v", a)
	}
	if a := oc.KeyDown(common.KeySpace); a != ActionToggleAutoRotate {
		t.Fatalf("Space = %v", a)
	}
	if !oc.AutoRotateEnabled() || f.rec.count(eventbus.TopicAutoRotateStarted) != 1 {
		t.Fatal("Space should enable auto-rotation")
	}
	oc.KeyDown(common.KeySpace)
	if oc.AutoRotateEnabled() || f.rec.count(eventbus.TopicAutoRotateStopped) != 1 {
		t.Fatal("second Space should disable auto-rotation and publish stopped")
	}
	if a := oc.KeyDown(common.KeyEsc); a != ActionCancelInteraction {
		t.Fatalf("Esc = %v", a)
	}
	if a := oc.KeyDown('Q'); a != ActionNone {
		t.Fatalf("unbound key = %v", a)
	}
	if f.rec.count(eventbus.TopicViewFullscreenToggle) != 1 {
		t.Fatal("F should publish view:fullscreen-toggle")
	}
}

func TestController_ResetViewAnimatesAndSkipsDamping(t *testing.T) {
	f := newFixture()
	home := mgl64.Vec3{0, 0, 300}
	oc := f.controller(WithAutoRotate(false), WithDefaultPose(home, mgl64.Vec3{}), WithResetDuration(500*time.Millisecond))

	f.camera.SetPose(mgl64.Vec3{200, 0, 0}, mgl64.Vec3{})
	oc.PointerDown(0, 0)
	oc.PointerMove(100, 0)
	oc.PointerUp(100, 0)

	if a := oc.KeyDown(common.KeyR); a != ActionResetView {
		t.Fatalf("R = %v", a)
	}
	if !f.animator.Active() {
		t.Fatal("reset should delegate to the animator")
	}
	if f.rec.count(eventbus.TopicViewReset) != 1 {
		t.Fatal("reset should publish view:reset")
	}

	// Frames in bus priority order: controller first, animator second.
	info := common.FrameInfo{}
	for i := 0; i < 100 && f.animator.Active(); i++ {
		info.Frame++
		info.DeltaTime = 0.05
		info.ElapsedTime += 0.05
		f.bus.Publish(eventbus.TopicFrameTick, info)
	}
	if got := f.camera.Position(); got != home {
		t.Fatalf("camera = %v, want the default pose %v", got, home)
	}

	// Momentum was cancelled: further frames leave the camera at home.
	for i := 0; i < 10; i++ {
		info.DeltaTime = 0.05
		info.ElapsedTime += 0.05
		f.bus.Publish(eventbus.TopicFrameTick, info)
	}
	if got := f.camera.Position(); !closeTo(got, home, 1e-6) {
		t.Fatalf("camera drifted to %v after reset", got)
	}
}

func TestController_InputDuringTweenIsDropped(t *testing.T) {
	f := newFixture()
	home := mgl64.Vec3{0, 0, 300}
	oc := f.controller(WithAutoRotate(false), WithDefaultPose(home, mgl64.Vec3{}), WithResetDuration(500*time.Millisecond))
	f.camera.SetPose(mgl64.Vec3{200, 0, 0}, mgl64.Vec3{})
	oc.ResetView()

	info := common.FrameInfo{}
	frame := func() {
		info.Frame++
		info.DeltaTime = 0.05
		info.ElapsedTime += 0.05
		f.bus.Publish(eventbus.TopicFrameTick, info)
	}
	frame()
	oc.PointerDown(0, 0)
	oc.PointerMove(150, 40)
	frame()
	oc.PointerUp(300, 80)
	oc.Scroll(5)

	for i := 0; i < 100 && f.animator.Active(); i++ {
		frame()
	}
	if f.animator.Active() {
		t.Fatal("tween never completed")
	}
	for i := 0; i < 10; i++ {
		frame()
	}
	if got := f.camera.Position(); !closeTo(got, home, 1e-6) {
		t.Fatalf("camera = %v, want %v; input made during the tween was replayed", got, home)
	}
}

func TestController_PinchZoom(t *testing.T) {
	f := newFixture()
	oc := f.controller(WithAutoRotate(false), WithDistanceLimits(50, 1000))

	oc.TouchStart([]common.TouchPoint{{ID: 1, X: 100, Y: 100}, {ID: 2, X: 200, Y: 100}})
	if !oc.Interacting() {
		t.Fatal("pinch should start an interaction")
	}
	oc.TouchMove([]common.TouchPoint{{ID: 1, X: 50, Y: 100}, {ID: 2, X: 250, Y: 100}})
	if d := oc.Distance(); math.Abs(d-150) > 1e-6 {
		t.Fatalf("distance = %v, want 150 after doubling the finger spread", d)
	}
	if d := f.camera.Position().Len(); math.Abs(d-150) > 1e-6 {
		t.Fatalf("camera distance = %v, want 150", d)
	}
	oc.TouchEnd([]common.TouchPoint{{ID: 1, X: 50, Y: 100}})
	if g := oc.TouchEnd(nil); g != GesturePinch {
		t.Fatalf("gesture = %v, want pinch", g)
	}
	if oc.Interacting() {
		t.Fatal("lifting every finger ends the interaction")
	}
	if f.rec.count(eventbus.TopicPointerClick) != 0 {
		t.Fatal("a pinch is never a click")
	}
}

func TestController_PointerLeaveEndsDrag(t *testing.T) {
	f := newFixture()
	oc := f.controller(WithAutoRotate(false))
	oc.PointerDown(0, 0)
	oc.PointerMove(30, 0)
	oc.PointerLeave()
	if oc.Interacting() {
		t.Fatal("leaving the viewport ends the interaction")
	}
	if f.rec.count(eventbus.TopicPointerLeave) != 1 || f.rec.count(eventbus.TopicInteractionEnd) != 1 {
		t.Fatalf("events = %v", f.rec.topics())
	}
}
