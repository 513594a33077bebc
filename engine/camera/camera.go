package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

type cameraImpl struct {
	mu *sync.Mutex

	position mgl64.Vec3
	target   mgl64.Vec3
	up       mgl64.Vec3

	fov    float64
	aspect float64
	near   float64
	far    float64

	viewMatrix                  mgl64.Mat4
	projectionMatrix            mgl64.Mat4
	viewProjectionMatrix        mgl64.Mat4
	inverseViewProjectionMatrix mgl64.Mat4
}

// Camera holds the viewport state of the globe: the camera pose, the
// perspective parameters and the matrices derived from them.
// The Engine owns the Camera; the OrbitController and the CameraAnimator are
// the only components that write its pose.
type Camera interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl64.Vec3: the camera position
	Position() mgl64.Vec3

	// Target returns the world-space look-at point.
	//
	// Returns:
	//   - mgl64.Vec3: the look-at point
	Target() mgl64.Vec3

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - mgl64.Vec3: the up vector
	Up() mgl64.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float64: field of view in radians
	Fov() float64

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float64: the aspect ratio
	Aspect() float64

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float64: near plane distance
	Near() float64

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float64: far plane distance
	Far() float64

	// ViewMatrix returns the current view matrix.
	//
	// Returns:
	//   - mgl64.Mat4: the view matrix
	ViewMatrix() mgl64.Mat4

	// ProjectionMatrix returns the current perspective projection matrix.
	//
	// Returns:
	//   - mgl64.Mat4: the projection matrix
	ProjectionMatrix() mgl64.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - mgl64.Mat4: the combined view-projection matrix
	ViewProjectionMatrix() mgl64.Mat4

	// SetPose sets position and look-at target together and recomputes the matrices once.
	//
	// Parameters:
	//   - position: world-space camera position
	//   - target: world-space look-at point
	SetPose(position, target mgl64.Vec3)

	// SetPosition sets the camera position, keeping the target.
	//
	// Parameters:
	//   - position: world-space camera position
	SetPosition(position mgl64.Vec3)

	// SetTarget sets the look-at point, keeping the position.
	//
	// Parameters:
	//   - target: world-space look-at point
	SetTarget(target mgl64.Vec3)

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - up: the up vector
	SetUp(up mgl64.Vec3)

	// SetFov sets the field of view in radians.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float64)

	// SetAspect sets the aspect ratio. Non-positive or non-finite values are ignored.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float64)

	// SetNear sets the near clipping plane distance.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float64)

	// SetFar sets the far clipping plane distance.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float64)

	// Ray builds a world-space ray through a viewport pixel.
	// The origin lies on the near plane and the direction is normalized.
	//
	// Parameters:
	//   - x, y: pixel position, origin at the top-left corner
	//   - width, height: viewport size in pixels
	//
	// Returns:
	//   - origin: ray origin
	//   - dir: normalized ray direction
	//   - ok: false when the viewport size is degenerate
	Ray(x, y, width, height float64) (origin, dir mgl64.Vec3, ok bool)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings, looking at
// the origin from +Z.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: mgl64.Vec3{0, 0, 300},
		target:   mgl64.Vec3{0, 0, 0},
		up:       mgl64.Vec3{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0),
		aspect:   1.0,
		near:     0.1,
		far:      10000.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() mgl64.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() mgl64.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() mgl64.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl64.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl64.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl64.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) SetPose(position, target mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.target = target
	c.updateMatrices()
}

func (c *cameraImpl) SetPosition(position mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(target mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(up mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float64) {
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) Ray(x, y, width, height float64) (origin, dir mgl64.Vec3, ok bool) {
	if width <= 0 || height <= 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}

	c.mu.Lock()
	inv := c.inverseViewProjectionMatrix
	c.mu.Unlock()

	// Pixel to NDC, flipping Y.
	ndcX := (2.0*x)/width - 1.0
	ndcY := 1.0 - (2.0*y)/height

	nearWorld := inv.Mul4x1(mgl64.Vec4{ndcX, ndcY, -1.0, 1.0})
	farWorld := inv.Mul4x1(mgl64.Vec4{ndcX, ndcY, 1.0, 1.0})
	if nearWorld[3] == 0 || farWorld[3] == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	nearWorld = nearWorld.Mul(1.0 / nearWorld[3])
	farWorld = farWorld.Mul(1.0 / farWorld[3])

	origin = nearWorld.Vec3()
	d := farWorld.Vec3().Sub(origin)
	if d.Len() == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	return origin, d.Normalize(), true
}

// updateMatrices recalculates the view, projection, view-projection and inverse view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = mgl64.LookAtV(c.position, c.target, c.up)
	c.projectionMatrix = mgl64.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.inverseViewProjectionMatrix = c.viewProjectionMatrix.Inv()
}
