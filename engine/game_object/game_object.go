package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

type gameObject struct {
	mu *sync.Mutex

	id       uint64
	name     string
	enabled  atomic.Bool
	center   mgl64.Vec3
	radius   float64
	userData any
}

// GameObject is a pickable entity in the globe scene. Its pick shape is a
// sphere, which covers the globe itself as well as markers.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Name returns the object's display name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Enabled returns whether this object takes part in picking.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Center returns the world-space center of the pick sphere.
	//
	// Returns:
	//   - mgl64.Vec3: the center
	Center() mgl64.Vec3

	// Radius returns the radius of the pick sphere.
	//
	// Returns:
	//   - float64: the radius
	Radius() float64

	// UserData returns the value attached with WithUserData, or nil.
	UserData() any

	// Intersect tests a world-space ray against the pick sphere.
	//
	// Parameters:
	//   - origin: ray origin
	//   - dir: normalized ray direction
	//
	// Returns:
	//   - float64: distance along the ray to the nearest hit
	//   - bool: true if the ray hits the object
	Intersect(origin, dir mgl64.Vec3) (float64, bool)

	// SetEnabled sets whether the object takes part in picking.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCenter moves the pick sphere.
	//
	// Parameters:
	//   - center: the new world-space center
	SetCenter(center mgl64.Vec3)

	// SetRadius resizes the pick sphere.
	//
	// Parameters:
	//   - radius: the new radius
	SetRadius(radius float64)
}

// Hit is a single pick result.
type Hit struct {
	Object   GameObject
	Point    mgl64.Vec3
	Distance float64
}

var _ GameObject = &gameObject{}

// objectCount generates IDs for objects created without WithID.
var objectCount atomic.Uint64

// NewGameObject creates a new GameObject configured with the given options.
// Objects are enabled by default with a unit sphere at the origin.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		mu:     &sync.Mutex{},
		id:     objectCount.Add(1),
		radius: 1,
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) UserData() any {
	return g.userData
}

func (g *gameObject) Center() mgl64.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.center
}

func (g *gameObject) Radius() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.radius
}

func (g *gameObject) Intersect(origin, dir mgl64.Vec3) (float64, bool) {
	g.mu.Lock()
	center, radius := g.center, g.radius
	g.mu.Unlock()
	if radius <= 0 {
		return 0, false
	}
	return common.RaySphereIntersect(origin, dir, center, radius)
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetCenter(center mgl64.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.center = center
}

func (g *gameObject) SetRadius(radius float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.radius = radius
}
