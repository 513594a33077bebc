package game_object

import "github.com/go-gl/mathgl/mgl64"

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject. Pick results with equal distance are ordered by ID.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithName sets the display name of the GameObject.
func WithName(name string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.name = name
	}
}

// WithEnabled sets whether the GameObject takes part in picking.
//
// Parameters:
//   - enabled: true to pick the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithSphere sets the pick sphere of the GameObject.
//
// Parameters:
//   - center: world-space center
//   - radius: sphere radius
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the pick shape
func WithSphere(center mgl64.Vec3, radius float64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.center = center
		obj.radius = radius
	}
}

// WithUserData attaches an arbitrary value, typically the domain record the object stands for.
func WithUserData(data any) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.userData = data
	}
}
