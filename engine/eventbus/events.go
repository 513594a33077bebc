package eventbus

// Topics published by the engine and its components.
const (
	// TopicAll subscribes a handler to every topic. It is never published directly.
	TopicAll = "*"

	TopicFrameTick = "frame:tick"

	TopicRegionHovered  = "region:hovered"
	TopicRegionHoverEnd = "region:hover-end"
	TopicRegionClicked  = "region:clicked"
	TopicRegionNoData   = "region:no-data"
	TopicRegionFocused  = "region:focused"

	TopicViewReset            = "view:reset"
	TopicViewFullscreenToggle = "view:fullscreen-toggle"

	TopicCameraAnimationComplete = "camera:animation-complete"

	TopicInteractionStart = "interaction:start"
	TopicInteractionEnd   = "interaction:end"

	TopicAutoRotateStarted = "auto-rotate:started"
	TopicAutoRotateStopped = "auto-rotate:stopped"

	TopicPointerClick = "pointer:click"
	TopicPointerMove  = "pointer:move"
	TopicPointerLeave = "pointer:leave"
)

// Frame tick priorities. Higher priorities run first, so the controller damps
// before the animator overwrites the camera and the globe reads the final pose.
const (
	PriorityOrbit    = 300
	PriorityAnimator = 200
	PriorityGlobe    = 100
	PriorityObserver = 0
)
