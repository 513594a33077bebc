package surface

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

type headlessSurface struct {
	mu *sync.Mutex

	width      int
	height     int
	configured bool
	inFrame    bool
	clearColor common.Color

	lostErr      error
	configureErr error

	framesBegun     uint64
	framesPresented uint64
	released        bool
}

// Headless is an in-memory Surface for tests and servers without a display.
// It tracks the frame lifecycle and can simulate a lost drawable.
type Headless interface {
	Surface

	// Lose makes every following BeginFrame fail with ErrSurfaceLost wrapping err.
	//
	// Parameters:
	//   - err: the cause reported alongside ErrSurfaceLost, may be nil
	Lose(err error)

	// FramesBegun returns how many frames were successfully begun.
	FramesBegun() uint64

	// FramesPresented returns how many frames were presented.
	FramesPresented() uint64

	// ClearColor returns the current clear color.
	ClearColor() common.Color

	// Released reports whether Release was called.
	Released() bool
}

var _ Headless = &headlessSurface{}

// HeadlessOption configures a headless surface.
type HeadlessOption func(*headlessSurface)

// WithConfigureError makes Configure fail with err.
func WithConfigureError(err error) HeadlessOption {
	return func(h *headlessSurface) {
		h.configureErr = err
	}
}

// NewHeadless creates an unconfigured headless surface.
//
// Parameters:
//   - options: functional options for the surface
//
// Returns:
//   - Headless: the surface
func NewHeadless(options ...HeadlessOption) Headless {
	h := &headlessSurface{
		mu:         &sync.Mutex{},
		clearColor: common.Color{A: 1},
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

func (h *headlessSurface) Configure(width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.configureErr != nil {
		return fmt.Errorf("configure headless surface: %w", h.configureErr)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("configure headless surface: invalid size %dx%d", width, height)
	}
	h.width, h.height = width, height
	h.configured = true
	return nil
}

func (h *headlessSurface) Resize(width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if width <= 0 || height <= 0 {
		return nil
	}
	h.width, h.height = width, height
	return nil
}

func (h *headlessSurface) BeginFrame() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.lostErr != nil:
		return h.lostErr
	case !h.configured:
		return ErrNotConfigured
	case h.inFrame:
		return ErrFrameInProgress
	}
	h.inFrame = true
	h.framesBegun++
	return nil
}

func (h *headlessSurface) EndFrame() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inFrame {
		return fmt.Errorf("end frame: no frame in progress")
	}
	return nil
}

func (h *headlessSurface) Present() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inFrame {
		return
	}
	h.inFrame = false
	h.framesPresented++
}

func (h *headlessSurface) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

func (h *headlessSurface) SetClearColor(c common.Color) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearColor = c
}

func (h *headlessSurface) ClearColor() common.Color {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clearColor
}

func (h *headlessSurface) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
	h.configured = false
	h.inFrame = false
}

func (h *headlessSurface) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

func (h *headlessSurface) Lose(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		h.lostErr = ErrSurfaceLost
		return
	}
	h.lostErr = fmt.Errorf("%w: %w", ErrSurfaceLost, err)
}

func (h *headlessSurface) FramesBegun() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.framesBegun
}

func (h *headlessSurface) FramesPresented() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.framesPresented
}
