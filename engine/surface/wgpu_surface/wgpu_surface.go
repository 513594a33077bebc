// Package wgpu_surface implements surface.Surface on top of WebGPU.
package wgpu_surface

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/surface"
)

type wgpuSurfaceImpl struct {
	mu     *sync.Mutex
	logger logging.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	clearColor    wgpu.Color
	width         int
	height        int
	configured    bool

	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
}

var _ surface.Surface = &wgpuSurfaceImpl{}

// Option configures the WebGPU surface before the device is requested.
type Option func(*wgpuSurfaceImpl)

// WithPresentMode sets the frame pacing. The default is PresentModeVSync.
func WithPresentMode(mode surface.PresentMode) Option {
	return func(s *wgpuSurfaceImpl) {
		switch mode {
		case surface.PresentModeUncapped:
			s.presentMode = wgpu.PresentModeImmediate
		default:
			s.presentMode = wgpu.PresentModeFifo
		}
	}
}

// WithClearColor sets the initial background color.
func WithClearColor(c common.Color) Option {
	return func(s *wgpuSurfaceImpl) {
		s.clearColor = toWGPUColor(c)
	}
}

// WithLogger sets the surface logger.
func WithLogger(l logging.Logger) Option {
	return func(s *wgpuSurfaceImpl) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a WebGPU instance, adapter and device bound to the given native surface.
// The OS thread is locked because the window system requires it.
//
// Parameters:
//   - descriptor: the platform surface descriptor, typically from window.Window.SurfaceDescriptor
//   - forceFallbackAdapter: request a software adapter
//   - options: functional options for the surface
//
// Returns:
//   - surface.Surface: the surface, still to be configured
//   - error: error if the descriptor is nil or no adapter or device could be obtained
func New(descriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, options ...Option) (surface.Surface, error) {
	if descriptor == nil {
		return nil, errors.New("wgpu surface: nil surface descriptor")
	}
	runtime.LockOSThread()

	s := &wgpuSurfaceImpl{
		mu:          &sync.Mutex{},
		logger:      logging.Noop(),
		presentMode: wgpu.PresentModeFifo,
		clearColor:  wgpu.Color{R: 0.02, G: 0.03, B: 0.06, A: 1.0},
	}
	for _, opt := range options {
		opt(s)
	}

	s.instance = wgpu.CreateInstance(nil)
	s.surface = s.instance.CreateSurface(descriptor)

	a, err := s.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    s.surface,
	})
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("wgpu surface: request adapter: %w", err)
	}
	s.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Globe Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("wgpu surface: request device: %w", err)
	}
	s.device = d
	s.queue = d.GetQueue()

	return s, nil
}

func (s *wgpuSurfaceImpl) Configure(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configure(width, height)
}

func (s *wgpuSurfaceImpl) configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu surface: invalid size %dx%d", width, height)
	}
	if s.surface == nil || s.device == nil {
		return fmt.Errorf("wgpu surface: %w", surface.ErrSurfaceLost)
	}

	capabilities := s.surface.GetCapabilities(s.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return errors.New("wgpu surface: adapter reports no compatible formats")
	}
	s.surfaceFormat = capabilities.Formats[0]

	s.surface.Configure(s.adapter, s.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      s.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: s.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	s.width, s.height = width, height
	s.configured = true
	return nil
}

func (s *wgpuSurfaceImpl) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width <= 0 || height <= 0 || (width == s.width && height == s.height) {
		return nil
	}
	return s.configure(width, height)
}

func (s *wgpuSurfaceImpl) BeginFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.configured {
		return surface.ErrNotConfigured
	}
	// A held texture means the last frame was never presented; acquiring again
	// makes wgpu-native fail with "Surface image is already acquired".
	if s.frameSurface != nil {
		return surface.ErrFrameInProgress
	}

	surfaceTexture, err := s.surface.GetCurrentTexture()
	if err != nil {
		s.logger.Error(context.Background(), "acquire surface texture", logging.Err(err))
		return fmt.Errorf("%w: %w", surface.ErrSurfaceLost, err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("wgpu surface: create view: %w", err)
	}

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("wgpu surface: create encoder: %w", err)
	}

	s.framePass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: s.clearColor,
			},
		},
	})
	s.frameEncoder = encoder
	s.frameSurface = surfaceTexture
	s.frameView = view
	return nil
}

func (s *wgpuSurfaceImpl) EndFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frameEncoder == nil {
		return errors.New("wgpu surface: end frame without begin")
	}
	s.framePass.End()
	s.framePass = nil

	commandBuffer, err := s.frameEncoder.Finish(nil)
	s.frameEncoder.Release()
	s.frameEncoder = nil
	if err != nil {
		s.releaseFrame()
		return fmt.Errorf("wgpu surface: finish encoder: %w", err)
	}

	s.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (s *wgpuSurfaceImpl) Present() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frameSurface == nil {
		return
	}
	s.surface.Present()
	s.releaseFrame()
}

// releaseFrame drops the per-frame texture references. Callers hold mu.
func (s *wgpuSurfaceImpl) releaseFrame() {
	if s.frameView != nil {
		s.frameView.Release()
		s.frameView = nil
	}
	if s.frameSurface != nil {
		s.frameSurface.Release()
		s.frameSurface = nil
	}
}

func (s *wgpuSurfaceImpl) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *wgpuSurfaceImpl) SetClearColor(c common.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearColor = toWGPUColor(c)
}

func (s *wgpuSurfaceImpl) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frameEncoder != nil {
		s.frameEncoder.Release()
		s.frameEncoder = nil
	}
	s.framePass = nil
	s.releaseFrame()

	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
	if s.adapter != nil {
		s.adapter.Release()
		s.adapter = nil
	}
	if s.surface != nil {
		s.surface.Release()
		s.surface = nil
	}
	if s.instance != nil {
		s.instance.Release()
		s.instance = nil
	}
	s.configured = false
}

func toWGPUColor(c common.Color) wgpu.Color {
	return wgpu.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
