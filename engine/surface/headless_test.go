package surface

import (
	"errors"
	"testing"
)

func TestHeadlessFrameLifecycle(t *testing.T) {
	s := NewHeadless()

	if err := s.BeginFrame(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("BeginFrame before Configure = %v, want ErrNotConfigured", err)
	}
	if err := s.Configure(800, 600); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := s.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := s.BeginFrame(); !errors.Is(err, ErrFrameInProgress) {
		t.Fatalf("second BeginFrame = %v, want ErrFrameInProgress", err)
	}
	if err := s.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	s.Present()
	s.Present()

	if got := s.FramesBegun(); got != 1 {
		t.Errorf("FramesBegun = %d, want 1", got)
	}
	if got := s.FramesPresented(); got != 1 {
		t.Errorf("FramesPresented = %d, want 1", got)
	}
}

func TestHeadlessResize(t *testing.T) {
	s := NewHeadless()
	if err := s.Configure(800, 600); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	_ = s.Resize(0, 300)
	if w, h := s.Size(); w != 800 || h != 600 {
		t.Fatalf("size after invalid resize = %dx%d", w, h)
	}
	_ = s.Resize(1024, 768)
	if w, h := s.Size(); w != 1024 || h != 768 {
		t.Fatalf("size = %dx%d, want 1024x768", w, h)
	}
}

func TestHeadlessLose(t *testing.T) {
	cause := errors.New("device removed")
	s := NewHeadless()
	_ = s.Configure(10, 10)
	s.Lose(cause)

	err := s.BeginFrame()
	if !errors.Is(err, ErrSurfaceLost) || !errors.Is(err, cause) {
		t.Fatalf("BeginFrame after Lose = %v", err)
	}
}

func TestHeadlessConfigureError(t *testing.T) {
	boom := errors.New("no adapter")
	s := NewHeadless(WithConfigureError(boom))
	if err := s.Configure(10, 10); !errors.Is(err, boom) {
		t.Fatalf("Configure = %v, want wrapped %v", err, boom)
	}
	if err := NewHeadless().Configure(0, 10); err == nil {
		t.Fatal("Configure with zero width must fail")
	}
}
