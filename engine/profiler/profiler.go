package profiler

import (
	"context"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
)

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Stats are logged through the engine logger at a configurable interval and,
// when a Collector is attached, the measured FPS is exported as a gauge.
type Profiler struct {
	logger    logging.Logger
	collector *Collector

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	lastFPS float64
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithLogger sets the logger the profiler reports through.
func WithLogger(l logging.Logger) ProfilerOption {
	return func(p *Profiler) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithCollector attaches a Prometheus collector that receives the measured FPS.
func WithCollector(c *Collector) ProfilerOption {
	return func(p *Profiler) {
		p.collector = c
	}
}

// WithUpdateInterval sets how often stats are reported. Values <= 0 keep the 1 second default.
func WithUpdateInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:         logging.Noop(),
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Tick should be called once per frame with the frame timestamp.
// The first call only establishes the baseline. Once the update interval has
// elapsed the FPS, heap usage, allocation rate and GC pauses are reported.
//
// Parameters:
//   - now: the timestamp of the current frame
//
// Returns:
//   - bool: true if stats were reported this tick, false otherwise
func (p *Profiler) Tick(now time.Time) bool {
	if p.lastTime.IsZero() {
		p.lastTime = now
		return false
	}

	p.frameCount++
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	p.lastFPS = fps

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logger.Info(context.Background(), "frame stats",
		logging.Float("fps", fps),
		logging.Float("heap_mb", allocMB),
		logging.Float("alloc_rate_mb_s", allocRateMB),
		logging.Any("gc_count", gcCount),
		logging.Any("gc_last_pause_us", lastPauseUs),
		logging.Any("gc_max_pause_us", maxPauseUs),
		logging.Float("sys_mb", sysMB),
	)
	p.collector.SetFPS(fps)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// FPS returns the frame rate measured at the last report, or 0 before the first report.
func (p *Profiler) FPS() float64 {
	return p.lastFPS
}
