package profiler

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of the globe engine. Every method
// is safe to call on a nil *Collector so components can record unconditionally.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames          prometheus.Counter
	FrameDelta      prometheus.Histogram
	FPS             prometheus.Gauge
	EventsPublished *prometheus.CounterVec
	HandlerFailures *prometheus.CounterVec
	DataRejected    *prometheus.CounterVec
	ActiveTweens    prometheus.Gauge
	AutoRotations   prometheus.Counter
	BridgeClients   prometheus.Gauge
}

// NewCollector registers the engine metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_frames_total",
		Help: "Total number of frames advanced by the render loop.",
	}), "globe_frames_total")
	if err != nil {
		return nil, err
	}

	delta, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "globe_frame_delta_seconds",
		Help:    "Clamped frame delta time in seconds.",
		Buckets: []float64{0.004, 0.008, 0.016, 0.033, 0.05, 0.075, 0.1},
	}), "globe_frame_delta_seconds")
	if err != nil {
		return nil, err
	}

	fps, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_fps",
		Help: "Frames per second measured by the profiler.",
	}), "globe_fps")
	if err != nil {
		return nil, err
	}

	published, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_events_published_total",
		Help: "Events published on the event bus, labeled by topic.",
	}, []string{"topic"}), "globe_events_published_total")
	if err != nil {
		return nil, err
	}

	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_event_handler_failures_total",
		Help: "Event handlers that panicked or returned an error, labeled by topic.",
	}, []string{"topic"}), "globe_event_handler_failures_total")
	if err != nil {
		return nil, err
	}

	rejected, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_data_rejected_total",
		Help: "Input records dropped during validation, labeled by kind.",
	}, []string{"kind"}), "globe_data_rejected_total")
	if err != nil {
		return nil, err
	}

	tweens, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_camera_tweens_active",
		Help: "Whether a camera animation currently owns the camera (0 or 1).",
	}), "globe_camera_tweens_active")
	if err != nil {
		return nil, err
	}

	rotations, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_auto_rotate_started_total",
		Help: "Times auto-rotation resumed after the idle delay.",
	}), "globe_auto_rotate_started_total")
	if err != nil {
		return nil, err
	}

	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_bridge_clients",
		Help: "Currently connected websocket bridge clients.",
	}), "globe_bridge_clients")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		Frames:          frames,
		FrameDelta:      delta,
		FPS:             fps,
		EventsPublished: published,
		HandlerFailures: failures,
		DataRejected:    rejected,
		ActiveTweens:    tweens,
		AutoRotations:   rotations,
		BridgeClients:   clients,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ObserveFrame records one advanced frame and its delta in seconds.
func (c *Collector) ObserveFrame(deltaSeconds float64) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.FrameDelta.Observe(deltaSeconds)
}

// SetFPS exports the measured frame rate.
func (c *Collector) SetFPS(fps float64) {
	if c == nil {
		return
	}
	c.FPS.Set(fps)
}

// EventPublished counts a publish on the given topic.
func (c *Collector) EventPublished(topic string) {
	if c == nil {
		return
	}
	c.EventsPublished.WithLabelValues(topic).Inc()
}

// HandlerFailed counts a handler failure on the given topic.
func (c *Collector) HandlerFailed(topic string) {
	if c == nil {
		return
	}
	c.HandlerFailures.WithLabelValues(topic).Inc()
}

// Rejected counts n dropped records of the given kind.
func (c *Collector) Rejected(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.DataRejected.WithLabelValues(kind).Add(float64(n))
}

// SetTweenActive reports whether a camera animation is running.
func (c *Collector) SetTweenActive(active bool) {
	if c == nil {
		return
	}
	if active {
		c.ActiveTweens.Set(1)
		return
	}
	c.ActiveTweens.Set(0)
}

// AutoRotateStarted counts an idle-triggered auto-rotation.
func (c *Collector) AutoRotateStarted() {
	if c == nil {
		return
	}
	c.AutoRotations.Inc()
}

// SetBridgeClients exports the number of connected bridge clients.
func (c *Collector) SetBridgeClients(n int) {
	if c == nil {
		return
	}
	c.BridgeClients.Set(float64(n))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
