// Command globe opens a window with the interactive globe, serves Prometheus
// metrics and forwards globe events to websocket clients.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/config"
	"github.com/Carmen-Shannon/oxy-globe/engine"
	"github.com/Carmen-Shannon/oxy-globe/engine/bridge"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/globe"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
	"github.com/Carmen-Shannon/oxy-globe/engine/surface/wgpu_surface"
	"github.com/Carmen-Shannon/oxy-globe/engine/window"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "globe:", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics, err := profiler.NewCollector(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// window
	win, err := window.NewWindow(
		window.WithTitle(settings.Window.Title),
		window.WithSize(settings.Window.Width, settings.Window.Height),
		window.WithFullscreen(settings.Window.Fullscreen),
	)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}

	surf, err := wgpu_surface.New(win.SurfaceDescriptor(), settings.Surface.ForceFallbackAdapter,
		wgpu_surface.WithPresentMode(settings.Surface.PresentMode),
		wgpu_surface.WithClearColor(settings.Surface.ClearColor),
		wgpu_surface.WithLogger(logger.With(logging.String("component", "surface"))),
	)
	if err != nil {
		_ = win.Close()
		return fmt.Errorf("create surface: %w", err)
	}
	defer surf.Release()

	// engine
	bus := eventbus.NewEventBus(
		eventbus.WithLogger(logger.With(logging.String("component", "eventbus"))),
		eventbus.WithMetrics(metrics),
	)
	start := globe.GeoToCartesian(0, 0, 2, settings.Globe.Radius)
	cam := camera.NewCamera(camera.WithPose(start, mgl64.Vec3{}))
	eng, err := engine.NewEngine(
		engine.WithCamera(cam),
		engine.WithSurface(surf),
		engine.WithSize(win.Width(), win.Height()),
		engine.WithEventBus(bus),
		engine.WithRefreshRate(float64(settings.Surface.RefreshRate)),
		engine.WithLogger(logger.With(logging.String("component", "engine"))),
		engine.WithMetrics(metrics),
		engine.WithProfiler(profiler.NewProfiler(
			profiler.WithLogger(logger.With(logging.String("component", "profiler"))),
			profiler.WithCollector(metrics),
		)),
	)
	if err != nil {
		_ = win.Close()
		return err
	}

	animator := camera.NewCameraAnimator(cam,
		camera.WithAnimatorEventBus(bus),
		camera.WithAnimatorLogger(logger.With(logging.String("component", "animator"))),
		camera.WithAnimatorMetrics(metrics),
	)
	defer animator.Close()
	controller := camera.NewOrbitController(cam,
		camera.WithEventBus(bus),
		camera.WithScheduler(eng.Scheduler()),
		camera.WithAnimator(animator),
		camera.WithAutoRotate(settings.Orbit.AutoRotate),
		camera.WithAutoRotateSpeed(settings.Orbit.AutoRotateSpeed),
		camera.WithIdleDelay(settings.Orbit.IdleDelay),
		camera.WithDistanceLimits(settings.Orbit.MinDistance, settings.Orbit.MaxDistance),
		camera.WithDampingFactor(settings.Orbit.DampingFactor),
		camera.WithLogger(logger.With(logging.String("component", "orbit"))),
		camera.WithMetrics(metrics),
	)
	defer controller.Close()

	records := globe.NewMapRecordSource(nil)
	g := globe.NewGlobe(
		globe.WithRadius(settings.Globe.Radius),
		globe.WithEncoding(settings.Encoding()),
		globe.WithFocus(settings.Globe.FocusDistance, settings.Globe.FocusDuration),
		globe.WithPicker(eng),
		globe.WithAnimator(animator),
		globe.WithRecordSource(records),
		globe.WithInteractionSource(controller),
		globe.WithEventBus(bus),
		globe.WithEncodeWorkers(settings.Globe.EncodeWorkers),
		globe.WithLogger(logger.With(logging.String("component", "globe"))),
		globe.WithMetrics(metrics),
	)
	defer g.Close()

	if err := loadData(settings.Data, g, records, logger); err != nil {
		_ = win.Close()
		return err
	}

	// input
	win.SetPointerDownCallback(controller.PointerDown)
	win.SetPointerMoveCallback(controller.PointerMove)
	win.SetPointerUpCallback(func(x, y float64) { controller.PointerUp(x, y) })
	win.SetPointerLeaveCallback(controller.PointerLeave)
	win.SetScrollCallback(controller.Scroll)
	win.SetKeyDownCallback(func(key uint32) { controller.KeyDown(key) })
	win.SetResizeCallback(eng.Resize)
	bus.Subscribe(eventbus.TopicViewFullscreenToggle, func(eventbus.Event) error {
		win.ToggleFullscreen()
		return nil
	})

	// server
	var server *http.Server
	if settings.Server.Addr != "" {
		b := bridge.NewBridge(bus,
			bridge.WithCheckOrigin(originCheck(settings.Server.AllowedOrigins)),
			bridge.WithCommandHandler(commandHandler(eng, g, controller)),
			bridge.WithLogger(logger.With(logging.String("component", "bridge"))),
			bridge.WithMetrics(metrics),
		)
		defer b.Close()

		mux := http.NewServeMux()
		mux.Handle(settings.Server.MetricsPath, metrics.Handler())
		mux.Handle(settings.Server.BridgePath, b)
		server = &http.Server{
			Addr:              settings.Server.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info(context.Background(), "http server listening", logging.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(context.Background(), "http server failed", logging.Err(err))
			}
		}()
	}

	// frame loop
	if err := eng.Start(); err != nil {
		_ = win.Close()
		return err
	}
	win.SetUpdateCallback(func() {
		if ctx.Err() != nil {
			eng.Stop()
			_ = win.Close()
			return
		}
		if _, err := eng.Step(); err != nil {
			logger.Error(context.Background(), "frame loop stopped", logging.Err(err))
			_ = win.Close()
		}
	})
	win.ProcessMessages()
	eng.Stop()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn(context.Background(), "http server shutdown", logging.Err(err))
		}
	}
	return eng.Err()
}

// loadData reads the configured region, arc, marker and record files. Only the region file is required.
func loadData(paths config.DataSettings, g globe.Globe, records *globe.MapRecordSource, logger logging.Logger) error {
	data, err := os.ReadFile(paths.RegionsPath)
	if err != nil {
		return fmt.Errorf("read regions: %w", err)
	}
	features, diags, err := globe.LoadRegionFeatures(data)
	if err != nil {
		return err
	}
	for _, d := range diags {
		logger.Warn(context.Background(), "skipped region feature", logging.String("diagnostic", d.String()))
	}
	g.SetRegions(features)

	if paths.ArcsPath != "" {
		var arcs []globe.ArcSegment
		if err := readJSON(paths.ArcsPath, &arcs); err != nil {
			return err
		}
		g.SetArcs(arcs)
	}
	if paths.MarkersPath != "" {
		var markers []globe.Marker
		if err := readJSON(paths.MarkersPath, &markers); err != nil {
			return err
		}
		g.SetMarkers(markers)
	}
	if paths.RecordsPath != "" {
		byISO := map[string]globe.Record{}
		if err := readJSON(paths.RecordsPath, &byISO); err != nil {
			return err
		}
		for iso, r := range byISO {
			records.Put(iso, r)
		}
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// originCheck accepts same-origin requests plus the listed origins; "*" accepts every origin.
func originCheck(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// commandHandler runs bridge commands on the frame goroutine through the engine scheduler.
func commandHandler(eng engine.Engine, g globe.Globe, controller camera.OrbitController) bridge.CommandHandler {
	return func(cmd bridge.Command) {
		eng.Scheduler().Schedule(0, func() {
			switch cmd.Name {
			case bridge.CommandFocus:
				g.FocusRegion(cmd.ISOCode)
			case bridge.CommandSelect:
				g.SelectRegion(cmd.ISOCode)
			case bridge.CommandClear:
				g.ClearSelection()
			case bridge.CommandReset:
				controller.ResetView()
			case bridge.CommandAutoRotate:
				enabled := !controller.AutoRotateEnabled()
				if cmd.Enabled != nil {
					enabled = *cmd.Enabled
				}
				controller.SetAutoRotate(enabled)
			}
		})
	}
}
