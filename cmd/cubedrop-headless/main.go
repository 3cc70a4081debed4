// Command cubedrop-headless runs the drop without a display and logs where
// the cube came to rest. It exercises the full frame loop with the recording
// renderer, paced against the wall clock.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cubedrop/config"
	"cubedrop/logger"
	"cubedrop/rendering/headless"
	"cubedrop/simulation"
	"cubedrop/telemetry"
)

// frameLimiter closes the window after a fixed number of frames
type frameLimiter struct {
	window *headless.Window
	limit  uint64
	every  uint64
	clicks uint64
}

func (f *frameLimiter) ObserveFrame(s simulation.FrameStats) {
	if f.every > 0 && s.Frame%f.every == 0 {
		f.window.Click()
		f.clicks++
	}
	if f.limit > 0 && s.Frame >= f.limit {
		f.window.RequestClose()
	}
}

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "Settings file")
		seed       = flag.Uint64("seed", 0, "Respawn seed, 0 uses the settings value")
		frames     = flag.Uint64("frames", 240, "Frames to run, 0 runs until interrupted")
		clickEvery = flag.Uint64("click-every", 0, "Simulate a click every n frames")
	)
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load settings", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		settings.Physics.Seed = *seed
	}
	log := logger.Init(settings.LoggerConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hz, ok := settings.RefreshRate(0, false)
	if !ok {
		hz = simulation.FallbackRefreshHz
	}
	window := headless.NewWindow(settings.Window.Width, settings.Window.Height, hz)
	renderer := headless.NewRenderer()

	sc, err := simulation.Bootstrap(renderer, headless.Shaders, settings.PhysicsConfig(), settings.Physics.Seed, settings.Pacing.EventCapacity)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	limiter := &frameLimiter{window: window, limit: *frames, every: *clickEvery}
	observers := simulation.Observers{limiter}
	if settings.Telemetry.Enabled {
		hub := telemetry.NewHub(sc.Events, log)
		observers = append(observers, hub)
		go hub.Run(ctx)
		go func() {
			if err := hub.ListenAndServe(ctx, settings.Telemetry.Listen); err != nil {
				log.Error("telemetry server stopped", "error", err)
			}
		}()
	}

	timing := simulation.NewFrameTiming(window.RefreshRate())
	driver, err := simulation.NewDriver(sc, window, simulation.NewSelfPacer(window, nil, timing.TargetInterval), timing,
		simulation.WithObserver(observers),
		simulation.WithMaxSubSteps(settings.Physics.MaxSubSteps),
		simulation.WithLogger(log.With("component", "driver", "backend", "headless")),
	)
	if err != nil {
		log.Error("driver setup failed", "error", err)
		os.Exit(1)
	}

	if err := driver.Run(ctx); err != nil {
		log.Error("frame loop failed", "error", err)
		os.Exit(1)
	}

	body := sc.World.Dynamic()
	pose := body.Pose()
	log.Info("run finished",
		"frames", driver.Frames(),
		"respawns", driver.Respawns(),
		"clicks", limiter.clicks,
		"simulated", sc.World.SimulatedTime(),
		"body", body.ID,
		"state", body.State(),
		"position", pose.Position,
		"orientation", pose.Orientation)
}
