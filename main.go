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
	"cubedrop/rendering/opengl"
	"cubedrop/rendering/opengl/shaders"
	"cubedrop/simulation"
	"cubedrop/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "Settings file")
		seed       = flag.Uint64("seed", 0, "Respawn seed, 0 uses the settings value")
		noStatus   = flag.Bool("no-status", false, "Hide the status bar")
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

	if err := run(settings, !*noStatus, log); err != nil {
		log.Error("cubedrop failed", "error", err)
		os.Exit(1)
	}
}

func run(settings *config.Settings, showStatus bool, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	window, err := opengl.NewWindow(opengl.WindowConfig{
		Width:  settings.Window.Width,
		Height: settings.Window.Height,
		Title:  settings.Window.Title,
		VSync:  settings.Window.VSync,
	})
	if err != nil {
		return err
	}
	log.Info("window created", "gl", window.GLVersion())

	renderer, err := opengl.NewRenderer(window, showStatus)
	if err != nil {
		window.Terminate()
		return err
	}

	sc, err := simulation.Bootstrap(renderer, shaders.Cube(), settings.PhysicsConfig(), settings.Physics.Seed, settings.Pacing.EventCapacity)
	if err != nil {
		renderer.Shutdown()
		return err
	}

	hz, ok := settings.RefreshRate(window.RefreshRate())
	if !ok {
		log.Warn("refresh rate unknown, using fallback", "hz", simulation.FallbackRefreshHz)
	}
	timing := simulation.NewFrameTiming(hz, ok)

	observers := simulation.Observers{renderer}
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

	driver, err := simulation.NewDriver(sc, window, simulation.NewSelfPacer(window, nil, timing.TargetInterval), timing,
		simulation.WithObserver(observers),
		simulation.WithMaxSubSteps(settings.Physics.MaxSubSteps),
		simulation.WithLogger(log.With("component", "driver")),
	)
	if err != nil {
		sc.Scene.Release(renderer)
		renderer.Shutdown()
		return err
	}
	return driver.Run(ctx)
}
