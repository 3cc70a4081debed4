package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"cubedrop/config"
	"cubedrop/logger"
	"cubedrop/rendering/raylib"
	"cubedrop/simulation"
	"cubedrop/telemetry"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "Settings file")
		seed       = flag.Uint64("seed", 0, "Respawn seed, 0 uses the settings value")
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

	if err := run(settings, log); err != nil {
		log.Error("cubedrop-raylib failed", "error", err)
		os.Exit(1)
	}
}

func run(settings *config.Settings, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	window := raylib.NewWindow(raylib.WindowConfig{
		Width:  settings.Window.Width,
		Height: settings.Window.Height,
		Title:  settings.Window.Title,
		VSync:  settings.Window.VSync,
	})
	renderer := raylib.NewRenderer()

	sc, err := simulation.Bootstrap(renderer, raylib.Shaders(), settings.PhysicsConfig(), settings.Physics.Seed, settings.Pacing.EventCapacity)
	if err != nil {
		renderer.Shutdown()
		return err
	}

	timing := simulation.NewFrameTiming(settings.RefreshRate(window.RefreshRate()))
	window.SetTargetFPS(timing.RefreshHz)

	var observers simulation.Observers
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

	driver, err := simulation.NewDriver(sc, window, simulation.HostPacer{}, timing,
		simulation.WithObserver(observers),
		simulation.WithMaxSubSteps(settings.Physics.MaxSubSteps),
		simulation.WithLogger(log.With("component", "driver", "backend", "raylib")),
	)
	if err != nil {
		sc.Scene.Release(renderer)
		renderer.Shutdown()
		return err
	}
	return driver.Run(ctx)
}
