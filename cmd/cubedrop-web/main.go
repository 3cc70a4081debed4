package main

import (
	"flag"
	"log/slog"
	"os"

	"cubedrop/config"
	"cubedrop/logger"
	"cubedrop/rendering/ebitengine"
	"cubedrop/simulation"
)

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

	window := ebitengine.NewWindow(settings.Window.Width, settings.Window.Height, settings.Window.Title)
	renderer := ebitengine.NewRenderer()

	setup := func(window *ebitengine.Window, renderer *ebitengine.Renderer) (*simulation.Driver, error) {
		sc, err := simulation.Bootstrap(renderer, ebitengine.Shaders(), settings.PhysicsConfig(), settings.Physics.Seed, settings.Pacing.EventCapacity)
		if err != nil {
			return nil, err
		}
		// Update runs at the Ebitengine tick rate, not the display rate
		timing := simulation.NewFrameTiming(settings.RefreshRate(window.RefreshRate()))
		d, err := simulation.NewDriver(sc, window, simulation.HostPacer{}, timing,
			simulation.WithObserver(renderer),
			simulation.WithMaxSubSteps(settings.Physics.MaxSubSteps),
			simulation.WithLogger(log.With("component", "driver", "backend", "ebitengine")),
		)
		if err != nil {
			sc.Scene.Release(renderer)
			return nil, err
		}
		log.Info("scene ready", "fixed_substep", timing.FixedSubStep, "body", sc.World.Dynamic().ID)
		return d, nil
	}

	if err := ebitengine.Run(window, renderer, setup); err != nil {
		log.Error("cubedrop-web failed", "error", err)
		os.Exit(1)
	}
}
