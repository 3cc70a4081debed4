package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"cubedrop/logger"
	"cubedrop/physics"
)

// DefaultPath is where the binaries look for settings when -config is not given
const DefaultPath = "settings.yaml"

type Settings struct {
	Window    WindowSettings    `yaml:"window"`
	Physics   PhysicsSettings   `yaml:"physics"`
	Pacing    PacingSettings    `yaml:"pacing"`
	Telemetry TelemetrySettings `yaml:"telemetry"`
	Logging   LoggingSettings   `yaml:"logging"`
}

type WindowSettings struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type PhysicsSettings struct {
	Gravity          [3]float64 `yaml:"gravity"`
	FloorHalfExtents [3]float64 `yaml:"floorHalfExtents"`
	FloorCenter      [3]float64 `yaml:"floorCenter"`
	CubeHalfExtents  [3]float64 `yaml:"cubeHalfExtents"`
	CubeMass         float64    `yaml:"cubeMass"`
	SpawnPoint       [3]float64 `yaml:"spawnPoint"`
	Friction         float64    `yaml:"friction"`
	Restitution      float64    `yaml:"restitution"`
	SolverIterations int        `yaml:"solverIterations"`
	MaxSubSteps      int        `yaml:"maxSubSteps"`
	// Seed makes respawn orientations reproducible; 0 seeds from the clock
	Seed uint64 `yaml:"seed"`
}

type PacingSettings struct {
	// RefreshHz overrides the monitor refresh rate when > 0
	RefreshHz     int `yaml:"refreshHz"`
	EventCapacity int `yaml:"eventCapacity"`
}

type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when no file is present
func Default() *Settings {
	phys := physics.DefaultConfig()
	return &Settings{
		Window: WindowSettings{
			Width:  1280,
			Height: 720,
			Title:  "Hello, bullet physics! Click anywhere to restart",
			VSync:  true,
		},
		Physics: PhysicsSettings{
			Gravity:          phys.Gravity,
			FloorHalfExtents: phys.FloorHalfExtents,
			FloorCenter:      phys.FloorCenter,
			CubeHalfExtents:  phys.CubeHalfExtents,
			CubeMass:         phys.CubeMass,
			SpawnPoint:       phys.SpawnPoint,
			Friction:         phys.Friction,
			Restitution:      phys.Restitution,
			SolverIterations: phys.SolverIterations,
			MaxSubSteps:      physics.DefaultMaxSubSteps,
		},
		Pacing: PacingSettings{
			EventCapacity: 64,
		},
		Telemetry: TelemetrySettings{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. A missing
// file is not an error.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks the settings that the physics config does not cover
func (s *Settings) Validate() error {
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", s.Window.Width, s.Window.Height)
	}
	if s.Physics.MaxSubSteps < 0 {
		return fmt.Errorf("maxSubSteps %d must not be negative, 0 runs a variable step", s.Physics.MaxSubSteps)
	}
	if s.Pacing.RefreshHz < 0 {
		return fmt.Errorf("refresh rate %d must not be negative", s.Pacing.RefreshHz)
	}
	if s.Telemetry.Enabled && s.Telemetry.Listen == "" {
		return errors.New("telemetry enabled without a listen address")
	}
	return s.PhysicsConfig().Validate()
}

// PhysicsConfig converts the physics section into a world config
func (s *Settings) PhysicsConfig() physics.Config {
	p := s.Physics
	return physics.Config{
		Gravity:          mgl64.Vec3(p.Gravity),
		FloorHalfExtents: mgl64.Vec3(p.FloorHalfExtents),
		FloorCenter:      mgl64.Vec3(p.FloorCenter),
		CubeHalfExtents:  mgl64.Vec3(p.CubeHalfExtents),
		CubeMass:         p.CubeMass,
		SpawnPoint:       mgl64.Vec3(p.SpawnPoint),
		Friction:         p.Friction,
		Restitution:      p.Restitution,
		SolverIterations: p.SolverIterations,
	}
}

// RefreshRate applies the configured override to a reported refresh rate
func (s *Settings) RefreshRate(hz int, ok bool) (int, bool) {
	if s.Pacing.RefreshHz > 0 {
		return s.Pacing.RefreshHz, true
	}
	return hz, ok
}

// LoggerConfig returns the logger settings for logger.Init
func (s *Settings) LoggerConfig() logger.Config {
	return logger.Config{Level: s.Logging.Level, Format: s.Logging.Format}
}
