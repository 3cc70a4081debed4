package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"cubedrop/physics"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		createFile bool
		content    string
		wantErr    bool
		validate   func(t *testing.T, s *Settings, err error)
	}{
		{
			name:       "missing file uses defaults",
			createFile: false,
			validate: func(t *testing.T, s *Settings, err error) {
				if s.Window.Width != 1280 || s.Window.Height != 720 {
					t.Errorf("window = %dx%d, want 1280x720", s.Window.Width, s.Window.Height)
				}
				if s.Physics.MaxSubSteps != physics.DefaultMaxSubSteps {
					t.Errorf("MaxSubSteps = %d", s.Physics.MaxSubSteps)
				}
				if s.PhysicsConfig() != physics.DefaultConfig() {
					t.Errorf("physics config = %+v, want defaults", s.PhysicsConfig())
				}
			},
		},
		{
			name:       "partial file keeps other defaults",
			createFile: true,
			content: `window:
  title: "drop"
physics:
  spawnPoint: [0, 8, 0]
  seed: 42
pacing:
  refreshHz: 120
telemetry:
  enabled: true
  listen: ":9000"
logging:
  level: debug
  format: json
`,
			validate: func(t *testing.T, s *Settings, err error) {
				if s.Window.Title != "drop" {
					t.Errorf("Title = %q", s.Window.Title)
				}
				if s.Window.Width != 1280 {
					t.Errorf("Width = %d, want default 1280", s.Window.Width)
				}
				if got := s.PhysicsConfig().SpawnPoint; got != (mgl64.Vec3{0, 8, 0}) {
					t.Errorf("SpawnPoint = %v", got)
				}
				if s.PhysicsConfig().CubeMass != 1 {
					t.Errorf("CubeMass = %v, want default 1", s.PhysicsConfig().CubeMass)
				}
				if s.Physics.Seed != 42 {
					t.Errorf("Seed = %d", s.Physics.Seed)
				}
				if !s.Telemetry.Enabled || s.Telemetry.Listen != ":9000" {
					t.Errorf("Telemetry = %+v", s.Telemetry)
				}
				if s.Logging.Level != "debug" || s.Logging.Format != "json" {
					t.Errorf("Logging = %+v", s.Logging)
				}
			},
		},
		{
			name:       "malformed yaml",
			createFile: true,
			content: `physics:
  gravity: [0, -9.8
`,
			wantErr: true,
			validate: func(t *testing.T, s *Settings, err error) {
				if err == nil || !strings.Contains(err.Error(), "yaml") {
					t.Errorf("want a yaml parse error, got %v", err)
				}
			},
		},
		{
			name:       "invalid physics",
			createFile: true,
			content: `physics:
  cubeMass: 0
`,
			wantErr: true,
			validate: func(t *testing.T, s *Settings, err error) {
				if !errors.Is(err, physics.ErrInvalidConfig) {
					t.Errorf("want ErrInvalidConfig, got %v", err)
				}
			},
		},
		{
			name:       "invalid window",
			createFile: true,
			content: `window:
  width: -1
`,
			wantErr: true,
		},
		{
			name:       "negative sub-step cap",
			createFile: true,
			content: `physics:
  maxSubSteps: -1
`,
			wantErr: true,
			validate: func(t *testing.T, s *Settings, err error) {
				if err == nil || !strings.Contains(err.Error(), "maxSubSteps") {
					t.Errorf("want a maxSubSteps error, got %v", err)
				}
			},
		},
		{
			name:       "zero sub-step cap is allowed",
			createFile: true,
			content: `physics:
  maxSubSteps: 0
`,
			validate: func(t *testing.T, s *Settings, err error) {
				if s.Physics.MaxSubSteps != 0 {
					t.Errorf("MaxSubSteps = %d, want 0", s.Physics.MaxSubSteps)
				}
			},
		},
		{
			name:       "telemetry without address",
			createFile: true,
			content: `telemetry:
  enabled: true
  listen: ""
`,
			wantErr: true,
		},
		{
			name:       "empty file",
			createFile: true,
			content:    "",
			validate: func(t *testing.T, s *Settings, err error) {
				if s.Logging.Level != "info" {
					t.Errorf("Logging.Level = %q, want info", s.Logging.Level)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if tt.createFile {
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatalf("write settings: %v", err)
				}
			}

			s, err := Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.validate != nil {
				tt.validate(t, s, err)
			}
		})
	}
}

func TestRefreshRateOverride(t *testing.T) {
	s := Default()
	if hz, ok := s.RefreshRate(144, true); hz != 144 || !ok {
		t.Errorf("no override: got %d %v", hz, ok)
	}
	if _, ok := s.RefreshRate(0, false); ok {
		t.Error("unknown rate became known without an override")
	}
	s.Pacing.RefreshHz = 30
	if hz, ok := s.RefreshRate(0, false); hz != 30 || !ok {
		t.Errorf("override: got %d %v", hz, ok)
	}
}

func TestSampleSettingsFileLoads(t *testing.T) {
	s, err := Load(filepath.Join("..", DefaultPath))
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if s.PhysicsConfig() != physics.DefaultConfig() {
		t.Errorf("sample physics differs from defaults: %+v", s.PhysicsConfig())
	}
}
