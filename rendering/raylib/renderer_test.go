package raylib

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"cubedrop/core"
)

func TestAverageColor(t *testing.T) {
	tests := []struct {
		name string
		in   []core.PosColorVertex
		want rl.Color
	}{
		{
			name: "single",
			in:   []core.PosColorVertex{{ABGR: 0xff0000ff}},
			want: rl.NewColor(0xff, 0, 0, 0xff),
		},
		{
			name: "black and white",
			in:   []core.PosColorVertex{{ABGR: 0xff000000}, {ABGR: 0xffffffff}},
			want: rl.NewColor(127, 127, 127, 0xff),
		},
		{
			name: "primaries",
			in:   []core.PosColorVertex{{ABGR: 0xff0000ff}, {ABGR: 0xff00ff00}, {ABGR: 0xffff0000}},
			want: rl.NewColor(85, 85, 85, 0xff),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := averageColor(tt.in...); got != tt.want {
				t.Errorf("averageColor = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSetViewTransformMirrorsCamera(t *testing.T) {
	cam := core.Camera{Eye: mgl32.Vec3{2, 1, -5}, Target: mgl32.Vec3{0, 0, 0}, Up: mgl32.Vec3{0, 1, 0}, FovY: 60, Near: 0.1, Far: 100}
	r := NewRenderer()
	r.SetViewTransform(cam.View(), cam.Projection(1280, 720))

	if got := r.camera.Position; abs(got.X+2) > 1e-4 || abs(got.Y-1) > 1e-4 || abs(got.Z+5) > 1e-4 {
		t.Errorf("Position = %+v, want eye mirrored to (-2, 1, -5)", got)
	}
	if got := r.camera.Up; got.Y <= 0 {
		t.Errorf("Up = %+v points down", got)
	}
	if abs(r.camera.Fovy-60) > 1e-3 {
		t.Errorf("Fovy = %v, want 60", r.camera.Fovy)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
