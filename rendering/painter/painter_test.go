package painter

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"cubedrop/core"
)

func defaultViewProj(w, h int) mgl32.Mat4 {
	cam := core.DefaultCamera()
	return cam.Projection(w, h).Mul4(cam.View())
}

func TestProjectCubeIsFullyVisible(t *testing.T) {
	tris := Project(nil, core.CubeVertices, core.CubeIndices, mgl32.Ident4(), defaultViewProj(640, 480), 640, 480)
	if len(tris) != len(core.CubeIndices)/3 {
		t.Fatalf("projected %d triangles, want %d", len(tris), len(core.CubeIndices)/3)
	}
	for i, tri := range tris {
		for k, p := range tri.Points {
			if p.X < 0 || p.X > 640 || p.Y < 0 || p.Y > 480 {
				t.Errorf("triangle %d point %d off screen: %+v", i, k, p)
			}
			if p.A != 1 {
				t.Errorf("triangle %d point %d alpha %v", i, k, p.A)
			}
		}
	}
}

func TestProjectDropsTrianglesBehindCamera(t *testing.T) {
	behind := mgl32.Translate3D(0, 0, -20)
	tris := Project(nil, core.CubeVertices, core.CubeIndices, behind, defaultViewProj(640, 480), 640, 480)
	if len(tris) != 0 {
		t.Errorf("projected %d triangles behind the camera", len(tris))
	}
}

func TestProjectIgnoresOutOfRangeIndices(t *testing.T) {
	tris := Project(nil, core.CubeVertices, []uint16{0, 1, 99}, mgl32.Ident4(), defaultViewProj(640, 480), 640, 480)
	if len(tris) != 0 {
		t.Errorf("got %d triangles from a broken index list", len(tris))
	}
}

func TestSortBackToFront(t *testing.T) {
	tris := []Triangle{{Depth: 0.2}, {Depth: 0.9}, {Depth: 0.5}}
	SortBackToFront(tris)
	for i, want := range []float32{0.9, 0.5, 0.2} {
		if tris[i].Depth != want {
			t.Errorf("tris[%d].Depth = %v, want %v", i, tris[i].Depth, want)
		}
	}
}

func TestNearFaceSortsLast(t *testing.T) {
	tris := Project(nil, core.CubeVertices, core.CubeIndices, mgl32.Ident4(), defaultViewProj(640, 480), 640, 480)
	SortBackToFront(tris)
	first, last := tris[0].Depth, tris[len(tris)-1].Depth
	if !(first > last) {
		t.Errorf("first depth %v not behind last depth %v", first, last)
	}
}
