// Package painter projects indexed meshes to screen-space triangles and
// orders them back to front, for backends without a depth buffer.
package painter

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"cubedrop/core"
)

// Point is a projected vertex in window pixels
type Point struct {
	X, Y       float32
	R, G, B, A float32
}

// Triangle is a projected triangle with its mean NDC depth
type Triangle struct {
	Points [3]Point
	Depth  float32
}

// Project transforms each triangle of the mesh by model and viewProj and
// appends the visible ones to dst. Triangles with a vertex behind the camera
// are dropped.
func Project(dst []Triangle, vertices []core.PosColorVertex, indices []uint16, model, viewProj mgl32.Mat4, width, height int) []Triangle {
	mvp := viewProj.Mul4(model)
	for i := 0; i+2 < len(indices); i += 3 {
		var tri Triangle
		visible := true
		for k := 0; k < 3; k++ {
			idx := int(indices[i+k])
			if idx >= len(vertices) {
				visible = false
				break
			}
			v := vertices[idx]
			x, y, depth, ok := core.Project(mvp, mgl32.Vec3{v.X, v.Y, v.Z}, width, height)
			if !ok {
				visible = false
				break
			}
			r, g, b, a := v.RGBA()
			tri.Points[k] = Point{
				X: x, Y: y,
				R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: float32(a) / 255,
			}
			tri.Depth += depth / 3
		}
		if visible {
			dst = append(dst, tri)
		}
	}
	return dst
}

// SortBackToFront orders triangles so that nearer ones are drawn last
func SortBackToFront(tris []Triangle) {
	sort.SliceStable(tris, func(i, j int) bool {
		return tris[i].Depth > tris[j].Depth
	})
}
