package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera describes a fixed perspective viewpoint
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// FovY is the vertical field of view in degrees
	FovY float32
	Near float32
	Far  float32
}

// DefaultCamera looks at the origin from five units down the negative Z axis
func DefaultCamera() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 0, -5},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FovY:   60,
		Near:   0.1,
		Far:    100,
	}
}

// View returns the left-handed world-to-camera matrix: camera X is
// Up × forward, so world +X lands on screen right when looking down +Z.
// It is the right-handed look-at with its X row negated.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.Scale3D(-1, 1, 1).Mul4(mgl32.LookAtV(c.Eye, c.Target, c.Up))
}

// Projection returns the perspective matrix for a viewport of the given size
func (c Camera) Projection(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// CameraFromMatrices recovers a look-at camera from a view matrix and a
// perspective projection. The target is placed at the distance of the origin
// so that DefaultCamera round-trips.
func CameraFromMatrices(view, projection mgl32.Mat4) Camera {
	inv := view.Inv()
	eye := inv.Col(3).Vec3()
	forward := inv.Col(2).Vec3().Mul(-1).Normalize()
	up := inv.Col(1).Vec3().Normalize()

	dist := eye.Len()
	if dist == 0 {
		dist = 1
	}

	c := Camera{
		Eye:    eye,
		Target: eye.Add(forward.Mul(dist)),
		Up:     up,
	}
	if projection[5] != 0 {
		c.FovY = mgl32.RadToDeg(2 * float32(math.Atan(float64(1/projection[5]))))
	}
	a, b := projection[10], projection[14]
	if a != 1 && a != -1 {
		c.Near = b / (a - 1)
		c.Far = b / (a + 1)
	}
	return c
}

// Project maps a world-space point through viewProj to window pixels.
// ok is false for points behind the camera.
func Project(viewProj mgl32.Mat4, p mgl32.Vec3, width, height int) (x, y, depth float32, ok bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	x = (ndc[0] + 1) * 0.5 * float32(width)
	y = (1 - ndc[1]) * 0.5 * float32(height)
	return x, y, ndc[2], true
}
