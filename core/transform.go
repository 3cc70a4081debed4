package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// ComposeDynamic builds the column-major model matrix of a moving body.
// The upper 3x3 block is the rotation of the orientation quaternion and the
// fourth column holds the position. No scale is applied.
func ComposeDynamic(position mgl64.Vec3, orientation mgl64.Quat) mgl32.Mat4 {
	m := orientation.Normalize().Mat4()
	m[12] = position[0]
	m[13] = position[1]
	m[14] = position[2]
	m[15] = 1
	return toMat4f(m)
}

// ComposeStatic builds the model matrix of a body that never moves:
// a diagonal scale block plus a translation.
func ComposeStatic(scale, offset mgl64.Vec3) mgl32.Mat4 {
	m := mgl64.Diag4(scale.Vec4(1))
	m[12] = offset[0]
	m[13] = offset[1]
	m[14] = offset[2]
	return toMat4f(m)
}

// ComposePose is ComposeDynamic for a Pose
func ComposePose(p Pose) mgl32.Mat4 {
	return ComposeDynamic(p.Position, p.Orientation)
}

func toMat4f(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}
