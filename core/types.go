package core

import "github.com/go-gl/mathgl/mgl64"

// Pose represents the world-space placement of a body
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// NewPose creates a pose from a position and an orientation
func NewPose(position mgl64.Vec3, orientation mgl64.Quat) Pose {
	return Pose{Position: position, Orientation: orientation}
}

// PosColorVertex is the vertex layout shared by every backend:
// a position followed by a packed ABGR color.
type PosColorVertex struct {
	X, Y, Z float32
	ABGR    uint32
}

// PosColorVertexStride is the size of PosColorVertex in bytes
const PosColorVertexStride = 16

// RGBA unpacks the vertex color into 8-bit channels
func (v PosColorVertex) RGBA() (r, g, b, a uint8) {
	return uint8(v.ABGR), uint8(v.ABGR >> 8), uint8(v.ABGR >> 16), uint8(v.ABGR >> 24)
}

// CubeVertices are the corners of the unit cube, one color per corner
var CubeVertices = []PosColorVertex{
	{-1.0, 1.0, 1.0, 0xff000000},
	{1.0, 1.0, 1.0, 0xff0000ff},
	{-1.0, -1.0, 1.0, 0xff00ff00},
	{1.0, -1.0, 1.0, 0xff00ffff},
	{-1.0, 1.0, -1.0, 0xffff0000},
	{1.0, 1.0, -1.0, 0xffff00ff},
	{-1.0, -1.0, -1.0, 0xffffff00},
	{1.0, -1.0, -1.0, 0xffffffff},
}

// CubeIndices is the triangle list for CubeVertices (12 triangles)
var CubeIndices = []uint16{
	0, 1, 2,
	1, 3, 2,
	4, 6, 5,
	5, 6, 7,
	0, 2, 4,
	4, 2, 6,
	1, 5, 3,
	5, 7, 3,
	0, 4, 1,
	4, 5, 1,
	2, 3, 6,
	6, 3, 7,
}

// ClearColor is the background color in 0xRRGGBBAA form
const ClearColor uint32 = 0x443355FF

// UnpackRGBA splits a 0xRRGGBBAA color into normalized channels
func UnpackRGBA(c uint32) (r, g, b, a float32) {
	return float32(c>>24&0xff) / 255, float32(c>>16&0xff) / 255, float32(c>>8&0xff) / 255, float32(c&0xff) / 255
}
