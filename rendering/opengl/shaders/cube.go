package shaders

import (
	_ "embed"

	"cubedrop/rendering"
)

var (
	//go:embed glsl/cube.vert
	cubeVertex []byte
	//go:embed glsl/cube.frag
	cubeFragment []byte
)

// Cube returns the vertex-colored program used for both bodies
func Cube() rendering.Shaders {
	return rendering.Shaders{Vertex: cubeVertex, Fragment: cubeFragment}
}
