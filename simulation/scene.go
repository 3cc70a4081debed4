package simulation

import (
	"fmt"

	"cubedrop/core"
	"cubedrop/rendering"
)

// Scene holds the GPU resources shared by both bodies. The floor reuses the
// cube mesh scaled to its half extents.
type Scene struct {
	VertexBuffer rendering.VertexBuffer
	IndexBuffer  rendering.IndexBuffer
	Program      rendering.Program
	Camera       core.Camera
}

// LoadScene uploads the cube mesh and links the scene program
func LoadScene(r rendering.Renderer, shaders rendering.Shaders) (*Scene, error) {
	vb, err := r.CreateVertexBuffer(core.CubeVertices)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	ib, err := r.CreateIndexBuffer(core.CubeIndices)
	if err != nil {
		r.Destroy(vb, 0, 0)
		return nil, fmt.Errorf("load scene: %w", err)
	}
	program, err := r.CreateProgram(shaders.Vertex, shaders.Fragment)
	if err != nil {
		r.Destroy(vb, ib, 0)
		return nil, fmt.Errorf("load scene: %w", err)
	}
	r.SetClearColor(core.ClearColor)

	return &Scene{
		VertexBuffer: vb,
		IndexBuffer:  ib,
		Program:      program,
		Camera:       core.DefaultCamera(),
	}, nil
}

// Release frees the scene resources
func (s *Scene) Release(r rendering.Renderer) {
	r.Destroy(s.VertexBuffer, s.IndexBuffer, s.Program)
}
