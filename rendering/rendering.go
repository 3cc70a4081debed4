// Package rendering defines the narrow surface the frame driver needs from a
// graphics engine and a windowing system. Backends live in subpackages.
package rendering

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"cubedrop/core"
)

// ErrInvalidHandle is returned when a backend could not create a resource
var ErrInvalidHandle = errors.New("invalid rendering handle")

// VertexBuffer is an opaque handle to uploaded vertex data
type VertexBuffer uint32

// IndexBuffer is an opaque handle to uploaded triangle indices
type IndexBuffer uint32

// Program is an opaque handle to a linked shader program
type Program uint32

// Renderer is the graphics engine the frame driver submits draws to.
// Handles are created once at startup and passed back on every draw.
type Renderer interface {
	CreateVertexBuffer(vertices []core.PosColorVertex) (VertexBuffer, error)
	CreateIndexBuffer(indices []uint16) (IndexBuffer, error)
	// CreateProgram links a program from vertex and fragment shader code
	CreateProgram(vertexShader, fragmentShader []byte) (Program, error)

	SetViewport(x, y, width, height int)
	// SetClearColor takes a 0xRRGGBBAA color
	SetClearColor(rgba uint32)
	SetViewTransform(view, projection mgl32.Mat4)

	Submit(transform mgl32.Mat4, vb VertexBuffer, ib IndexBuffer, program Program)
	EndFrame() error

	Destroy(vb VertexBuffer, ib IndexBuffer, program Program)
	Shutdown()
}

// Window is the windowing and input collaborator
type Window interface {
	ShouldClose() bool
	RequestClose()

	PollEvents()
	// WaitEventsTimeout blocks until an event arrives or the timeout expires
	WaitEventsTimeout(timeout time.Duration)

	// RefreshRate reports the display refresh rate in Hz, if known
	RefreshRate() (hz int, ok bool)
	Size() (width, height int)

	// SetClickHandler registers the callback run on a primary button press
	SetClickHandler(func())
}

// Shaders holds the shader code a backend compiles into the scene program
type Shaders struct {
	Vertex   []byte
	Fragment []byte
}
