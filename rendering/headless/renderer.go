// Package headless provides a recording renderer and a virtual window. It
// backs the headless binary and the frame driver tests.
package headless

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"cubedrop/core"
	"cubedrop/rendering"
)

// historySize bounds the number of finished frames kept in memory
const historySize = 120

// Shaders is a placeholder program source; the recorder never compiles it
var Shaders = rendering.Shaders{
	Vertex:   []byte("headless vertex"),
	Fragment: []byte("headless fragment"),
}

// DrawCall is one recorded Submit
type DrawCall struct {
	Transform    mgl32.Mat4
	VertexBuffer rendering.VertexBuffer
	IndexBuffer  rendering.IndexBuffer
	Program      rendering.Program
}

// Frame is everything submitted between two EndFrame calls
type Frame struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Draws      []DrawCall
}

// Renderer records draws instead of rasterizing them
type Renderer struct {
	mu sync.Mutex

	nextHandle uint32
	vertices   map[rendering.VertexBuffer][]core.PosColorVertex
	indices    map[rendering.IndexBuffer][]uint16
	programs   map[rendering.Program]rendering.Shaders

	viewport   [4]int
	clearColor uint32
	view       mgl32.Mat4
	projection mgl32.Mat4

	pending    []DrawCall
	frames     []Frame
	frameCount int

	endFrameErr error
	shutdown    bool
}

// NewRenderer creates an empty recording renderer
func NewRenderer() *Renderer {
	return &Renderer{
		vertices:   make(map[rendering.VertexBuffer][]core.PosColorVertex),
		indices:    make(map[rendering.IndexBuffer][]uint16),
		programs:   make(map[rendering.Program]rendering.Shaders),
		view:       mgl32.Ident4(),
		projection: mgl32.Ident4(),
	}
}

func (r *Renderer) handle() uint32 {
	r.nextHandle++
	return r.nextHandle
}

// CreateVertexBuffer stores a copy of the vertices
func (r *Renderer) CreateVertexBuffer(vertices []core.PosColorVertex) (rendering.VertexBuffer, error) {
	if len(vertices) == 0 {
		return 0, fmt.Errorf("vertex buffer: %w", rendering.ErrInvalidHandle)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h := rendering.VertexBuffer(r.handle())
	r.vertices[h] = append([]core.PosColorVertex(nil), vertices...)
	return h, nil
}

// CreateIndexBuffer stores a copy of the indices
func (r *Renderer) CreateIndexBuffer(indices []uint16) (rendering.IndexBuffer, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return 0, fmt.Errorf("index buffer of %d indices: %w", len(indices), rendering.ErrInvalidHandle)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h := rendering.IndexBuffer(r.handle())
	r.indices[h] = append([]uint16(nil), indices...)
	return h, nil
}

// CreateProgram accepts any non-empty pair of shaders
func (r *Renderer) CreateProgram(vertexShader, fragmentShader []byte) (rendering.Program, error) {
	if len(vertexShader) == 0 || len(fragmentShader) == 0 {
		return 0, fmt.Errorf("program: empty shader: %w", rendering.ErrInvalidHandle)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h := rendering.Program(r.handle())
	r.programs[h] = rendering.Shaders{Vertex: vertexShader, Fragment: fragmentShader}
	return h, nil
}

func (r *Renderer) SetViewport(x, y, width, height int) {
	r.mu.Lock()
	r.viewport = [4]int{x, y, width, height}
	r.mu.Unlock()
}

func (r *Renderer) SetClearColor(rgba uint32) {
	r.mu.Lock()
	r.clearColor = rgba
	r.mu.Unlock()
}

func (r *Renderer) SetViewTransform(view, projection mgl32.Mat4) {
	r.mu.Lock()
	r.view, r.projection = view, projection
	r.mu.Unlock()
}

// Submit records a draw for the current frame
func (r *Renderer) Submit(transform mgl32.Mat4, vb rendering.VertexBuffer, ib rendering.IndexBuffer, program rendering.Program) {
	r.mu.Lock()
	r.pending = append(r.pending, DrawCall{Transform: transform, VertexBuffer: vb, IndexBuffer: ib, Program: program})
	r.mu.Unlock()
}

// EndFrame closes the current frame
func (r *Renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endFrameErr != nil {
		return r.endFrameErr
	}
	r.frames = append(r.frames, Frame{View: r.view, Projection: r.projection, Draws: r.pending})
	if len(r.frames) > historySize {
		r.frames = r.frames[len(r.frames)-historySize:]
	}
	r.pending = nil
	r.frameCount++
	return nil
}

// Destroy releases the scene handles
func (r *Renderer) Destroy(vb rendering.VertexBuffer, ib rendering.IndexBuffer, program rendering.Program) {
	r.mu.Lock()
	delete(r.vertices, vb)
	delete(r.indices, ib)
	delete(r.programs, program)
	r.mu.Unlock()
}

func (r *Renderer) Shutdown() {
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()
}

// FailEndFrame makes every following EndFrame return err
func (r *Renderer) FailEndFrame(err error) {
	r.mu.Lock()
	r.endFrameErr = err
	r.mu.Unlock()
}

// FrameCount returns the number of completed frames
func (r *Renderer) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

// LastFrame returns the most recent completed frame
func (r *Renderer) LastFrame() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Frames returns the retained frame history, oldest first
func (r *Renderer) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// Live reports how many handles are still allocated
func (r *Renderer) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vertices) + len(r.indices) + len(r.programs)
}

// IsShutdown reports whether Shutdown was called
func (r *Renderer) IsShutdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdown
}

// Viewport returns the last viewport set
func (r *Renderer) Viewport() [4]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

// ClearColor returns the last clear color set
func (r *Renderer) ClearColor() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearColor
}
