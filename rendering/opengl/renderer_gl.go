package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"cubedrop/core"
	"cubedrop/rendering"
	"cubedrop/rendering/opengl/overlay"
	"cubedrop/rendering/opengl/shaders"
	"cubedrop/simulation"
)

type program struct {
	id       uint32
	modelLoc int32
	viewLoc  int32
	projLoc  int32
}

type indexBuffer struct {
	id    uint32
	count int32
}

type drawCall struct {
	transform mgl32.Mat4
	vb        rendering.VertexBuffer
	ib        rendering.IndexBuffer
	program   rendering.Program
}

// Renderer draws indexed, vertex-colored meshes with OpenGL 4.1 core and
// presents through its Window
type Renderer struct {
	window *Window
	vao    uint32

	vertexBuffers map[rendering.VertexBuffer]uint32
	indexBuffers  map[rendering.IndexBuffer]indexBuffer
	programs      map[rendering.Program]program

	viewMatrix mgl32.Mat4
	projMatrix mgl32.Mat4
	width      int
	height     int

	pending []drawCall

	status     *overlay.StatusBar
	showStatus bool
	sleeping   bool
	respawns   uint64
}

// NewRenderer sets up the GL state on the window's context
func NewRenderer(window *Window, showStatus bool) (*Renderer, error) {
	r := &Renderer{
		window:        window,
		vertexBuffers: make(map[rendering.VertexBuffer]uint32),
		indexBuffers:  make(map[rendering.IndexBuffer]indexBuffer),
		programs:      make(map[rendering.Program]program),
		viewMatrix:    mgl32.Ident4(),
		projMatrix:    mgl32.Ident4(),
		showStatus:    showStatus,
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.GenVertexArrays(1, &r.vao)

	if showStatus {
		status, err := overlay.NewStatusBar()
		if err != nil {
			return nil, fmt.Errorf("status overlay: %w", err)
		}
		r.status = status
	}
	return r, nil
}

func (r *Renderer) CreateVertexBuffer(vertices []core.PosColorVertex) (rendering.VertexBuffer, error) {
	if len(vertices) == 0 {
		return 0, fmt.Errorf("vertex buffer: %w", rendering.ErrInvalidHandle)
	}
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	if vbo == 0 {
		return 0, fmt.Errorf("vertex buffer: %w", rendering.ErrInvalidHandle)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*core.PosColorVertexStride, gl.Ptr(&vertices[0]), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	h := rendering.VertexBuffer(vbo)
	r.vertexBuffers[h] = vbo
	return h, nil
}

func (r *Renderer) CreateIndexBuffer(indices []uint16) (rendering.IndexBuffer, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return 0, fmt.Errorf("index buffer of %d indices: %w", len(indices), rendering.ErrInvalidHandle)
	}
	var ebo uint32
	gl.GenBuffers(1, &ebo)
	if ebo == 0 {
		return 0, fmt.Errorf("index buffer: %w", rendering.ErrInvalidHandle)
	}
	// element buffers bind through a VAO in core profile
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, gl.Ptr(&indices[0]), gl.STATIC_DRAW)
	gl.BindVertexArray(0)

	h := rendering.IndexBuffer(ebo)
	r.indexBuffers[h] = indexBuffer{id: ebo, count: int32(len(indices))}
	return h, nil
}

func (r *Renderer) CreateProgram(vertexShader, fragmentShader []byte) (rendering.Program, error) {
	id, err := shaders.CompileProgram(string(vertexShader), string(fragmentShader))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", rendering.ErrInvalidHandle, err)
	}
	p := program{
		id:       id,
		modelLoc: gl.GetUniformLocation(id, gl.Str("u_model\x00")),
		viewLoc:  gl.GetUniformLocation(id, gl.Str("u_view\x00")),
		projLoc:  gl.GetUniformLocation(id, gl.Str("u_proj\x00")),
	}
	h := rendering.Program(id)
	r.programs[h] = p
	return h, nil
}

func (r *Renderer) SetViewport(x, y, width, height int) {
	r.width, r.height = width, height
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (r *Renderer) SetClearColor(rgba uint32) {
	cr, cg, cb, ca := core.UnpackRGBA(rgba)
	gl.ClearColor(cr, cg, cb, ca)
}

func (r *Renderer) SetViewTransform(view, projection mgl32.Mat4) {
	r.viewMatrix = view
	r.projMatrix = projection
}

func (r *Renderer) Submit(transform mgl32.Mat4, vb rendering.VertexBuffer, ib rendering.IndexBuffer, program rendering.Program) {
	r.pending = append(r.pending, drawCall{transform: transform, vb: vb, ib: ib, program: program})
}

// EndFrame clears, draws the submitted meshes, the status overlay, and
// swaps buffers
func (r *Renderer) EndFrame() error {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.BindVertexArray(r.vao)
	for _, d := range r.pending {
		if err := r.draw(d); err != nil {
			r.pending = r.pending[:0]
			return err
		}
	}
	gl.BindVertexArray(0)
	r.pending = r.pending[:0]

	if r.showStatus && r.status != nil {
		r.status.Render(r.width, r.height, r.sleeping, r.respawns)
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("OpenGL error 0x%x", code)
	}
	r.window.swapBuffers()
	return nil
}

func (r *Renderer) draw(d drawCall) error {
	vbo, ok := r.vertexBuffers[d.vb]
	if !ok {
		return fmt.Errorf("draw: vertex buffer %d: %w", d.vb, rendering.ErrInvalidHandle)
	}
	ebo, ok := r.indexBuffers[d.ib]
	if !ok {
		return fmt.Errorf("draw: index buffer %d: %w", d.ib, rendering.ErrInvalidHandle)
	}
	p, ok := r.programs[d.program]
	if !ok {
		return fmt.Errorf("draw: program %d: %w", d.program, rendering.ErrInvalidHandle)
	}

	gl.UseProgram(p.id)
	gl.UniformMatrix4fv(p.modelLoc, 1, false, &d.transform[0])
	gl.UniformMatrix4fv(p.viewLoc, 1, false, &r.viewMatrix[0])
	gl.UniformMatrix4fv(p.projLoc, 1, false, &r.projMatrix[0])

	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, core.PosColorVertexStride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 4, gl.UNSIGNED_BYTE, true, core.PosColorVertexStride, 12)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo.id)

	gl.DrawElementsWithOffset(gl.TRIANGLES, ebo.count, gl.UNSIGNED_SHORT, 0)
	return nil
}

// ObserveFrame feeds the status overlay
func (r *Renderer) ObserveFrame(s simulation.FrameStats) {
	r.sleeping = s.Sleeping
	r.respawns = s.Respawns
}

func (r *Renderer) Destroy(vb rendering.VertexBuffer, ib rendering.IndexBuffer, prog rendering.Program) {
	if vbo, ok := r.vertexBuffers[vb]; ok {
		gl.DeleteBuffers(1, &vbo)
		delete(r.vertexBuffers, vb)
	}
	if ebo, ok := r.indexBuffers[ib]; ok {
		gl.DeleteBuffers(1, &ebo.id)
		delete(r.indexBuffers, ib)
	}
	if p, ok := r.programs[prog]; ok {
		gl.DeleteProgram(p.id)
		delete(r.programs, prog)
	}
}

// Shutdown releases the remaining GL objects and closes the window
func (r *Renderer) Shutdown() {
	if r.status != nil {
		r.status.Release()
		r.status = nil
	}
	gl.DeleteVertexArrays(1, &r.vao)
	r.window.Terminate()
}
