package raylib

import (
	_ "embed"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"cubedrop/core"
	"cubedrop/rendering"
)

var (
	//go:embed glsl/cube.vs
	cubeVertex []byte
	//go:embed glsl/cube.fs
	cubeFragment []byte
)

// Shaders returns the GLSL 330 program matching raylib's default attribute
// and uniform names
func Shaders() rendering.Shaders {
	return rendering.Shaders{Vertex: cubeVertex, Fragment: cubeFragment}
}

type drawCall struct {
	transform mgl32.Mat4
	vb        rendering.VertexBuffer
	ib        rendering.IndexBuffer
	program   rendering.Program
}

// Renderer draws the submitted meshes as 3D triangles inside BeginMode3D.
// Meshes stay on the CPU and are transformed per frame.
type Renderer struct {
	next     uint32
	vertices map[rendering.VertexBuffer][]core.PosColorVertex
	indices  map[rendering.IndexBuffer][]uint16
	shaders  map[rendering.Program]rl.Shader

	clear  rl.Color
	camera rl.Camera3D

	pending []drawCall
}

func NewRenderer() *Renderer {
	return &Renderer{
		vertices: make(map[rendering.VertexBuffer][]core.PosColorVertex),
		indices:  make(map[rendering.IndexBuffer][]uint16),
		shaders:  make(map[rendering.Program]rl.Shader),
		clear:    rl.Black,
	}
}

func (r *Renderer) handle() uint32 {
	r.next++
	return r.next
}

func (r *Renderer) CreateVertexBuffer(vertices []core.PosColorVertex) (rendering.VertexBuffer, error) {
	if len(vertices) == 0 {
		return 0, fmt.Errorf("vertex buffer: %w", rendering.ErrInvalidHandle)
	}
	h := rendering.VertexBuffer(r.handle())
	r.vertices[h] = append([]core.PosColorVertex(nil), vertices...)
	return h, nil
}

func (r *Renderer) CreateIndexBuffer(indices []uint16) (rendering.IndexBuffer, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return 0, fmt.Errorf("index buffer of %d indices: %w", len(indices), rendering.ErrInvalidHandle)
	}
	h := rendering.IndexBuffer(r.handle())
	r.indices[h] = append([]uint16(nil), indices...)
	return h, nil
}

func (r *Renderer) CreateProgram(vertexShader, fragmentShader []byte) (rendering.Program, error) {
	shader := rl.LoadShaderFromMemory(string(vertexShader), string(fragmentShader))
	if shader.ID == 0 {
		return 0, fmt.Errorf("program: %w", rendering.ErrInvalidHandle)
	}
	h := rendering.Program(r.handle())
	r.shaders[h] = shader
	return h, nil
}

// SetViewport is a no-op; raylib always draws to the whole window
func (r *Renderer) SetViewport(x, y, width, height int) {}

func (r *Renderer) SetClearColor(rgba uint32) {
	r.clear = rl.NewColor(uint8(rgba>>24), uint8(rgba>>16), uint8(rgba>>8), uint8(rgba))
}

func (r *Renderer) SetViewTransform(view, projection mgl32.Mat4) {
	cam := core.CameraFromMatrices(view, projection)
	r.camera = rl.Camera3D{
		Position:   mirrorX(cam.Eye),
		Target:     mirrorX(cam.Target),
		Up:         mirrorX(cam.Up),
		Fovy:       cam.FovY,
		Projection: rl.CameraPerspective,
	}
}

func (r *Renderer) Submit(transform mgl32.Mat4, vb rendering.VertexBuffer, ib rendering.IndexBuffer, program rendering.Program) {
	r.pending = append(r.pending, drawCall{transform: transform, vb: vb, ib: ib, program: program})
}

func (r *Renderer) EndFrame() error {
	defer func() { r.pending = r.pending[:0] }()

	rl.BeginDrawing()
	rl.ClearBackground(r.clear)
	rl.BeginMode3D(r.camera)
	rl.DisableBackfaceCulling()

	var err error
	for _, d := range r.pending {
		if err = r.draw(d); err != nil {
			break
		}
	}

	rl.EnableBackfaceCulling()
	rl.EndMode3D()
	rl.EndDrawing()
	return err
}

func (r *Renderer) draw(d drawCall) error {
	vertices, ok := r.vertices[d.vb]
	if !ok {
		return fmt.Errorf("draw: vertex buffer %d: %w", d.vb, rendering.ErrInvalidHandle)
	}
	indices, ok := r.indices[d.ib]
	if !ok {
		return fmt.Errorf("draw: index buffer %d: %w", d.ib, rendering.ErrInvalidHandle)
	}
	shader, ok := r.shaders[d.program]
	if !ok {
		return fmt.Errorf("draw: program %d: %w", d.program, rendering.ErrInvalidHandle)
	}

	rl.BeginShaderMode(shader)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]
		rl.DrawTriangle3D(
			r.transform(d.transform, a),
			r.transform(d.transform, b),
			r.transform(d.transform, c),
			averageColor(a, b, c),
		)
	}
	rl.EndShaderMode()
	return nil
}

func (r *Renderer) transform(m mgl32.Mat4, v core.PosColorVertex) rl.Vector3 {
	return mirrorX(m.Mul4x1(mgl32.Vec4{v.X, v.Y, v.Z, 1}).Vec3())
}

// averageColor flattens per-vertex colors to one color per triangle
func averageColor(vs ...core.PosColorVertex) rl.Color {
	var sr, sg, sb, sa int
	for _, v := range vs {
		cr, cg, cb, ca := v.RGBA()
		sr, sg, sb, sa = sr+int(cr), sg+int(cg), sb+int(cb), sa+int(ca)
	}
	n := len(vs)
	return rl.NewColor(uint8(sr/n), uint8(sg/n), uint8(sb/n), uint8(sa/n))
}

// mirrorX reflects a point across the YZ plane. raylib's camera is
// right-handed; drawing the reflected scene with the reflected camera gives
// the image of the left-handed core.Camera view.
func mirrorX(v mgl32.Vec3) rl.Vector3 {
	return rl.NewVector3(-v[0], v[1], v[2])
}

func (r *Renderer) Destroy(vb rendering.VertexBuffer, ib rendering.IndexBuffer, program rendering.Program) {
	delete(r.vertices, vb)
	delete(r.indices, ib)
	if shader, ok := r.shaders[program]; ok {
		rl.UnloadShader(shader)
		delete(r.shaders, program)
	}
}

// Shutdown closes the window
func (r *Renderer) Shutdown() {
	rl.CloseWindow()
}
