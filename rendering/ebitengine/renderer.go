package ebitengine

import (
	_ "embed"
	"fmt"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"cubedrop/core"
	"cubedrop/rendering"
	"cubedrop/rendering/painter"
	"cubedrop/simulation"
)

//go:embed vertexcolor.kage
var vertexColorKage []byte

// Shaders returns the Kage program. Ebitengine has no vertex stage, so only
// the fragment source is used.
func Shaders() rendering.Shaders {
	return rendering.Shaders{Fragment: vertexColorKage}
}

var hudFace = text.NewGoXFace(basicfont.Face7x13)

type drawCall struct {
	transform mgl32.Mat4
	vb        rendering.VertexBuffer
	ib        rendering.IndexBuffer
	program   rendering.Program
}

// Renderer projects meshes on the CPU in EndFrame and replays the result on
// the screen image in Draw
type Renderer struct {
	next     uint32
	vertices map[rendering.VertexBuffer][]core.PosColorVertex
	indices  map[rendering.IndexBuffer][]uint16
	shaders  map[rendering.Program]*ebiten.Shader

	clear    color.RGBA
	viewProj mgl32.Mat4
	width    int
	height   int

	pending []drawCall
	tris    []painter.Triangle

	// presented frame, replayed by Draw
	shader     *ebiten.Shader
	frameVerts []ebiten.Vertex
	frameIdx   []uint16
	hud        string
	sleeping   bool
	hasFrame   bool
}

func NewRenderer() *Renderer {
	return &Renderer{
		vertices: make(map[rendering.VertexBuffer][]core.PosColorVertex),
		indices:  make(map[rendering.IndexBuffer][]uint16),
		shaders:  make(map[rendering.Program]*ebiten.Shader),
		viewProj: mgl32.Ident4(),
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

// CreateProgram compiles the fragment source as Kage
func (r *Renderer) CreateProgram(_, fragmentShader []byte) (rendering.Program, error) {
	shader, err := ebiten.NewShader(fragmentShader)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", rendering.ErrInvalidHandle, err)
	}
	h := rendering.Program(r.handle())
	r.shaders[h] = shader
	return h, nil
}

func (r *Renderer) SetViewport(x, y, width, height int) {
	r.width, r.height = width, height
}

func (r *Renderer) SetClearColor(rgba uint32) {
	r.clear = color.RGBA{R: uint8(rgba >> 24), G: uint8(rgba >> 16), B: uint8(rgba >> 8), A: uint8(rgba)}
}

func (r *Renderer) SetViewTransform(view, projection mgl32.Mat4) {
	r.viewProj = projection.Mul4(view)
}

func (r *Renderer) Submit(transform mgl32.Mat4, vb rendering.VertexBuffer, ib rendering.IndexBuffer, program rendering.Program) {
	r.pending = append(r.pending, drawCall{transform: transform, vb: vb, ib: ib, program: program})
}

// EndFrame projects and depth-sorts the submitted meshes into the frame that
// Draw presents next
func (r *Renderer) EndFrame() error {
	defer func() { r.pending = r.pending[:0] }()

	r.tris = r.tris[:0]
	var shader *ebiten.Shader
	for _, d := range r.pending {
		vertices, ok := r.vertices[d.vb]
		if !ok {
			return fmt.Errorf("draw: vertex buffer %d: %w", d.vb, rendering.ErrInvalidHandle)
		}
		indices, ok := r.indices[d.ib]
		if !ok {
			return fmt.Errorf("draw: index buffer %d: %w", d.ib, rendering.ErrInvalidHandle)
		}
		s, ok := r.shaders[d.program]
		if !ok {
			return fmt.Errorf("draw: program %d: %w", d.program, rendering.ErrInvalidHandle)
		}
		shader = s
		r.tris = painter.Project(r.tris, vertices, indices, d.transform, r.viewProj, r.width, r.height)
	}
	painter.SortBackToFront(r.tris)

	r.frameVerts = r.frameVerts[:0]
	r.frameIdx = r.frameIdx[:0]
	for _, tri := range r.tris {
		base := uint16(len(r.frameVerts))
		for _, p := range tri.Points {
			r.frameVerts = append(r.frameVerts, ebiten.Vertex{
				DstX: p.X, DstY: p.Y,
				ColorR: p.R, ColorG: p.G, ColorB: p.B, ColorA: p.A,
			})
		}
		r.frameIdx = append(r.frameIdx, base, base+1, base+2)
	}
	r.shader = shader
	r.hasFrame = true
	return nil
}

// ObserveFrame updates the HUD line
func (r *Renderer) ObserveFrame(s simulation.FrameStats) {
	r.sleeping = s.Sleeping
	r.hud = fmt.Sprintf("frame %d  respawns %d  t=%.1fs  click to restart", s.Frame, s.Respawns, s.SimulatedTime)
}

// Draw presents the last finished frame
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(r.clear)
	if !r.hasFrame {
		return
	}
	if r.shader != nil && len(r.frameIdx) > 0 {
		screen.DrawTrianglesShader(r.frameVerts, r.frameIdx, r.shader, &ebiten.DrawTrianglesShaderOptions{})
	}

	state := color.RGBA{R: 76, G: 230, B: 102, A: 255}
	if r.sleeping {
		state = color.RGBA{R: 128, G: 128, B: 153, A: 255}
	}
	vector.DrawFilledRect(screen, 10, 10, 14, 14, state, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(32, 10)
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, r.hud, hudFace, op)
}

func (r *Renderer) Destroy(vb rendering.VertexBuffer, ib rendering.IndexBuffer, program rendering.Program) {
	delete(r.vertices, vb)
	delete(r.indices, ib)
	if shader, ok := r.shaders[program]; ok {
		shader.Deallocate()
		delete(r.shaders, program)
	}
}

// Shutdown drops the presented frame; Ebitengine closes the window itself
// once Update returns ebiten.Termination
func (r *Renderer) Shutdown() {
	r.hasFrame = false
	r.shader = nil
}
