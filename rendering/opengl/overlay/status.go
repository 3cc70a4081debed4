package overlay

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"cubedrop/rendering/opengl/shaders"
)

const statusVertexShader = `
#version 410 core

layout (location = 0) in vec2 position;
layout (location = 1) in vec4 color;

out vec4 fragColor;

uniform mat4 projection;

void main() {
    gl_Position = projection * vec4(position, 0.0, 1.0);
    fragColor = color;
}
`

const statusFragmentShader = `
#version 410 core

in vec4 fragColor;
out vec4 outColor;

void main() {
    outColor = fragColor;
}
`

// maxRespawnTicks is how many respawn markers fit in the bar
const maxRespawnTicks = 10

var (
	backgroundColor = mgl32.Vec4{0, 0, 0, 0.45}
	awakeColor      = mgl32.Vec4{0.3, 0.9, 0.4, 1}
	sleepingColor   = mgl32.Vec4{0.5, 0.5, 0.6, 1}
	tickColor       = mgl32.Vec4{1, 0.8, 0.2, 1}
)

// StatusBar draws a small box in the top-left corner: a square that is green
// while the cube is awake and grey while it sleeps, followed by one marker
// per respawn (modulo maxRespawnTicks).
type StatusBar struct {
	program uint32
	projLoc int32
	vao     uint32
	vbo     uint32

	vertices []float32
}

func NewStatusBar() (*StatusBar, error) {
	program, err := shaders.CompileProgram(statusVertexShader, statusFragmentShader)
	if err != nil {
		return nil, err
	}
	sb := &StatusBar{
		program: program,
		projLoc: gl.GetUniformLocation(program, gl.Str("projection\x00")),
	}

	gl.GenVertexArrays(1, &sb.vao)
	gl.GenBuffers(1, &sb.vbo)
	gl.BindVertexArray(sb.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, sb.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, 6*4, 2*4)
	gl.BindVertexArray(0)

	return sb, nil
}

// Render draws the bar over the current frame in pixel coordinates
func (sb *StatusBar) Render(width, height int, sleeping bool, respawns uint64) {
	if width <= 0 || height <= 0 {
		return
	}

	sb.vertices = sb.vertices[:0]
	sb.rect(10, 10, 40+float32(maxRespawnTicks)*14, 30, backgroundColor)
	state := awakeColor
	if sleeping {
		state = sleepingColor
	}
	sb.rect(15, 15, 20, 20, state)
	for i := 0; i < int(respawns%maxRespawnTicks); i++ {
		sb.rect(42+float32(i)*14, 20, 10, 10, tickColor)
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	gl.UseProgram(sb.program)
	projection := mgl32.Ortho2D(0, float32(width), float32(height), 0)
	gl.UniformMatrix4fv(sb.projLoc, 1, false, &projection[0])

	gl.BindVertexArray(sb.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, sb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(sb.vertices)*4, gl.Ptr(&sb.vertices[0]), gl.DYNAMIC_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(sb.vertices)/6))

	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
}

// rect appends two triangles with a solid color
func (sb *StatusBar) rect(x, y, w, h float32, c mgl32.Vec4) {
	sb.vertices = append(sb.vertices,
		x, y, c[0], c[1], c[2], c[3],
		x+w, y, c[0], c[1], c[2], c[3],
		x, y+h, c[0], c[1], c[2], c[3],
		x+w, y, c[0], c[1], c[2], c[3],
		x+w, y+h, c[0], c[1], c[2], c[3],
		x, y+h, c[0], c[1], c[2], c[3],
	)
}

// Release cleans up resources
func (sb *StatusBar) Release() {
	if sb.program != 0 {
		gl.DeleteProgram(sb.program)
	}
	if sb.vao != 0 {
		gl.DeleteVertexArrays(1, &sb.vao)
	}
	if sb.vbo != 0 {
		gl.DeleteBuffers(1, &sb.vbo)
	}
}
