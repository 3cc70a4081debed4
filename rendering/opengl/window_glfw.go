package opengl

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowConfig describes the native window
type WindowConfig struct {
	Width  int
	Height int
	Title  string
	VSync  bool
}

// Window is a GLFW window with a current OpenGL 4.1 core context.
// All methods must be called from the goroutine that created it.
type Window struct {
	window *glfw.Window

	mu      sync.Mutex
	onClick func()
}

// NewWindow initializes GLFW and OpenGL and opens the window
func NewWindow(cfg WindowConfig) (*Window, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()

	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	w := &Window{window: window}
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		w.onKey(key, action)
	})
	window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		w.onMouseButton(button, action)
	})
	return w, nil
}

// GLVersion reports the version string of the current context
func (w *Window) GLVersion() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (w *Window) onKey(key glfw.Key, action glfw.Action) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		w.window.SetShouldClose(true)
	}
}

func (w *Window) onMouseButton(button glfw.MouseButton, action glfw.Action) {
	if button != glfw.MouseButtonLeft || action != glfw.Press {
		return
	}
	w.mu.Lock()
	handler := w.onClick
	w.mu.Unlock()
	if handler != nil {
		handler()
	}
}

func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

func (w *Window) RequestClose() {
	w.window.SetShouldClose(true)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) WaitEventsTimeout(timeout time.Duration) {
	glfw.WaitEventsTimeout(timeout.Seconds())
}

// RefreshRate reads the primary monitor's current video mode
func (w *Window) RefreshRate() (int, bool) {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return 0, false
	}
	mode := monitor.GetVideoMode()
	if mode == nil || mode.RefreshRate <= 0 {
		return 0, false
	}
	return mode.RefreshRate, true
}

// Size returns the framebuffer size in pixels
func (w *Window) Size() (int, int) {
	return w.window.GetFramebufferSize()
}

func (w *Window) SetClickHandler(fn func()) {
	w.mu.Lock()
	w.onClick = fn
	w.mu.Unlock()
}

func (w *Window) swapBuffers() {
	w.window.SwapBuffers()
}

// Terminate destroys the window and shuts GLFW down
func (w *Window) Terminate() {
	w.window.Destroy()
	glfw.Terminate()
}
