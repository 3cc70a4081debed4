// Package ebitengine runs the scene inside an Ebitengine game, which also
// builds for the browser. Ebitengine calls Update at a fixed tick rate, so the
// driver uses a host pacer and a 60 Hz fixed step.
package ebitengine

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Window adapts Ebitengine input and layout to rendering.Window.
// Methods are only called from Update.
type Window struct {
	width, height  int
	closeRequested bool
	onClick        func()
}

func NewWindow(width, height int, title string) *Window {
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	return &Window{width: width, height: height}
}

func (w *Window) ShouldClose() bool {
	return w.closeRequested
}

func (w *Window) RequestClose() {
	w.closeRequested = true
}

// PollEvents reads this tick's input
func (w *Window) PollEvents() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.closeRequested = true
	}
	if w.onClick == nil {
		return
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) || len(inpututil.AppendJustPressedTouchIDs(nil)) > 0 {
		w.onClick()
	}
}

// WaitEventsTimeout is only reachable with a self pacer, which this backend
// does not use
func (w *Window) WaitEventsTimeout(timeout time.Duration) {
	time.Sleep(timeout)
}

// RefreshRate is unknown; Ebitengine does not expose the display rate
func (w *Window) RefreshRate() (int, bool) {
	return 0, false
}

func (w *Window) Size() (int, int) {
	return w.width, w.height
}

func (w *Window) SetClickHandler(fn func()) {
	w.onClick = fn
}

func (w *Window) layout(width, height int) {
	w.width, w.height = width, height
}
