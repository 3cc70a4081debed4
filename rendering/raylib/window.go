// Package raylib renders the scene with raylib. raylib owns the frame
// cadence through SetTargetFPS, so the driver runs with a host pacer.
package raylib

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type WindowConfig struct {
	Width  int
	Height int
	Title  string
	VSync  bool
}

// Window wraps the single raylib window. Escape closes it.
type Window struct {
	closeRequested bool
	onClick        func()
}

func NewWindow(cfg WindowConfig) *Window {
	flags := uint32(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	if cfg.VSync {
		flags |= rl.FlagVsyncHint
	}
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(cfg.Width), int32(cfg.Height), cfg.Title)
	rl.SetExitKey(rl.KeyEscape)
	return &Window{}
}

// SetTargetFPS hands frame pacing to raylib
func (w *Window) SetTargetFPS(hz int) {
	rl.SetTargetFPS(int32(hz))
}

func (w *Window) ShouldClose() bool {
	return w.closeRequested || rl.WindowShouldClose()
}

func (w *Window) RequestClose() {
	w.closeRequested = true
}

// PollEvents reports presses collected by the last EndDrawing
func (w *Window) PollEvents() {
	if w.onClick != nil && rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		w.onClick()
	}
}

func (w *Window) WaitEventsTimeout(timeout time.Duration) {
	rl.WaitTime(timeout.Seconds())
}

func (w *Window) RefreshRate() (int, bool) {
	hz := rl.GetMonitorRefreshRate(rl.GetCurrentMonitor())
	if hz <= 0 {
		return 0, false
	}
	return hz, true
}

func (w *Window) Size() (int, int) {
	return rl.GetScreenWidth(), rl.GetScreenHeight()
}

func (w *Window) SetClickHandler(fn func()) {
	w.onClick = fn
}
