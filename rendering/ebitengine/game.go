package ebitengine

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"

	"cubedrop/simulation"
)

// SetupFunc builds the driver once Ebitengine is running, so that shaders
// are compiled on a live graphics context
type SetupFunc func(window *Window, renderer *Renderer) (*simulation.Driver, error)

// Game drives one simulation frame per Ebitengine tick
type Game struct {
	window   *Window
	renderer *Renderer
	setup    SetupFunc
	driver   *simulation.Driver
}

func NewGame(window *Window, renderer *Renderer, setup SetupFunc) *Game {
	return &Game{window: window, renderer: renderer, setup: setup}
}

func (g *Game) Update() error {
	if g.driver == nil {
		d, err := g.setup(g.window, g.renderer)
		if err != nil {
			return err
		}
		g.driver = d
	}

	g.window.PollEvents()
	if g.window.ShouldClose() {
		g.driver.Close()
		return ebiten.Termination
	}

	err := g.driver.Frame()
	switch {
	case errors.Is(err, simulation.ErrShuttingDown):
		g.driver.Close()
		return ebiten.Termination
	case err != nil:
		g.driver.Close()
		return err
	}
	if g.driver.State() == simulation.StateShuttingDown {
		g.driver.Close()
		return ebiten.Termination
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.window.layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Run starts the Ebitengine loop. It returns nil on a normal close.
func Run(window *Window, renderer *Renderer, setup SetupFunc) error {
	err := ebiten.RunGame(NewGame(window, renderer, setup))
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}
