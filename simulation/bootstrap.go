package simulation

import (
	"fmt"

	"cubedrop/physics"
	"cubedrop/rendering"
)

// Bootstrap builds the world, the respawner and the scene for a renderer.
// A zero seed draws respawn orientations from the clock.
func Bootstrap(r rendering.Renderer, shaders rendering.Shaders, cfg physics.Config, seed uint64, eventCapacity int) (*Context, error) {
	respawner := physics.NewRespawner(nil)
	if seed != 0 {
		respawner = physics.NewSeededRespawner(seed)
	}
	world, err := physics.NewWorld(cfg, respawner)
	if err != nil {
		return nil, fmt.Errorf("create world: %w", err)
	}
	scene, err := LoadScene(r, shaders)
	if err != nil {
		return nil, err
	}
	if eventCapacity <= 0 {
		eventCapacity = DefaultEventCapacity
	}
	return &Context{
		World:     world,
		Respawner: respawner,
		Renderer:  r,
		Scene:     scene,
		Events:    NewEventQueue(eventCapacity),
	}, nil
}
