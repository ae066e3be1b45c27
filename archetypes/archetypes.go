package archetypes

import (
	"github.com/yohamta/donburi"

	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/tags"
)

var (
	Player = newArchetype(
		tags.Player,
		components.Character,
		components.Motion,
		components.Visibility,
		components.Speech,
	)
	NPC = newArchetype(
		tags.NPC,
		components.Character,
		components.Motion,
		components.Visibility,
		components.Speech,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(w donburi.World, cs ...donburi.IComponentType) *donburi.Entry {
	return w.Entry(w.Create(append(a.components, cs...)...))
}
