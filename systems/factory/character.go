package factory

import (
	"github.com/yohamta/donburi"

	"github.com/automoto/isoroom/archetypes"
	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/grid"
)

// PlayerStart is where the avatar first appears.
var PlayerStart = grid.Tile{X: 5, Y: 5}

func CreatePlayer(w donburi.World, at grid.Tile, skin string, speed float64) *donburi.Entry {
	player := archetypes.Player.Spawn(w)

	components.Character.SetValue(player, components.CharacterData{
		Name:   "You",
		SkinID: skin,
	})
	components.Motion.SetValue(player, components.MotionData{
		X:         float64(at.X),
		Y:         float64(at.Y),
		Speed:     speed,
		Direction: components.DirBotLeft,
	})
	components.Visibility.SetValue(player, components.VisibilityData{Visible: true})

	return player
}

// CreateNPC spawns a server-driven character. A blank name falls back to the id.
func CreateNPC(w donburi.World, id, name string, at grid.Tile, skin string, speed float64) *donburi.Entry {
	npc := archetypes.NPC.Spawn(w)

	if name == "" {
		name = id
	}
	components.Character.SetValue(npc, components.CharacterData{
		ID:     id,
		Name:   name,
		SkinID: skin,
	})
	components.Motion.SetValue(npc, components.MotionData{
		X:         float64(at.X),
		Y:         float64(at.Y),
		Speed:     speed,
		Direction: components.DirBotLeft,
	})
	components.Visibility.SetValue(npc, components.VisibilityData{Visible: true})

	return npc
}
