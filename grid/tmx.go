package grid

import (
	"fmt"
	"io/fs"

	"github.com/lafriks/go-tiled"
)

// Layer and object group names read from a room layout.
const (
	ObstacleLayer = "obstacles"
	DoorGroup     = "Door"
)

// LoadTMX builds a room from a Tiled map: the map size becomes the room size,
// every non-empty tile of the obstacles layer becomes an obstacle and the first
// object in the Door group sets the door. A map without a Door group keeps
// defaultDoor.
func LoadTMX(fsys fs.FS, path string, defaultDoor Tile) (*Room, error) {
	levelMap, err := tiled.LoadFile(path, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", path, err)
	}
	if levelMap.Width < 1 || levelMap.Height < 1 {
		return nil, fmt.Errorf("load TMX %s: empty map", path)
	}

	room := NewRoom(levelMap.Width, levelMap.Height, defaultDoor)

	for _, layer := range levelMap.Layers {
		if layer.Name != ObstacleLayer {
			continue
		}
		for y := 0; y < levelMap.Height; y++ {
			for x := 0; x < levelMap.Width; x++ {
				tile := layer.Tiles[y*levelMap.Width+x]
				if tile.IsNil() {
					continue
				}
				room.AddObstacle(x, y)
			}
		}
		break
	}

	for _, og := range levelMap.ObjectGroups {
		if og.Name != DoorGroup || len(og.Objects) == 0 {
			continue
		}
		o := og.Objects[0]
		door := Tile{X: o.Properties.GetInt("tileX"), Y: o.Properties.GetInt("tileY")}
		if !room.InBounds(door.X, door.Y) {
			return nil, fmt.Errorf("load TMX %s: door %v outside room", path, door)
		}
		room.Door = door
		break
	}

	if !room.InBounds(room.Door.X, room.Door.Y) {
		return nil, fmt.Errorf("load TMX %s: door %v outside room", path, room.Door)
	}
	// the door must stay reachable
	room.RemoveObstacle(room.Door.X, room.Door.Y)

	return room, nil
}
