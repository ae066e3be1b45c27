// Package grid models the room: a bounded tile grid with static obstacles,
// a single door tile and the isometric projection used to draw it.
package grid

import (
	"fmt"
	"sort"

	"github.com/solarlune/resolv"
)

const (
	// cellSize is the resolv cell edge used for one room tile.
	cellSize = 16

	tagSolid = "solid"
)

// Tile is a discrete grid coordinate.
type Tile struct {
	X, Y int
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

// Add returns the tile offset by dx, dy.
func (t Tile) Add(dx, dy int) Tile {
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

// Occupancy reports whether a character currently stands on a tile.
type Occupancy interface {
	Occupied(x, y int) bool
}

// Room is the rectangular tile grid. Obstacles live in a resolv space with one
// solid object per blocked tile.
type Room struct {
	Width, Height int
	Door          Tile

	space     *resolv.Space
	obstacles map[Tile]*resolv.Object
}

// NewRoom creates an empty room of the given size.
func NewRoom(width, height int, door Tile) *Room {
	return &Room{
		Width:     width,
		Height:    height,
		Door:      door,
		space:     resolv.NewSpace(width*cellSize, height*cellSize, cellSize, cellSize),
		obstacles: make(map[Tile]*resolv.Object),
	}
}

// InBounds reports whether (x, y) lies inside the room.
func (r *Room) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width && y < r.Height
}

// AddObstacle marks a tile as blocked. Out of bounds tiles are ignored.
func (r *Room) AddObstacle(x, y int) {
	t := Tile{x, y}
	if !r.InBounds(x, y) {
		return
	}
	if _, ok := r.obstacles[t]; ok {
		return
	}
	obj := resolv.NewObject(float64(x*cellSize+1), float64(y*cellSize+1), cellSize-2, cellSize-2, tagSolid)
	r.space.Add(obj)
	r.obstacles[t] = obj
}

// RemoveObstacle clears a blocked tile.
func (r *Room) RemoveObstacle(x, y int) {
	t := Tile{x, y}
	obj, ok := r.obstacles[t]
	if !ok {
		return
	}
	r.space.Remove(obj)
	delete(r.obstacles, t)
}

// Obstacles returns the blocked tiles in row-major order.
func (r *Room) Obstacles() []Tile {
	out := make([]Tile, 0, len(r.obstacles))
	for t := range r.obstacles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// IsWalkable reports whether (x, y) is in bounds and free of static obstacles.
func (r *Room) IsWalkable(x, y int) bool {
	if !r.InBounds(x, y) {
		return false
	}

	// Test the cell the same way a moving body would
	cell := resolv.NewObject(float64(x*cellSize+2), float64(y*cellSize+2), cellSize-4, cellSize-4)
	r.space.Add(cell)
	defer r.space.Remove(cell)

	return cell.Check(0, 0, tagSolid) == nil
}

// IsTileFree reports whether a character may step onto (x, y) right now.
// A nil occupancy only checks the static grid.
func (r *Room) IsTileFree(x, y int, occ Occupancy) bool {
	if !r.IsWalkable(x, y) {
		return false
	}
	return occ == nil || !occ.Occupied(x, y)
}

// Neighbors4 returns the in-bounds 4-neighbours of (x, y) in the order
// west, east, north, south.
func (r *Room) Neighbors4(x, y int) []Tile {
	candidates := [4]Tile{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}
	out := make([]Tile, 0, 4)
	for _, c := range candidates {
		if r.InBounds(c.X, c.Y) {
			out = append(out, c)
		}
	}
	return out
}

// Adjacent reports whether a and b are 4-neighbours.
func Adjacent(a, b Tile) bool {
	return abs(a.X-b.X)+abs(a.Y-b.Y) == 1
}

// Manhattan returns the 4-connected distance between two tiles.
func Manhattan(a, b Tile) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
