// Package pathfinding finds shortest 4-connected routes across a room.
package pathfinding

import (
	astar "github.com/beefsack/go-astar"

	"github.com/automoto/isoroom/grid"
)

// NavGrid represents the tiles of a room. Walkability is read from the room
// on every search, so obstacles added or removed later are honoured.
type NavGrid struct {
	Width, Height int
	Nodes         [][]*NavNode // Nodes[y][x]
	room          *grid.Room
}

// NavNode is a single tile of the navigation grid.
// Implements astar.Pather.
type NavNode struct {
	X, Y int
	Grid *NavGrid
}

// Walkable reports whether the room currently lets the node be entered.
func (n *NavNode) Walkable() bool {
	return n.Grid.room.IsWalkable(n.X, n.Y)
}

// N, E, S, W
var dirs = [4]struct{ dx, dy int }{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// PathNeighbors returns adjacent walkable nodes (implements astar.Pather)
func (n *NavNode) PathNeighbors() []astar.Pather {
	neighbors := make([]astar.Pather, 0, 4)
	for _, d := range dirs {
		nx, ny := n.X+d.dx, n.Y+d.dy
		if nx < 0 || nx >= n.Grid.Width || ny < 0 || ny >= n.Grid.Height {
			continue
		}
		if neighbor := n.Grid.Nodes[ny][nx]; neighbor.Walkable() {
			neighbors = append(neighbors, neighbor)
		}
	}
	return neighbors
}

// PathNeighborCost returns the cost of one step (implements astar.Pather)
func (n *NavNode) PathNeighborCost(to astar.Pather) float64 {
	return 1
}

// PathEstimatedCost returns the Manhattan distance to target (implements astar.Pather)
func (n *NavNode) PathEstimatedCost(to astar.Pather) float64 {
	toNode := to.(*NavNode)
	return float64(absInt(toNode.X-n.X) + absInt(toNode.Y-n.Y))
}

// Tile returns the grid coordinate of the node.
func (n *NavNode) Tile() grid.Tile {
	return grid.Tile{X: n.X, Y: n.Y}
}

// NewNavGrid builds a navigation grid over the room's static obstacles.
// Occupancy by characters is never considered.
func NewNavGrid(room *grid.Room) *NavGrid {
	g := &NavGrid{
		Width:  room.Width,
		Height: room.Height,
		Nodes:  make([][]*NavNode, room.Height),
		room:   room,
	}
	for y := 0; y < room.Height; y++ {
		g.Nodes[y] = make([]*NavNode, room.Width)
		for x := 0; x < room.Width; x++ {
			g.Nodes[y][x] = &NavNode{X: x, Y: y, Grid: g}
		}
	}
	return g
}

func (g *NavGrid) node(t grid.Tile) *NavNode {
	if t.X < 0 || t.X >= g.Width || t.Y < 0 || t.Y >= g.Height {
		return nil
	}
	return g.Nodes[t.Y][t.X]
}

// FindPath returns a shortest path from start to goal, both inclusive.
// found is false when the goal is out of bounds, blocked or unreachable.
// start == goal yields a single-tile path.
func (g *NavGrid) FindPath(start, goal grid.Tile) (path []grid.Tile, found bool) {
	startNode := g.node(start)
	goalNode := g.node(goal)
	if startNode == nil || goalNode == nil || !goalNode.Walkable() {
		return nil, false
	}
	if start == goal {
		return []grid.Tile{start}, true
	}

	raw, _, found := astar.Path(startNode, goalNode)
	if !found || len(raw) == 0 {
		return nil, false
	}

	path = make([]grid.Tile, len(raw))
	for i, p := range raw {
		path[i] = p.(*NavNode).Tile()
	}
	// go-astar reports the route goal first
	if path[0] != start {
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
	}
	return path, true
}

// Steps drops the head of a path, which is the tile the walker already occupies.
func Steps(path []grid.Tile) []grid.Tile {
	if len(path) <= 1 {
		return nil
	}
	return append([]grid.Tile(nil), path[1:]...)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
