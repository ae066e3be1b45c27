package grid

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type occupied map[Tile]bool

func (o occupied) Occupied(x, y int) bool { return o[Tile{x, y}] }

func TestInBounds(t *testing.T) {
	r := NewRoom(10, 10, Tile{0, 3})
	assert.True(t, r.InBounds(0, 0))
	assert.True(t, r.InBounds(9, 9))
	assert.False(t, r.InBounds(-1, 0))
	assert.False(t, r.InBounds(10, 0))
	assert.False(t, r.InBounds(0, 10))
}

func TestObstacles(t *testing.T) {
	r := NewRoom(10, 10, Tile{0, 3})
	assert.True(t, r.IsWalkable(4, 4))

	r.AddObstacle(4, 4)
	r.AddObstacle(4, 4)
	r.AddObstacle(2, 7)
	assert.False(t, r.IsWalkable(4, 4))
	assert.True(t, r.IsWalkable(5, 4), "neighbouring tile must not be blocked")
	assert.True(t, r.IsWalkable(4, 5))
	assert.Equal(t, []Tile{{4, 4}, {2, 7}}, r.Obstacles())

	r.RemoveObstacle(4, 4)
	assert.True(t, r.IsWalkable(4, 4))
	assert.Equal(t, []Tile{{2, 7}}, r.Obstacles())
}

func TestIsTileFree(t *testing.T) {
	r := NewRoom(5, 5, Tile{0, 3})
	r.AddObstacle(1, 1)
	occ := occupied{{2, 2}: true}

	assert.False(t, r.IsTileFree(-1, 0, occ))
	assert.False(t, r.IsTileFree(1, 1, occ))
	assert.False(t, r.IsTileFree(2, 2, occ))
	assert.True(t, r.IsTileFree(2, 2, nil))
	assert.True(t, r.IsTileFree(3, 3, occ))
}

func TestNeighbors4Order(t *testing.T) {
	r := NewRoom(10, 10, Tile{0, 3})
	assert.Equal(t, []Tile{{4, 5}, {6, 5}, {5, 4}, {5, 6}}, r.Neighbors4(5, 5))
	assert.Equal(t, []Tile{{1, 0}, {0, 1}}, r.Neighbors4(0, 0))
}

func TestAdjacent(t *testing.T) {
	assert.True(t, Adjacent(Tile{1, 1}, Tile{1, 2}))
	assert.False(t, Adjacent(Tile{1, 1}, Tile{2, 2}))
	assert.False(t, Adjacent(Tile{1, 1}, Tile{1, 1}))
	assert.Equal(t, 5, Manhattan(Tile{0, 0}, Tile{2, 3}))
}

func TestProjectionRoundTrip(t *testing.T) {
	r := NewRoom(10, 10, Tile{0, 3})
	p := CenteredProjection(64, 32, 960, 640, r)

	rapid.Check(t, func(t *rapid.T) {
		x := rapid.IntRange(0, 9).Draw(t, "x")
		y := rapid.IntRange(0, 9).Draw(t, "y")
		sx, sy := p.TileCenter(float64(x), float64(y))
		got, ok := p.ScreenToTile(sx, sy, r)
		assert.True(t, ok)
		assert.Equal(t, Tile{x, y}, got)
	})
}

func TestProjectionFormula(t *testing.T) {
	p := Projection{TileW: 64, TileH: 32, OffsetX: 100, OffsetY: 50}
	sx, sy := p.ToScreen(2, 1)
	assert.InDelta(t, 132.0, sx, 1e-9)
	assert.InDelta(t, 98.0, sy, 1e-9)
}

func TestScreenToTileOutside(t *testing.T) {
	r := NewRoom(3, 3, Tile{0, 0})
	p := Projection{TileW: 64, TileH: 32}
	_, ok := p.ScreenToTile(0, -10, r)
	assert.False(t, ok)
}

const roomTMX = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="isometric" renderorder="right-down" width="4" height="3" tilewidth="64" tileheight="32" infinite="0" nextlayerid="3" nextobjectid="2">
 <tileset firstgid="1" name="room" tilewidth="64" tileheight="32" tilecount="1" columns="1">
  <image source="room.png" width="64" height="32"/>
 </tileset>
 <layer id="1" name="obstacles" width="4" height="3">
  <data encoding="csv">
0,0,0,0,
0,1,0,0,
1,0,0,1
</data>
 </layer>
 <objectgroup id="2" name="Door">
  <object id="1" name="Door" x="0" y="0" width="32" height="32">
   <properties>
    <property name="tileX" type="int" value="0"/>
    <property name="tileY" type="int" value="2"/>
   </properties>
  </object>
 </objectgroup>
</map>
`

func TestLoadTMX(t *testing.T) {
	fsys := fstest.MapFS{"rooms/lobby.tmx": {Data: []byte(roomTMX)}}

	r, err := LoadTMX(fsys, "rooms/lobby.tmx", Tile{0, 3})
	require.NoError(t, err)

	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.Equal(t, Tile{0, 2}, r.Door)
	// (0,2) is painted but it is the door, so it stays walkable
	assert.Equal(t, []Tile{{1, 1}, {3, 2}}, r.Obstacles())
	assert.True(t, r.IsWalkable(0, 2))
}

func TestLoadTMXMissing(t *testing.T) {
	_, err := LoadTMX(fstest.MapFS{}, "nope.tmx", Tile{0, 3})
	assert.Error(t, err)
}
