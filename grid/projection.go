package grid

import "math"

// Projection maps grid coordinates to isometric screen coordinates. A tile's
// diamond has its top vertex at ToScreen(x, y).
type Projection struct {
	TileW, TileH     float64
	OffsetX, OffsetY float64
}

// CenteredProjection returns a projection that centers a room on a screen.
func CenteredProjection(tileW, tileH float64, screenW, screenH int, r *Room) Projection {
	w, h := float64(r.Width), float64(r.Height)
	return Projection{
		TileW:   tileW,
		TileH:   tileH,
		OffsetX: float64(screenW)/2 - (w-h)*tileW/4,
		OffsetY: float64(screenH)/2 - (w+h)*tileH/4,
	}
}

// ToScreen projects a (possibly fractional) grid position.
func (p Projection) ToScreen(x, y float64) (sx, sy float64) {
	sx = (x-y)*p.TileW/2 + p.OffsetX
	sy = (x+y)*p.TileH/2 + p.OffsetY
	return sx, sy
}

// ToGrid is the inverse of ToScreen.
func (p Projection) ToGrid(sx, sy float64) (x, y float64) {
	a := (sx - p.OffsetX) / (p.TileW / 2)
	b := (sy - p.OffsetY) / (p.TileH / 2)
	return (a + b) / 2, (b - a) / 2
}

// TileCenter returns the screen position of the middle of a tile's diamond.
func (p Projection) TileCenter(x, y float64) (sx, sy float64) {
	return p.ToScreen(x+0.5, y+0.5)
}

// ScreenToTile picks the tile whose diamond contains the screen point.
// ok is false when the point falls outside the room.
func (p Projection) ScreenToTile(sx, sy float64, r *Room) (Tile, bool) {
	gx, gy := p.ToGrid(sx, sy)
	t := Tile{int(math.Floor(gx)), int(math.Floor(gy))}
	return t, r.InBounds(t.X, t.Y)
}
