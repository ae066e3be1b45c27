package scenes

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text" //nolint:staticcheck // TODO: migrate to text/v2
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/automoto/isoroom/assets"
	"github.com/automoto/isoroom/fonts"
	"github.com/automoto/isoroom/grid"
	"github.com/automoto/isoroom/render"
)

var (
	floorLight   = color.RGBA{0xF0, 0xF0, 0xF0, 0xFF}
	floorDark    = color.RGBA{0xE0, 0xE0, 0xE0, 0xFF}
	obstacleTile = color.RGBA{0x8A, 0x7F, 0x72, 0xFF}
	doorColor    = color.RGBA{0x4A, 0x90, 0xE2, 0xFF}
	outline      = color.RGBA{0x33, 0x33, 0x33, 0xFF}
	skinTone     = color.RGBA{0xFF, 0xD4, 0xA3, 0xFF}
)

const (
	bubbleMaxWidth = 220
	bubblePadding  = 8
	bubbleSpacing  = 4
	nameSize       = 11
	bubbleSize     = 12
	spriteHeight   = 2.0 // in tile widths
)

func (s *RoomScene) drawRoom(screen *ebiten.Image, room render.Room) {
	blocked := make(map[grid.Tile]bool, len(room.Obstacles))
	for _, t := range room.Obstacles {
		blocked[t] = true
	}

	for y := 0; y < room.Height; y++ {
		for x := 0; x < room.Width; x++ {
			c := floorLight
			if (x+y)%2 == 1 {
				c = floorDark
			}
			if blocked[grid.Tile{X: x, Y: y}] {
				c = obstacleTile
			}
			s.drawDiamond(screen, float64(x), float64(y), c)
		}
	}

	// Door post on the door tile
	dx, dy := s.proj.TileCenter(float64(room.Door.X), float64(room.Door.Y))
	w := float32(s.proj.TileW / 4)
	h := float32(s.proj.TileH * 2)
	vector.FillRect(screen, float32(dx)-w/2, float32(dy)-h, w, h, doorColor, false)
}

// drawDiamond fills the isometric diamond of tile (x, y).
func (s *RoomScene) drawDiamond(screen *ebiten.Image, x, y float64, c color.RGBA) {
	corners := [4][2]float64{}
	corners[0][0], corners[0][1] = s.proj.ToScreen(x, y)
	corners[1][0], corners[1][1] = s.proj.ToScreen(x+1, y)
	corners[2][0], corners[2][1] = s.proj.ToScreen(x+1, y+1)
	corners[3][0], corners[3][1] = s.proj.ToScreen(x, y+1)

	r, g, b, a := float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255
	vs := make([]ebiten.Vertex, 4)
	for i, p := range corners {
		vs[i] = ebiten.Vertex{
			DstX: float32(p[0]), DstY: float32(p[1]),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: g, ColorB: b, ColorA: a,
		}
	}
	screen.DrawTriangles(vs, []uint16{0, 1, 2, 0, 2, 3}, s.white, nil)

	for i := range corners {
		p, q := corners[i], corners[(i+1)%4]
		vector.StrokeLine(screen, float32(p[0]), float32(p[1]), float32(q[0]), float32(q[1]), 1, color.RGBA{0xCC, 0xCC, 0xCC, 0xFF}, false)
	}
}

func (s *RoomScene) drawCharacters(screen *ebiten.Image, chars []render.Character) {
	if s.display.HideAll {
		return
	}

	var shown []render.Character
	for _, c := range chars {
		if c.Player && s.display.HidePlayer {
			continue
		}
		shown = append(shown, c)
		s.drawBody(screen, c)
	}

	// Labels go on top of every body
	for _, c := range shown {
		if s.display.NameTags {
			s.drawName(screen, c)
		}
		s.drawBubbles(screen, c)
	}
}

func (s *RoomScene) drawBody(screen *ebiten.Image, c render.Character) {
	fx, fy := s.proj.TileCenter(c.X, c.Y)

	set := s.sprites.Get(s.ctx, c.Skin)
	if img, ok := set.Image(c.Direction); ok {
		tex := s.texture(img)
		b := img.Bounds()
		scale := spriteHeight * s.proj.TileW / float64(b.Dy())
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(fx-float64(b.Dx())*scale/2, fy-float64(b.Dy())*scale+s.proj.TileH/4)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(tex, op)
		return
	}

	// Placeholder: shadow, body and head
	bodyW, bodyH := float32(s.proj.TileW/3), float32(s.proj.TileW*0.8)
	x, y := float32(fx), float32(fy)
	vector.FillRect(screen, x-bodyW/2, y-2, bodyW, 4, outline, false)
	vector.FillRect(screen, x-bodyW/2, y-bodyH, bodyW, bodyH, assets.PlaceholderColor(c.ID), false)
	vector.FillCircle(screen, x, y-bodyH, bodyW/2, skinTone, true)
	vector.StrokeCircle(screen, x, y-bodyH, bodyW/2, 1.5, outline, true)
}

// drawOverlay stretches the chosen overlay over the room area.
func (s *RoomScene) drawOverlay(screen *ebiten.Image) {
	d := s.display
	if !d.ShowOverlay || d.OverlayOpacity <= 0 {
		return
	}
	img := s.sprites.Overlay(s.ctx, d.Overlay)
	if img == nil {
		return
	}
	b := img.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(s.window.Width)/float64(b.Dx()), float64(s.window.Height-PanelHeight)/float64(b.Dy()))
	op.ColorScale.ScaleAlpha(float32(d.OverlayOpacity))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(s.texture(img), op)
}

func (s *RoomScene) texture(img image.Image) *ebiten.Image {
	if tex, ok := s.textures[img]; ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(img)
	s.textures[img] = tex
	return tex
}

func (s *RoomScene) headY(c render.Character) float64 {
	_, fy := s.proj.TileCenter(c.X, c.Y)
	return fy - spriteHeight*s.proj.TileW
}

func (s *RoomScene) drawName(screen *ebiten.Image, c render.Character) {
	face := fonts.NameTag.Scaled(nameSize * s.display.NameScale)
	fx, _ := s.proj.TileCenter(c.X, c.Y)
	y := s.headY(c) + s.proj.TileH

	bounds := text.BoundString(face, c.Name)
	w, h := float32(bounds.Dx()+8), float32(bounds.Dy()+6)
	vector.FillRect(screen, float32(fx)-w/2, float32(y)-h, w, h, color.RGBA{255, 255, 255, 230}, false)
	vector.StrokeRect(screen, float32(fx)-w/2, float32(y)-h, w, h, 1, color.RGBA{0, 0, 0, 128}, false)
	text.Draw(screen, c.Name, face, int(fx)-bounds.Dx()/2, int(y)-3, color.Black)
}

type bubbleBox struct {
	lines []string
	w, h  float64
	alpha float64
}

// drawBubbles stacks bubbles above the head, the newest nearest to it.
func (s *RoomScene) drawBubbles(screen *ebiten.Image, c render.Character) {
	if len(c.Bubbles) == 0 {
		return
	}
	face := fonts.Bubble.Scaled(bubbleSize * s.display.BubbleScale)
	lineH := float64(face.Metrics().Height.Ceil())
	measure := func(str string) float64 {
		return float64(font.MeasureString(face, str)) / 64
	}

	boxes := make([]bubbleBox, 0, len(c.Bubbles))
	for _, b := range c.Bubbles {
		lines := render.Wrap(b.Text, bubbleMaxWidth, measure)
		widest := 0.0
		for _, l := range lines {
			widest = math.Max(widest, measure(l))
		}
		boxes = append(boxes, bubbleBox{
			lines: lines,
			w:     widest + 2*bubblePadding,
			h:     float64(len(lines))*lineH + 2*bubblePadding,
			alpha: b.Alpha,
		})
	}

	fx, _ := s.proj.TileCenter(c.X, c.Y)
	bottom := s.headY(c)
	for _, box := range boxes {
		top := bottom - box.h
		a := uint8(255 * box.alpha)
		bg := color.NRGBA{255, 255, 255, a}
		border := color.NRGBA{0x33, 0x33, 0x33, a}
		x := float32(fx - box.w/2)
		vector.FillRect(screen, x, float32(top), float32(box.w), float32(box.h), bg, false)
		vector.StrokeRect(screen, x, float32(top), float32(box.w), float32(box.h), 1.5, border, false)

		for i, l := range box.lines {
			ly := top + bubblePadding + float64(i+1)*lineH - 3
			text.Draw(screen, l, face, int(fx-box.w/2+bubblePadding), int(ly), color.NRGBA{0, 0, 0, a})
		}
		bottom = top - bubbleSpacing
	}
}
