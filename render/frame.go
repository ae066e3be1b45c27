// Package render holds the pure-data draw list produced once per frame and
// the renderers that consume it.
package render

import (
	"go.uber.org/zap"

	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/grid"
)

// Frame is everything needed to draw one frame.
type Frame struct {
	Turn       int
	Room       Room
	Characters []Character // back to front
}

type Room struct {
	Width, Height int
	Door          grid.Tile
	Obstacles     []grid.Tile
}

// Character is a visible character at its interpolated position.
type Character struct {
	ID        string
	Name      string
	Skin      string
	Player    bool
	X, Y      float64
	Depth     float64
	Direction components.Direction
	Moving    bool
	Bubbles   []Bubble // newest first
}

type Bubble struct {
	Text  string
	Alpha float64
}

// Renderer draws frames.
type Renderer interface {
	Render(f Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Frame)

func (fn RendererFunc) Render(f Frame) { fn(f) }

// LogRenderer logs character motion at debug level. It is the renderer of
// headless runs.
type LogRenderer struct {
	logger *zap.Logger
	last   map[string]logged
}

type logged struct {
	tile grid.Tile
	says string
}

func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	return &LogRenderer{
		logger: logger.Named("render"),
		last:   make(map[string]logged),
	}
}

// Render logs only characters whose tile or newest bubble changed.
func (r *LogRenderer) Render(f Frame) {
	for _, c := range f.Characters {
		cur := logged{tile: grid.Tile{X: int(c.X + 0.5), Y: int(c.Y + 0.5)}}
		if len(c.Bubbles) > 0 {
			cur.says = c.Bubbles[0].Text
		}
		key := c.ID
		if c.Player {
			key = "\x00player"
		}
		if prev, ok := r.last[key]; ok && prev == cur {
			continue
		}
		r.last[key] = cur

		r.logger.Debug("character",
			zap.String("name", c.Name),
			zap.Stringer("tile", cur.tile),
			zap.Stringer("facing", c.Direction),
			zap.String("says", cur.says),
		)
	}
}
