package components

import (
	"math"

	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"

	"github.com/automoto/isoroom/grid"
)

// MotionData is the per-entity movement state machine. X, Y is the resting
// position; while Moving the entity travels toward (TargetX, TargetY) and
// Progress grows by Speed each frame until the step commits.
type MotionData struct {
	X, Y             float64
	TargetX, TargetY int
	Progress         float64
	Speed            float64
	Direction        Direction
	Path             []grid.Tile
	Moving           bool

	arrived chan struct{}
}

var Motion = donburi.NewComponentType[MotionData]()

// Tile returns the floored resting position.
func (m *MotionData) Tile() grid.Tile {
	return grid.Tile{X: int(math.Floor(m.X)), Y: int(math.Floor(m.Y))}
}

// SetPath replaces the remaining path. The caller starts the move.
func (m *MotionData) SetPath(path []grid.Tile) {
	m.Path = append([]grid.Tile(nil), path...)
}

// StartMoving begins the step toward the head of the path, or goes idle when
// the path is empty.
func (m *MotionData) StartMoving() {
	if len(m.Path) == 0 {
		m.Moving = false
		m.Progress = 0
		return
	}
	head := m.Path[0]
	cur := m.Tile()
	m.TargetX, m.TargetY = head.X, head.Y
	m.Progress = 0
	m.Moving = true
	m.Direction = DirectionFor(head.X-cur.X, head.Y-cur.Y, m.Direction)
}

// Advance runs one frame of motion. It reports whether a step committed.
func (m *MotionData) Advance() bool {
	if !m.Moving {
		return false
	}
	m.Progress += m.Speed
	if m.Progress < 1 {
		return false
	}

	m.X, m.Y = float64(m.TargetX), float64(m.TargetY)
	m.Progress = 0
	if len(m.Path) > 0 {
		m.Path = m.Path[1:]
	}
	m.release()
	m.StartMoving()
	return true
}

// Position returns the eased render position.
func (m *MotionData) Position() (x, y float64) {
	if !m.Moving || m.Progress <= 0 || m.Progress >= 1 {
		return m.X, m.Y
	}
	t := float64(ease.InOutQuad(float32(m.Progress), 0, 1, 1))
	t = math.Max(0, math.Min(1, t))
	return m.X + (float64(m.TargetX)-m.X)*t, m.Y + (float64(m.TargetY)-m.Y)*t
}

// Teleport places the entity on a tile and cancels any move in flight.
func (m *MotionData) Teleport(x, y int) {
	m.X, m.Y = float64(x), float64(y)
	m.Stop()
}

// Stop drops the remaining path and releases anyone waiting for arrival.
func (m *MotionData) Stop() {
	m.Path = nil
	m.Moving = false
	m.Progress = 0
	m.release()
}

// Arrived returns a channel closed at the next step commit, teleport or stop.
func (m *MotionData) Arrived() <-chan struct{} {
	if m.arrived == nil {
		m.arrived = make(chan struct{})
	}
	return m.arrived
}

func (m *MotionData) release() {
	if m.arrived != nil {
		close(m.arrived)
		m.arrived = nil
	}
}
