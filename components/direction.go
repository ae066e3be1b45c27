package components

import "fmt"

// Direction is the closed set of facings a character sprite can show.
// The zero value is bot-left, the resting facing of a fresh character.
type Direction int

const (
	DirBotLeft Direction = iota
	DirTopLeft
	DirTopRight
	DirBotRight
	DirFace
)

var directionNames = [...]string{
	DirBotLeft:  "bot-left",
	DirTopLeft:  "top-left",
	DirTopRight: "top-right",
	DirBotRight: "bot-right",
	DirFace:     "face",
}

// String returns the asset name of the facing.
func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection maps an asset name back to a Direction.
func ParseDirection(s string) (Direction, bool) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), true
		}
	}
	return DirBotLeft, false
}

// Directions lists every facing, camera last.
var Directions = []Direction{DirBotLeft, DirTopLeft, DirTopRight, DirBotRight, DirFace}

// facingCycle is the rotation order used by manual facing controls.
var facingCycle = []Direction{DirBotLeft, DirTopLeft, DirTopRight, DirBotRight}

// Rotate steps through the four walking facings. The camera facing rotates
// as if it were bot-left.
func (d Direction) Rotate(step int) Direction {
	idx := 0
	for i, c := range facingCycle {
		if c == d {
			idx = i
			break
		}
	}
	n := len(facingCycle)
	return facingCycle[((idx+step)%n+n)%n]
}

// DirectionFor picks the facing for a move by (dx, dy) using the signs of
// both deltas. A zero delta keeps current.
func DirectionFor(dx, dy int, current Direction) Direction {
	sx, sy := sign(dx), sign(dy)
	switch {
	case sx > 0 && sy < 0:
		return DirTopRight
	case sx > 0:
		return DirBotRight
	case sx < 0 && sy == 0:
		return DirTopRight
	case sx < 0 && sy < 0:
		return DirTopLeft
	case sx < 0:
		return DirBotLeft
	case sy > 0:
		return DirBotLeft
	case sy < 0:
		return DirTopLeft
	}
	return current
}

// axisDirection is the facing for a pure single-axis delta.
func axisDirection(dx, dy int) Direction {
	switch {
	case dx > 0:
		return DirBotRight
	case dx < 0:
		return DirTopRight
	case dy > 0:
		return DirBotLeft
	default:
		return DirTopLeft
	}
}

// FaceTowards picks the facing toward a point (dx, dy) away using the
// dominant axis. A zero delta keeps current.
func FaceTowards(dx, dy int, current Direction) Direction {
	if dx == 0 && dy == 0 {
		return current
	}
	if absInt(dx) > absInt(dy) {
		return axisDirection(dx, 0)
	}
	return axisDirection(0, dy)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
