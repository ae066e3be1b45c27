package session

import (
	"strings"

	"github.com/yohamta/donburi"

	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/grid"
	"github.com/automoto/isoroom/pathfinding"
)

// MovePlayer faces the avatar along (dx, dy) and walks it one tile that way.
// Input is ignored while the avatar is mid-step.
func (s *Session) MovePlayer(dx, dy int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := components.Motion.Get(s.player)
	if m.Moving {
		return false
	}
	m.Direction = components.DirectionFor(dx, dy, m.Direction)
	st := &State{s: s}
	return st.WalkTo(s.player, m.Tile().Add(dx, dy))
}

// MovePlayerTo walks the avatar to a picked tile.
func (s *Session) MovePlayerTo(t grid.Tile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if components.Motion.Get(s.player).Moving {
		return false
	}
	st := &State{s: s}
	return st.WalkTo(s.player, t)
}

// PlayerSay shows a bubble over the avatar, which faces the camera for the
// speak hold and then turns back.
func (s *Session) PlayerSay(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := components.Motion.Get(s.player)
	prev := m.Direction
	m.Direction = components.DirFace
	s.speech.Push(s.player, text)

	entity := s.player.Entity()
	s.clock.AfterFunc(s.cfg.Actions.SpeakHold, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.world.Valid(entity) {
			return
		}
		m := components.Motion.Get(s.world.Entry(entity))
		if m.Direction == components.DirFace {
			m.Direction = prev
		}
	})
	return true
}

// CycleFacing rotates the avatar through the walking facings.
func (s *Session) CycleFacing(step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := components.Motion.Get(s.player)
	m.Direction = m.Direction.Rotate(step)
}

// PlayerTile returns the avatar's resting tile.
func (s *Session) PlayerTile() grid.Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return components.Motion.Get(s.player).Tile()
}

// WalkTo paths e to a free target and starts the whole walk at once.
func (st *State) WalkTo(e *donburi.Entry, target grid.Tile) bool {
	if !st.IsTileFree(target) {
		return false
	}
	m := components.Motion.Get(e)
	path, found := st.FindPath(m.Tile(), target)
	if !found {
		return false
	}
	steps := pathfinding.Steps(path)
	if len(steps) == 0 {
		return false
	}
	m.SetPath(steps)
	m.StartMoving()
	return true
}
