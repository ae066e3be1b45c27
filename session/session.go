// Package session owns the live room: the entity world, the room grid, the
// NPC registry and the lock that serializes every mutation of them.
package session

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/config"
	"github.com/automoto/isoroom/grid"
	"github.com/automoto/isoroom/pathfinding"
	"github.com/automoto/isoroom/render"
	"github.com/automoto/isoroom/systems"
	"github.com/automoto/isoroom/systems/factory"
	"github.com/automoto/isoroom/tags"
)

// Session is one client's view of the room. The frame loop, snapshot
// application, NPC executors and bubble timers all go through its lock.
type Session struct {
	mu sync.Mutex

	cfg    config.Config
	world  donburi.World
	room   *grid.Room
	nav    *pathfinding.NavGrid
	speech *systems.Speech
	clock  clockwork.Clock
	rng    *rand.Rand
	logger *zap.Logger

	player *donburi.Entry
	npcs   map[string]*donburi.Entry
	skins  []string
	turn   int
}

// New creates a session with the player at its start tile.
func New(cfg config.Config, room *grid.Room, clock clockwork.Clock, logger *zap.Logger) *Session {
	seed := uint64(cfg.Actions.Seed)
	if seed == 0 {
		seed = uint64(clock.Now().UnixNano())
	}

	w := donburi.NewWorld()
	s := &Session{
		cfg:    cfg,
		world:  w,
		room:   room,
		nav:    pathfinding.NewNavGrid(room),
		clock:  clock,
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
		logger: logger.Named("session"),
		npcs:   make(map[string]*donburi.Entry),
	}
	s.speech = systems.NewSpeech(w, &s.mu, clock, cfg.Speech)

	start := factory.PlayerStart
	if !room.IsWalkable(start.X, start.Y) {
		start = room.Door
	}
	s.player = factory.CreatePlayer(w, start, "", cfg.Motion.Speed)
	return s
}

func (s *Session) Config() config.Config   { return s.cfg }
func (s *Session) Clock() clockwork.Clock  { return s.clock }
func (s *Session) Room() *grid.Room        { return s.room }
func (s *Session) Speech() *systems.Speech { return s.speech }

// Do runs fn with the session lock held. fn must not block.
func (s *Session) Do(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&State{s: s})
}

// Tick advances every character by one frame.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	systems.UpdateMotion(s.world)
}

// SetTurn records the turn of the last applied snapshot.
func (s *Session) SetTurn(turn int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn = turn
}

func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// SetSkins stores the available character skins. The first one dresses the
// player unless it already has a skin.
func (s *Session) SetSkins(skins []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skins = append([]string(nil), skins...)
	if len(s.skins) == 0 {
		return
	}
	ch := components.Character.Get(s.player)
	if ch.SkinID == "" {
		ch.SkinID = s.skins[0]
	}
}

func (s *Session) Skins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.skins...)
}

// SetPlayerSkin changes the avatar's skin.
func (s *Session) SetPlayerSkin(skin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	components.Character.Get(s.player).SkinID = skin
}

// Close stops every pending bubble timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speech.StopAll()
}

// Frame builds the draw list for the current state at time now.
func (s *Session) Frame(now time.Time) render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := render.Frame{
		Turn: s.turn,
		Room: render.Room{
			Width:     s.room.Width,
			Height:    s.room.Height,
			Door:      s.room.Door,
			Obstacles: s.room.Obstacles(),
		},
	}

	collect := func(e *donburi.Entry, isPlayer bool) {
		if !components.Visibility.Get(e).Visible {
			return
		}
		ch := components.Character.Get(e)
		m := components.Motion.Get(e)
		x, y := m.Position()
		c := render.Character{
			ID:        ch.ID,
			Name:      ch.Name,
			Skin:      ch.SkinID,
			Player:    isPlayer,
			X:         x,
			Y:         y,
			Depth:     x + y,
			Direction: m.Direction,
			Moving:    m.Moving,
		}
		for _, b := range components.Speech.Get(e).Bubbles {
			c.Bubbles = append(c.Bubbles, render.Bubble{Text: b.Text, Alpha: s.speech.Alpha(b, now)})
		}
		f.Characters = append(f.Characters, c)
	}

	collect(s.player, true)
	tags.NPC.Each(s.world, func(e *donburi.Entry) {
		collect(e, false)
	})

	sort.SliceStable(f.Characters, func(i, j int) bool {
		a, b := f.Characters[i], f.Characters[j]
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.ID < b.ID
	})
	return f
}

// State is the locked view handed to Do callbacks.
type State struct {
	s *Session
}

func (st *State) World() donburi.World   { return st.s.world }
func (st *State) Room() *grid.Room       { return st.s.room }
func (st *State) Player() *donburi.Entry { return st.s.player }
func (st *State) Now() time.Time         { return st.s.clock.Now() }

// NPC looks up a character by id.
func (st *State) NPC(id string) (*donburi.Entry, bool) {
	e, ok := st.s.npcs[id]
	if !ok || !e.Valid() {
		return nil, false
	}
	return e, true
}

// NPCIDs returns the known ids in sorted order.
func (st *State) NPCIDs() []string {
	ids := make([]string, 0, len(st.s.npcs))
	for id := range st.s.npcs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EnsureNPC returns the NPC with id, creating it on a random free tile with a
// random skin when unknown.
func (st *State) EnsureNPC(id, name string) (e *donburi.Entry, created bool) {
	if e, ok := st.NPC(id); ok {
		return e, false
	}
	s := st.s
	at := st.RandomFreeTile()
	skin := ""
	if len(s.skins) > 0 {
		skin = s.skins[s.rng.IntN(len(s.skins))]
	}
	e = factory.CreateNPC(s.world, id, name, at, skin, s.cfg.Motion.Speed)
	s.npcs[id] = e
	s.logger.Info("npc created", zap.String("id", id), zap.Stringer("tile", at), zap.String("skin", skin))
	return e, true
}

// Occupied reports whether the player or a visible NPC rests on (x, y).
func (st *State) Occupied(x, y int) bool {
	if components.Motion.Get(st.s.player).Tile() == (grid.Tile{X: x, Y: y}) {
		return true
	}
	for _, e := range st.s.npcs {
		if !components.Visibility.Get(e).Visible {
			continue
		}
		if components.Motion.Get(e).Tile() == (grid.Tile{X: x, Y: y}) {
			return true
		}
	}
	return false
}

// IsTileFree reports whether a character may step onto t right now.
func (st *State) IsTileFree(t grid.Tile) bool {
	return st.s.room.IsTileFree(t.X, t.Y, st)
}

// FindPath routes around static obstacles only.
func (st *State) FindPath(from, to grid.Tile) ([]grid.Tile, bool) {
	return st.s.nav.FindPath(from, to)
}

// RandomTile samples a uniformly random in-bounds tile.
func (st *State) RandomTile() grid.Tile {
	r := st.s.room
	return grid.Tile{X: st.s.rng.IntN(r.Width), Y: st.s.rng.IntN(r.Height)}
}

// RandomFreeTile samples up to the configured number of attempts and returns
// the first free tile, or the last sample when none was free.
func (st *State) RandomFreeTile() grid.Tile {
	var t grid.Tile
	for i := 0; i < st.s.cfg.Actions.MoveAttempts; i++ {
		t = st.RandomTile()
		if st.IsTileFree(t) {
			return t
		}
	}
	return t
}

// Say pushes a speech bubble onto the entry.
func (st *State) Say(e *donburi.Entry, text string) *components.Bubble {
	return st.s.speech.Push(e, text)
}
