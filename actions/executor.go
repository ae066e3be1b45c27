package actions

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/config"
	"github.com/automoto/isoroom/grid"
	"github.com/automoto/isoroom/pathfinding"
	"github.com/automoto/isoroom/session"
)

// Executor runs NPC actions. Every step looks the character up by id again,
// so a character that vanished between steps turns the rest of the action
// into a no-op.
type Executor struct {
	session *session.Session
	clock   clockwork.Clock
	cfg     config.ActionConfig
	logger  *zap.Logger

	// OnSpeak, when set, observes every NPC bubble push.
	OnSpeak func(id, text string)
}

func NewExecutor(s *session.Session, logger *zap.Logger) *Executor {
	return &Executor{
		session: s,
		clock:   s.Clock(),
		cfg:     s.Config().Actions,
		logger:  logger.Named("executor"),
	}
}

// RunBatch executes items one at a time in order, pausing the inter-action
// delay between completions. It stops early only when ctx is done.
func (x *Executor) RunBatch(ctx context.Context, items []Item) error {
	for i, it := range items {
		if err := x.Execute(ctx, it.ID, it.Action); err != nil {
			return err
		}
		if i < len(items)-1 {
			if err := x.hold(ctx, x.cfg.InterActionDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// Execute blocks until the action has fully played out, including every
// wait and the final frame of any motion.
func (x *Executor) Execute(ctx context.Context, id string, a Action) error {
	x.logger.Debug("executing action",
		zap.String("id", id),
		zap.String("type", string(a.Type)),
		zap.String("target", a.Target),
	)

	switch a.Type {
	case Say:
		return x.say(ctx, id, a.Content)
	case SpeakTo:
		return x.speakTo(ctx, id, a.Target, a.Content)
	case Move:
		return x.move(ctx, id)
	case Enter:
		return x.enter(ctx, id, a.Content)
	case Leave:
		return x.leave(ctx, id, a.Content)
	case Nothing:
		return nil
	}
	x.logger.Debug("unknown action type treated as nothing", zap.String("type", string(a.Type)))
	return nil
}

func (x *Executor) say(ctx context.Context, id, content string) error {
	if content == "" {
		return nil
	}

	var prev components.Direction
	ok := false
	x.session.Do(func(st *session.State) {
		e, found := st.NPC(id)
		if !found {
			return
		}
		m := components.Motion.Get(e)
		prev = m.Direction
		m.Direction = components.DirFace
		st.Say(e, content)
		ok = true
	})
	if !ok {
		return nil
	}
	x.spoke(id, content)

	if err := x.hold(ctx, x.cfg.SpeakHold); err != nil {
		return err
	}

	x.session.Do(func(st *session.State) {
		e, found := st.NPC(id)
		if !found {
			return
		}
		m := components.Motion.Get(e)
		if m.Direction == components.DirFace {
			m.Direction = prev
		}
	})
	return nil
}

func (x *Executor) speakTo(ctx context.Context, id, targetID, content string) error {
	var dest grid.Tile
	move, ok := false, false
	x.session.Do(func(st *session.State) {
		actor, found := st.NPC(id)
		if !found {
			return
		}
		target, found := st.NPC(targetID)
		if !found {
			return
		}
		ok = true

		at := components.Motion.Get(actor).Tile()
		tt := components.Motion.Get(target).Tile()
		if grid.Adjacent(at, tt) {
			return
		}
		for _, n := range st.Room().Neighbors4(tt.X, tt.Y) {
			if st.IsTileFree(n) {
				dest, move = n, true
				return
			}
		}
	})
	if !ok {
		return nil
	}

	if move {
		if err := x.moveTo(ctx, id, dest); err != nil {
			return err
		}
	}

	spoke := false
	x.session.Do(func(st *session.State) {
		actor, found := st.NPC(id)
		if !found {
			return
		}
		target, found := st.NPC(targetID)
		if !found {
			return
		}
		m := components.Motion.Get(actor)
		at, tt := m.Tile(), components.Motion.Get(target).Tile()
		m.Direction = components.FaceTowards(tt.X-at.X, tt.Y-at.Y, m.Direction)
		if content != "" {
			st.Say(actor, content)
			spoke = true
		}
	})
	if !spoke {
		return nil
	}
	x.spoke(id, content)
	return x.hold(ctx, x.cfg.SpeakHold)
}

func (x *Executor) move(ctx context.Context, id string) error {
	var dest grid.Tile
	found := false
	x.session.Do(func(st *session.State) {
		if _, ok := st.NPC(id); !ok {
			return
		}
		for i := 0; i < x.cfg.MoveAttempts; i++ {
			t := st.RandomTile()
			if st.IsTileFree(t) {
				dest, found = t, true
				return
			}
		}
	})
	if !found {
		return nil
	}
	return x.moveTo(ctx, id, dest)
}

func (x *Executor) enter(ctx context.Context, id, content string) error {
	ok := false
	x.session.Do(func(st *session.State) {
		e, found := st.NPC(id)
		if !found {
			return
		}
		door := st.Room().Door
		components.Motion.Get(e).Teleport(door.X, door.Y)
		components.Visibility.Get(e).Visible = true
		if content != "" {
			st.Say(e, content)
		}
		ok = true
	})
	if !ok {
		return nil
	}

	if content != "" {
		x.spoke(id, content)
		if err := x.hold(ctx, x.cfg.ArrivalHold); err != nil {
			return err
		}
	}
	return x.move(ctx, id)
}

func (x *Executor) leave(ctx context.Context, id, content string) error {
	var door grid.Tile
	ok := false
	x.session.Do(func(st *session.State) {
		e, found := st.NPC(id)
		if !found {
			return
		}
		door = st.Room().Door
		if content != "" {
			st.Say(e, content)
		}
		ok = true
	})
	if !ok {
		return nil
	}

	if content != "" {
		x.spoke(id, content)
		if err := x.hold(ctx, x.cfg.ArrivalHold); err != nil {
			return err
		}
	}

	if err := x.moveTo(ctx, id, door); err != nil {
		return err
	}

	x.session.Do(func(st *session.State) {
		if e, found := st.NPC(id); found {
			components.Visibility.Get(e).Visible = false
		}
	})
	return nil
}

// moveTo walks the character to dest one tile at a time. Each step is handed
// to the frame loop and awaited on the character's arrival signal.
func (x *Executor) moveTo(ctx context.Context, id string, dest grid.Tile) error {
	var steps []grid.Tile
	x.session.Do(func(st *session.State) {
		e, found := st.NPC(id)
		if !found {
			return
		}
		path, ok := st.FindPath(components.Motion.Get(e).Tile(), dest)
		if !ok {
			return
		}
		steps = pathfinding.Steps(path)
	})

	for _, step := range steps {
		var arrived <-chan struct{}
		aborted := false
		x.session.Do(func(st *session.State) {
			e, found := st.NPC(id)
			if !found || !visible(e) {
				aborted = true
				return
			}
			m := components.Motion.Get(e)
			m.SetPath([]grid.Tile{step})
			m.StartMoving()
			if m.Moving {
				arrived = m.Arrived()
			}
		})
		if aborted {
			return nil
		}
		if arrived == nil {
			continue
		}
		select {
		case <-arrived:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func visible(e *donburi.Entry) bool {
	return components.Visibility.Get(e).Visible
}

func (x *Executor) spoke(id, text string) {
	x.logger.Debug("npc spoke", zap.String("id", id), zap.String("text", text))
	if x.OnSpeak != nil {
		x.OnSpeak(id, text)
	}
}

func (x *Executor) hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-x.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
