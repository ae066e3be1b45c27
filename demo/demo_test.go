package demo

import (
	"context"
	"runtime"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/automoto/isoroom/actions"
	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/config"
	"github.com/automoto/isoroom/grid"
	"github.com/automoto/isoroom/session"
)

func TestDefaultScriptParses(t *testing.T) {
	sc := Default()
	require.Len(t, sc.Spawn, 2)
	assert.Equal(t, "test-npc-1", sc.Spawn[0].ID)
	require.Len(t, sc.Steps, 6)
	assert.Equal(t, actions.SpeakTo, sc.Steps[1].Action.Type)
	assert.Equal(t, "test-npc-2", sc.Steps[1].Action.Target)
}

func TestParseRejectsBadScripts(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - id: a\n    action:\n      type: dance\n"))
	assert.ErrorContains(t, err, `unknown action "dance"`)

	_, err = Parse([]byte("steps:\n  - action:\n      type: say\n"))
	assert.ErrorContains(t, err, "missing id")

	_, err = Parse([]byte("bogus: 1\n"))
	assert.Error(t, err)
}

func TestRunPlaysScript(t *testing.T) {
	cfg := config.Default()
	cfg.Motion.Speed = 0.5
	cfg.Actions.Seed = 7
	fc := clockwork.NewFakeClock()
	logger := zaptest.NewLogger(t)
	room := grid.NewRoom(cfg.Room.Width, cfg.Room.Height, grid.Tile{X: cfg.Room.DoorX, Y: cfg.Room.DoorY})
	s := session.New(cfg, room, fc, logger)
	t.Cleanup(s.Close)

	x := actions.NewExecutor(s, logger)
	var said []string
	x.OnSpeak = func(id, text string) { said = append(said, id+": "+text) }

	done := make(chan error, 1)
	go func() { done <- Default().Run(context.Background(), s, x) }()

	frame := cfg.Motion.FrameInterval()
	for i := 0; ; i++ {
		require.Less(t, i, 200000, "script did not finish")
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Equal(t, []string{
				"test-npc-1: Hello, I am a test NPC!",
				"test-npc-1: Hey TestBot2, how are you?",
				"test-npc-1: Goodbye everyone!",
				"test-npc-1: Hello everyone, I just arrived!",
			}, said)
			s.Do(func(st *session.State) {
				e, ok := st.NPC("test-npc-1")
				require.True(t, ok)
				assert.True(t, components.Visibility.Get(e).Visible, "enter shows the character again")
				_, ok = st.NPC("test-npc-2")
				assert.True(t, ok)
			})
			return
		default:
		}
		s.Tick()
		fc.Advance(frame)
		runtime.Gosched()
	}
}
