package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/automoto/isoroom/actions"
	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/config"
	"github.com/automoto/isoroom/control"
	"github.com/automoto/isoroom/grid"
	"github.com/automoto/isoroom/session"
)

type syncHarness struct {
	t     *testing.T
	clock *clockwork.FakeClock
	s     *session.Session
	x     *actions.Executor
	y     *Synchronizer
}

func newSyncHarness(t *testing.T) *syncHarness {
	t.Helper()
	cfg := config.Default()
	cfg.Motion.Speed = 0.5
	cfg.Actions.Seed = 11
	fc := clockwork.NewFakeClock()
	logger := zaptest.NewLogger(t)
	s := session.New(cfg, grid.NewRoom(10, 10, grid.Tile{X: 0, Y: 3}), fc, logger)
	t.Cleanup(s.Close)
	x := actions.NewExecutor(s, logger)
	return &syncHarness{t: t, clock: fc, s: s, x: x, y: NewSynchronizer(context.Background(), s, x, logger)}
}

// settle drives frames and simulated time until every batch has finished.
func (h *syncHarness) settle() {
	h.t.Helper()
	done := make(chan struct{})
	go func() {
		h.y.Wait()
		close(done)
	}()
	frame := h.s.Config().Motion.FrameInterval()
	for i := 0; i < 100000; i++ {
		select {
		case <-done:
			return
		default:
		}
		h.s.Tick()
		h.clock.Advance(frame)
		runtime.Gosched()
	}
	h.t.Fatal("batches did not finish")
}

func decode(t *testing.T, raw string) Snapshot {
	t.Helper()
	snap, err := DecodeSnapshot([]byte(raw))
	require.NoError(t, err)
	return snap
}

func TestSnapshotSayOnEmptyRegistry(t *testing.T) {
	h := newSyncHarness(t)

	type seen struct {
		facing  components.Direction
		bubbles []string
	}
	var at seen
	h.x.OnSpeak = func(id, text string) {
		h.s.Do(func(st *session.State) {
			e, ok := st.NPC(id)
			require.True(t, ok)
			at.facing = components.Motion.Get(e).Direction
			for _, b := range components.Speech.Get(e).Bubbles {
				at.bubbles = append(at.bubbles, b.Text)
			}
		})
	}

	h.y.Apply(context.Background(), decode(t, `{"turn":1,"characters":{"a":{"name":"Bob","action":{"type":"say","content":"hi"}}}}`))
	h.s.Do(func(st *session.State) {
		e, ok := st.NPC("a")
		require.True(t, ok)
		assert.Equal(t, "Bob", components.Character.Get(e).Name)
	})

	start := h.clock.Now()
	h.settle()

	assert.Equal(t, components.DirFace, at.facing)
	assert.Equal(t, []string{"hi"}, at.bubbles)
	assert.GreaterOrEqual(t, h.clock.Since(start), h.s.Config().Actions.SpeakHold)
	assert.Equal(t, 1, h.s.Turn())

	h.s.Do(func(st *session.State) {
		e, _ := st.NPC("a")
		assert.Equal(t, components.DirBotLeft, components.Motion.Get(e).Direction, "prior facing restored")
		// spawned on a tile that was free
		assert.NotEqual(t, grid.Tile{X: 5, Y: 5}, components.Motion.Get(e).Tile())
	})
}

func TestHiddenUnknownCharacterIsNotCreated(t *testing.T) {
	h := newSyncHarness(t)
	h.y.Apply(context.Background(), decode(t, `{"turn":2,"characters":{
		"ghost":{"name":"Ghost","visible":false,"action":{"type":"say","content":"boo"}},
		"seen":{"name":"Seen"}}}`))
	h.settle()

	h.s.Do(func(st *session.State) {
		assert.Equal(t, []string{"seen"}, st.NPCIDs())
	})
}

func TestHiddenKnownCharacterStillActs(t *testing.T) {
	h := newSyncHarness(t)
	h.y.Apply(context.Background(), decode(t, `{"turn":1,"characters":{"a":{"name":"A"}}}`))

	spoke := 0
	h.x.OnSpeak = func(string, string) { spoke++ }
	h.y.Apply(context.Background(), decode(t, `{"turn":2,"characters":{"a":{"name":"A","visible":false,"action":{"type":"say","content":"still here"}}}}`))
	h.settle()
	assert.Equal(t, 1, spoke)
}

func TestCreationIsIdempotent(t *testing.T) {
	h := newSyncHarness(t)
	snap := decode(t, `{"turn":1,"characters":{"a":{"name":"A"},"b":{"name":"B"}}}`)

	var first map[string]grid.Tile
	h.y.Apply(context.Background(), snap)
	h.s.Do(func(st *session.State) {
		first = map[string]grid.Tile{}
		for _, id := range st.NPCIDs() {
			e, _ := st.NPC(id)
			first[id] = components.Motion.Get(e).Tile()
		}
	})
	h.y.Apply(context.Background(), snap)
	h.s.Do(func(st *session.State) {
		assert.Equal(t, []string{"a", "b"}, st.NPCIDs())
		for id, tile := range first {
			e, _ := st.NPC(id)
			assert.Equal(t, tile, components.Motion.Get(e).Tile())
		}
	})
}

func TestBatchFollowsSnapshotOrder(t *testing.T) {
	h := newSyncHarness(t)
	var order []string
	h.x.OnSpeak = func(id, _ string) { order = append(order, id) }

	h.y.Apply(context.Background(), decode(t, `{"turn":1,"characters":{
		"zed":{"name":"Z","action":{"type":"say","content":"1"}},
		"amy":{"name":"A","action":{"type":"nothing"}},
		"kim":{"name":"K","action":{"type":"say","content":"2"}}}}`))
	start := h.clock.Now()
	h.settle()

	assert.Equal(t, []string{"zed", "kim"}, order)
	cfg := h.s.Config().Actions
	assert.GreaterOrEqual(t, h.clock.Since(start), 2*cfg.SpeakHold+2*cfg.InterActionDelay)
}

func TestTurnWithoutCharacters(t *testing.T) {
	h := newSyncHarness(t)
	h.y.Apply(context.Background(), decode(t, `{"turn":7}`))
	assert.Equal(t, 7, h.s.Turn())
	h.y.Wait()
}

func TestResyncBatchOutlivesControlRequest(t *testing.T) {
	h := newSyncHarness(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/game/turn", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"speakers":[]}`))
	})
	mux.HandleFunc(PullPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"turn":3,"characters":{
			"a":{"name":"A","action":{"type":"say","content":"one"}},
			"b":{"name":"B","action":{"type":"say","content":"two"}}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Sync.Transport = config.TransportPoll
	sc, err := NewClient(srv.URL, cfg.Sync, time.Second, h.clock, zaptest.NewLogger(t), h.y)
	require.NoError(t, err)
	ctl := control.NewClient(config.ControlConfig{ServerURL: srv.URL, RequestTimeout: time.Second}, zaptest.NewLogger(t))
	ctl.Resync = sc.Fetch

	var mu sync.Mutex
	var spoken []string
	h.x.OnSpeak = func(id, text string) {
		mu.Lock()
		defer mu.Unlock()
		spoken = append(spoken, id+":"+text)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	_, err = ctl.ExecuteTurn(ctx)
	require.NoError(t, err)
	cancel()
	h.settle()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a:one", "b:two"}, spoken)
	assert.Equal(t, 3, h.s.Turn())
}

func TestDoneDeliveryContextDropsSnapshot(t *testing.T) {
	h := newSyncHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.y.Apply(ctx, decode(t, `{"turn":4,"characters":{"a":{"name":"A"}}}`))
	h.y.Wait()
	h.s.Do(func(st *session.State) {
		assert.Empty(t, st.NPCIDs())
	})
}
