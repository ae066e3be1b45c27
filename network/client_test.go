package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/automoto/isoroom/config"
)

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) Apply(_ context.Context, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recorder) turns() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, s := range r.snaps {
		out = append(out, s.Turn)
	}
	return out
}

func newTestClient(t *testing.T, url, transport string, fc clockwork.Clock, h SnapshotHandler) *Client {
	t.Helper()
	cfg := config.Default().Sync
	cfg.Transport = transport
	c, err := NewClient(url, cfg, time.Second, fc, zaptest.NewLogger(t), h)
	require.NoError(t, err)
	return c
}

func TestPollSkipsAppliedTurn(t *testing.T) {
	var turn atomic.Int32
	turn.Store(1)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PullPath, r.URL.Path)
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"turn":` + strconv.Itoa(int(turn.Load())) + `,"characters":{}}`))
	}))
	defer srv.Close()

	fc := clockwork.NewFakeClock()
	rec := &recorder{}
	c := newTestClient(t, srv.URL, config.TransportPoll, fc, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	assert.Equal(t, []int{1}, rec.turns())
	assert.Equal(t, StateConnected, c.State())

	fc.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return hits.Load() == 2 }, time.Second, time.Millisecond)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	assert.Equal(t, []int{1}, rec.turns(), "same turn is applied once")

	turn.Store(2)
	fc.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return len(rec.turns()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{1, 2}, rec.turns())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := newTestClient(t, srv.URL, config.TransportPoll, clockwork.NewFakeClock(), rec)
	err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, c.State())
	assert.Error(t, c.LastError())
	assert.Empty(t, rec.turns())
}

func TestPushIgnoresPingAndReconnects(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PushPath, r.URL.Path)
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		n := conns.Add(1)
		ctx := r.Context()
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"type":"ping"}`))
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"turn":`+strconv.Itoa(int(n))+`,"characters":{"a":{"name":"A"}}}`))
		if n == 1 {
			// drop the first client to force a reconnect
			_ = conn.Close(websocket.StatusGoingAway, "restart")
			return
		}
		<-ctx.Done()
		_ = conn.CloseNow()
	}))
	defer srv.Close()

	fc := clockwork.NewFakeClock()
	rec := &recorder{}
	c := newTestClient(t, srv.URL, config.TransportWebSocket, fc, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// first connection delivers turn 1 then drops; the client waits out the backoff
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	assert.Equal(t, []int{1}, rec.turns())
	assert.Equal(t, StateError, c.State())

	fc.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return len(rec.turns()) == 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []int{1, 2}, rec.turns())
	assert.Equal(t, int32(2), conns.Load())
	assert.Equal(t, StateConnected, c.State())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPushURL(t *testing.T) {
	c := newTestClient(t, "https://game.example/base/", config.TransportWebSocket, clockwork.NewFakeClock(), &recorder{})
	assert.Equal(t, "wss://game.example/base/ws/state", c.pushURL())

	c = newTestClient(t, "http://localhost:8000", config.TransportWebSocket, clockwork.NewFakeClock(), &recorder{})
	assert.Equal(t, "ws://localhost:8000/ws/state", c.pushURL())
}

func TestCloseWithoutConnection(t *testing.T) {
	c := newTestClient(t, "http://localhost:8000", config.TransportWebSocket, clockwork.NewFakeClock(), &recorder{})
	assert.ErrorIs(t, c.Close(), ErrNotConnected)
	assert.Equal(t, "disconnected", c.State().String())
}
