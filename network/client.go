package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/automoto/isoroom/config"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Server paths of the synchronization channel.
const (
	PushPath = "/ws/state"
	PullPath = "/api/game/state"
)

// ErrNotConnected is returned when a push connection is required but absent.
var ErrNotConnected = errors.New("not connected")

// SnapshotHandler consumes decoded snapshots.
type SnapshotHandler interface {
	Apply(ctx context.Context, snap Snapshot)
}

// Client keeps the room in sync with the server, over a WebSocket push
// channel or by polling the pull endpoint. All shared fields are protected
// by mu.
type Client struct {
	mu sync.RWMutex

	state     ClientState
	lastError error
	lastTurn  int
	applied   bool
	conn      *websocket.Conn

	base    *url.URL
	cfg     config.SyncConfig
	http    *http.Client
	clock   clockwork.Clock
	logger  *zap.Logger
	handler SnapshotHandler
}

func NewClient(serverURL string, cfg config.SyncConfig, timeout time.Duration, clock clockwork.Clock, logger *zap.Logger, handler SnapshotHandler) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	return &Client{
		state:   StateDisconnected,
		base:    base,
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		clock:   clock,
		logger:  logger.Named("sync"),
		handler: handler,
	}, nil
}

// Run keeps the channel alive until ctx is done. Transport faults are logged
// and retried; they never end the loop.
func (c *Client) Run(ctx context.Context) error {
	if c.cfg.Transport == config.TransportPoll {
		return c.runPoll(ctx)
	}
	return c.runPush(ctx)
}

func (c *Client) runPush(ctx context.Context) error {
	for {
		err := c.readPush(ctx)
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return ctx.Err()
		}
		c.logger.Warn("state channel closed, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", c.cfg.ReconnectBackoff),
		)
		c.setError(err)

		select {
		case <-c.clock.After(c.cfg.ReconnectBackoff):
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return ctx.Err()
		}
	}
}

func (c *Client) readPush(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, _, err := websocket.Dial(ctx, c.pushURL(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(4 << 20)

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.lastError = nil
	c.mu.Unlock()
	c.logger.Info("state channel connected", zap.String("url", c.pushURL()))

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.CloseNow()
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		snap, err := DecodeSnapshot(data)
		if err != nil {
			c.logger.Warn("dropping undecodable message", zap.Error(err))
			continue
		}
		if snap.IsPing() {
			c.logger.Debug("keepalive")
			continue
		}
		c.deliver(ctx, snap, false)
	}
}

func (c *Client) runPoll(ctx context.Context) error {
	c.setState(StateConnecting)
	for {
		if err := c.Fetch(ctx); err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("poll failed", zap.Error(err))
			}
		} else {
			c.setState(StateConnected)
		}
		select {
		case <-c.clock.After(c.cfg.PollInterval):
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return ctx.Err()
		}
	}
}

// Fetch pulls the current state once and applies it unless that turn was
// already applied.
func (c *Client) Fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+PullPath, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.setError(err)
		return fmt.Errorf("fetch state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetch state: status %d", resp.StatusCode)
		c.setError(err)
		return err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	snap, err := DecodeSnapshot(body)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if snap.IsPing() {
		return nil
	}
	c.deliver(ctx, snap, true)
	return nil
}

func (c *Client) deliver(ctx context.Context, snap Snapshot, dedupe bool) {
	c.mu.Lock()
	if dedupe && snap.HasTurn && c.applied && snap.Turn == c.lastTurn {
		c.mu.Unlock()
		c.logger.Debug("turn already applied", zap.Int("turn", snap.Turn))
		return
	}
	if snap.HasTurn {
		c.lastTurn = snap.Turn
		c.applied = true
	}
	c.mu.Unlock()

	c.logger.Info("snapshot received",
		zap.Int("turn", snap.Turn),
		zap.Int("characters", len(snap.Characters)),
	)
	c.handler.Apply(ctx, snap)
}

func (c *Client) pushURL() string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + PushPath
	return u.String()
}

// Close drops the push connection, if any. Run reconnects unless its
// context is done.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Close(websocket.StatusNormalClosure, "client closing")
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

func (c *Client) setState(s ClientState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}
