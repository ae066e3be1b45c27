// Package control talks to the game server's turn and agent management API.
// A successful state-changing call triggers a re-sync of the room.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/automoto/isoroom/config"
)

// ErrNotFound is returned when the server has no such resource.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx reply.
type StatusError struct {
	Method, Path string
	Code         int
	Body         string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Agent is a server-side controllable character.
type Agent struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Model        string  `json:"model"`
	Instructions string  `json:"instructions"`
	Visible      bool    `json:"visible"`
	Temperature  float64 `json:"temperature"`
	CreatedAt    string  `json:"created_at"`
	ActionCount  int     `json:"action_count"`
}

// NewAgent is the body of a create request.
type NewAgent struct {
	Name         string  `json:"name"`
	Instructions string  `json:"instructions"`
	Model        string  `json:"model,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// Validate mirrors the server's field limits so the UI can fail fast.
func (a NewAgent) Validate() error {
	var errs []string
	if n := len(strings.TrimSpace(a.Name)); n == 0 || n > 50 {
		errs = append(errs, "name must be 1-50 characters")
	}
	if n := len(strings.TrimSpace(a.Instructions)); n == 0 || n > 1000 {
		errs = append(errs, "instructions must be 1-1000 characters")
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		errs = append(errs, "temperature must be between 0 and 2")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// TurnSummary is what the server reports after running a turn.
type TurnSummary struct {
	Speakers        []map[string]string `json:"speakers"`
	PrivateMessages []map[string]string `json:"private_messages"`
	Movements       []map[string]string `json:"movements"`
	Arrivals        []string            `json:"arrivals"`
	Departures      []map[string]string `json:"departures"`
}

// Overlay is a decorative image the server offers for the room.
type Overlay struct {
	Path   string `json:"path"`
	Theme  string `json:"theme"`
	Active bool   `json:"active"`
}

// MapInfo names the current room layout.
type MapInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Client is the control API client.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger

	// Resync, when set, runs after every successful state-changing call.
	Resync func(ctx context.Context) error
}

func NewClient(cfg config.ControlConfig, logger *zap.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(cfg.ServerURL, "/"),
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger.Named("control"),
	}
}

func (c *Client) StartGame(ctx context.Context) error {
	return c.mutate(ctx, http.MethodPost, "/api/game/start", nil, nil)
}

func (c *Client) StopGame(ctx context.Context) error {
	return c.mutate(ctx, http.MethodPost, "/api/game/stop", nil, nil)
}

// ExecuteTurn asks the server to run one turn.
func (c *Client) ExecuteTurn(ctx context.Context) (TurnSummary, error) {
	var out TurnSummary
	err := c.mutate(ctx, http.MethodPost, "/api/game/turn", nil, &out)
	return out, err
}

func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var out []Agent
	err := c.do(ctx, http.MethodGet, "/api/agents", nil, &out)
	return out, err
}

func (c *Client) CreateAgent(ctx context.Context, a NewAgent) (Agent, error) {
	var out Agent
	if err := a.Validate(); err != nil {
		return out, fmt.Errorf("create agent: %w", err)
	}
	err := c.mutate(ctx, http.MethodPost, "/api/agents", a, &out)
	return out, err
}

func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete agent: empty id")
	}
	return c.mutate(ctx, http.MethodDelete, "/api/agents/"+url.PathEscape(id), nil, nil)
}

// ListCharacters returns the ordered skin identifiers.
func (c *Client) ListCharacters(ctx context.Context) ([]string, error) {
	var out struct {
		Characters []string `json:"characters"`
	}
	err := c.do(ctx, http.MethodGet, "/api/characters", nil, &out)
	return out.Characters, err
}

func (c *Client) GameMap(ctx context.Context) (MapInfo, error) {
	var out MapInfo
	err := c.do(ctx, http.MethodGet, "/api/game/map", nil, &out)
	return out, err
}

// ListOverlays returns the overlay images the server offers.
func (c *Client) ListOverlays(ctx context.Context) ([]Overlay, error) {
	var out struct {
		Overlays []Overlay `json:"overlays"`
	}
	err := c.do(ctx, http.MethodGet, "/api/overlays", nil, &out)
	return out.Overlays, err
}

func (c *Client) mutate(ctx context.Context, method, path string, in, out any) error {
	if err := c.do(ctx, method, path, in, out); err != nil {
		return err
	}
	if c.Resync != nil {
		if err := c.Resync(ctx); err != nil {
			c.logger.Warn("re-sync after control call failed", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("control call failed", zap.String("method", method), zap.String("path", path), zap.String("request_id", reqID), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		err := &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		c.logger.Warn("control call rejected", zap.String("request_id", reqID), zap.Error(err))
		return err
	}

	c.logger.Debug("control call", zap.String("method", method), zap.String("path", path), zap.String("request_id", reqID))
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
