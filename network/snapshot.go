package network

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/automoto/isoroom/actions"
)

// TypePing marks a keepalive message.
const TypePing = "ping"

// Snapshot is one server description of every known character for a turn.
type Snapshot struct {
	Type       string
	Turn       int
	HasTurn    bool
	Characters []CharacterState // wire order
}

// IsPing reports whether the message is a keepalive.
func (s Snapshot) IsPing() bool {
	return s.Type == TypePing
}

// CharacterState is one entry of the characters object.
type CharacterState struct {
	ID      string
	Name    string
	Visible *bool
	Action  *actions.Action
}

// Hidden reports whether the server explicitly marked the character invisible.
func (c CharacterState) Hidden() bool {
	return c.Visible != nil && !*c.Visible
}

type characterWire struct {
	Name    string          `json:"name"`
	Visible *bool           `json:"visible"`
	Action  *actions.Action `json:"action"`
}

var errInvalidJSON = errors.New("invalid snapshot json")

// DecodeSnapshot parses a snapshot keeping the characters in the order the
// server wrote them.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, errInvalidJSON
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return Snapshot{}, fmt.Errorf("%w: top level is not an object", errInvalidJSON)
	}

	snap := Snapshot{Type: res.Get("type").String()}
	if turn := res.Get("turn"); turn.Exists() && turn.Type == gjson.Number {
		snap.Turn = int(turn.Int())
		snap.HasTurn = true
	}

	chars := res.Get("characters")
	if !chars.IsObject() {
		return snap, nil
	}

	var decodeErr error
	chars.ForEach(func(key, value gjson.Result) bool {
		var w characterWire
		if err := json.Unmarshal([]byte(value.Raw), &w); err != nil {
			decodeErr = fmt.Errorf("decode character %q: %w", key.String(), err)
			return false
		}
		cs := CharacterState{
			ID:      key.String(),
			Name:    w.Name,
			Visible: w.Visible,
		}
		if w.Action != nil && w.Action.Type != "" {
			cs.Action = w.Action
		}
		snap.Characters = append(snap.Characters, cs)
		return true
	})
	if decodeErr != nil {
		return Snapshot{}, decodeErr
	}
	return snap, nil
}
