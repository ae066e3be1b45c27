// Package demo plays a scripted action batch against the local session
// without a game server.
package demo

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/automoto/isoroom/actions"
	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/session"
)

//go:embed script.yaml
var defaultScript []byte

// Spawn is a character created before the script runs.
type Spawn struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Hidden bool   `yaml:"hidden"`
}

type Script struct {
	Spawn []Spawn        `yaml:"spawn"`
	Steps []actions.Item `yaml:"steps"`
}

// Parse decodes a script and rejects unknown fields, ids and action types.
func Parse(data []byte) (Script, error) {
	var sc Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return Script{}, fmt.Errorf("decode demo script: %w", err)
	}

	var errs []error
	for i, sp := range sc.Spawn {
		if sp.ID == "" {
			errs = append(errs, fmt.Errorf("spawn %d: missing id", i))
		}
	}
	for i, st := range sc.Steps {
		if st.ID == "" {
			errs = append(errs, fmt.Errorf("step %d: missing id", i))
		}
		if !st.Action.Type.Known() {
			errs = append(errs, fmt.Errorf("step %d: unknown action %q", i, st.Action.Type))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Script{}, fmt.Errorf("invalid demo script: %w", err)
	}
	return sc, nil
}

// Default returns the embedded script.
func Default() Script {
	sc, err := Parse(defaultScript)
	if err != nil {
		panic(err)
	}
	return sc
}

// Run spawns the script's characters and plays its steps as one batch.
func (sc Script) Run(ctx context.Context, s *session.Session, x *actions.Executor) error {
	s.Do(func(st *session.State) {
		for _, sp := range sc.Spawn {
			e, created := st.EnsureNPC(sp.ID, sp.Name)
			if created && sp.Hidden {
				components.Visibility.Get(e).Visible = false
			}
		}
	})
	return x.RunBatch(ctx, sc.Steps)
}
