// Package loop drives the session at a fixed frame rate without a window.
package loop

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/automoto/isoroom/render"
	"github.com/automoto/isoroom/session"
)

// Driver advances the session and renders one frame per clock tick.
type Driver struct {
	Session  *session.Session
	Renderer render.Renderer
	Clock    clockwork.Clock
	FPS      int
}

// Step runs one frame: advance every character, then render.
func (d *Driver) Step(now time.Time) {
	d.Session.Tick()
	d.Renderer.Render(d.Session.Frame(now))
}

// Run steps until ctx is done and returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	if d.FPS < 1 {
		return errors.New("loop: fps must be positive")
	}
	ticker := d.Clock.NewTicker(time.Second / time.Duration(d.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.Chan():
			d.Step(now)
		}
	}
}
