package systems

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/yohamta/donburi"

	"github.com/automoto/isoroom/components"
	"github.com/automoto/isoroom/config"
)

// Speech manages the speech bubbles of every character. Push must be called
// with mu held; expiry callbacks take mu themselves.
type Speech struct {
	world donburi.World
	mu    sync.Locker
	clock clockwork.Clock

	Cap        int
	Lifetime   time.Duration
	FadeWindow time.Duration
}

func NewSpeech(w donburi.World, mu sync.Locker, clock clockwork.Clock, cfg config.SpeechConfig) *Speech {
	return &Speech{
		world:      w,
		mu:         mu,
		clock:      clock,
		Cap:        cfg.MaxBubbles,
		Lifetime:   cfg.Lifetime,
		FadeWindow: cfg.FadeWindow,
	}
}

// Push adds a bubble as the newest for the entry and evicts the oldest ones
// beyond the cap.
func (s *Speech) Push(e *donburi.Entry, text string) *components.Bubble {
	speech := components.Speech.Get(e)

	b := &components.Bubble{Text: text, CreatedAt: s.clock.Now()}
	entity := e.Entity()
	b.Timer = s.clock.AfterFunc(s.Lifetime, func() {
		s.expire(entity, b)
	})

	speech.Bubbles = append([]*components.Bubble{b}, speech.Bubbles...)
	for len(speech.Bubbles) > s.Cap {
		last := len(speech.Bubbles) - 1
		speech.Bubbles[last].Stop()
		speech.Bubbles = speech.Bubbles[:last]
	}
	return b
}

// expire runs on a timer goroutine, independent of the frame loop.
func (s *Speech) expire(entity donburi.Entity, b *components.Bubble) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.world.Valid(entity) {
		return
	}
	e := s.world.Entry(entity)
	if !e.HasComponent(components.Speech) {
		return
	}
	components.Speech.Get(e).Remove(b)
}

// Alpha is the bubble opacity at now: opaque until the fade window, then
// linear down to zero at the end of its lifetime.
func (s *Speech) Alpha(b *components.Bubble, now time.Time) float64 {
	age := now.Sub(b.CreatedAt)
	fadeStart := s.Lifetime - s.FadeWindow
	switch {
	case age <= fadeStart:
		return 1
	case age >= s.Lifetime:
		return 0
	}
	return 1 - float64(age-fadeStart)/float64(s.FadeWindow)
}

// StopAll cancels every pending expiry and clears all bubbles. Caller holds mu.
func (s *Speech) StopAll() {
	components.Speech.Each(s.world, func(e *donburi.Entry) {
		speech := components.Speech.Get(e)
		for _, b := range speech.Bubbles {
			b.Stop()
		}
		speech.Bubbles = nil
	})
}
