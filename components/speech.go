package components

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/yohamta/donburi"
)

// Bubble is one transient line of speech. Timer removes it on expiry.
type Bubble struct {
	Text      string
	CreatedAt time.Time
	Timer     clockwork.Timer
}

// Stop cancels the bubble's expiry.
func (b *Bubble) Stop() {
	if b.Timer != nil {
		b.Timer.Stop()
	}
}

// SpeechData holds live bubbles, newest first.
type SpeechData struct {
	Bubbles []*Bubble
}

var Speech = donburi.NewComponentType[SpeechData]()

// Remove drops a bubble by identity. It reports whether it was present.
func (s *SpeechData) Remove(b *Bubble) bool {
	for i, cur := range s.Bubbles {
		if cur == b {
			s.Bubbles = append(s.Bubbles[:i:i], s.Bubbles[i+1:]...)
			return true
		}
	}
	return false
}
