// Package assets fetches the directional character sprites served by the game
// server. A skin that cannot be fetched degrades to a placeholder shape.
package assets

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/automoto/isoroom/components"
)

// SpriteSet holds the images found for one skin, keyed by facing.
type SpriteSet struct {
	Skin   string
	images map[components.Direction]image.Image
}

// Image returns the sprite for d, falling back to the bot-left sprite. ok is
// false when neither exists and the caller should draw the placeholder.
func (s *SpriteSet) Image(d components.Direction) (img image.Image, ok bool) {
	if s == nil {
		return nil, false
	}
	if img, ok = s.images[d]; ok {
		return img, true
	}
	img, ok = s.images[components.DirBotLeft]
	return img, ok
}

// Len reports how many directions loaded.
func (s *SpriteSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.images)
}

// Path is the server path of one directional sprite.
func Path(skin string, d components.Direction) string {
	return fmt.Sprintf("/cache/%s-%s.png", skin, d)
}

// Placeholder palette, indexed by the sum of the id's character codes.
var palette = []color.RGBA{
	{0xFF, 0x6B, 0x6B, 0xFF},
	{0x4E, 0xCD, 0xC4, 0xFF},
	{0x45, 0xB7, 0xD1, 0xFF},
	{0x96, 0xCE, 0xB4, 0xFF},
	{0xFF, 0xEA, 0xA7, 0xFF},
}

// PlaceholderColor picks the body colour drawn for a character without sprites.
func PlaceholderColor(id string) color.RGBA {
	sum := 0
	for _, r := range id {
		sum += int(r)
	}
	return palette[sum%len(palette)]
}

// Library loads sprite sets in the background and caches them by skin.
type Library struct {
	base   string
	http   *http.Client
	logger *zap.Logger

	failures atomic.Int64

	mu       sync.Mutex
	sets     map[string]*SpriteSet
	pending  map[string]bool
	overlays map[string]image.Image
}

func NewLibrary(serverURL string, timeout time.Duration, logger *zap.Logger) *Library {
	return &Library{
		base:     strings.TrimRight(serverURL, "/"),
		http:     &http.Client{Timeout: timeout},
		logger:   logger.Named("assets"),
		sets:     make(map[string]*SpriteSet),
		pending:  make(map[string]bool),
		overlays: make(map[string]image.Image),
	}
}

// Failures returns the number of sprites that could not be loaded.
func (l *Library) Failures() int64 {
	return l.failures.Load()
}

// Get returns the cached set for skin. The first call for an unknown skin
// starts a background load and returns nil until it finishes.
func (l *Library) Get(ctx context.Context, skin string) *SpriteSet {
	if skin == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.sets[skin]; ok {
		return s
	}
	if !l.pending[skin] {
		l.pending[skin] = true
		go func() {
			s := l.Load(ctx, skin)
			l.mu.Lock()
			l.sets[skin] = s
			delete(l.pending, skin)
			l.mu.Unlock()
		}()
	}
	return nil
}

// Load fetches all five directions for skin. Failed directions are counted
// and left out; failures are not retried.
func (l *Library) Load(ctx context.Context, skin string) *SpriteSet {
	s := &SpriteSet{Skin: skin, images: make(map[components.Direction]image.Image, len(components.Directions))}
	for _, d := range components.Directions {
		img, err := l.fetch(ctx, Path(skin, d))
		if err != nil {
			l.failures.Add(1)
			l.logger.Warn("sprite unavailable", zap.String("skin", skin), zap.Stringer("direction", d), zap.Error(err))
			continue
		}
		s.images[d] = img
	}
	l.logger.Debug("sprite set loaded", zap.String("skin", skin), zap.Int("directions", s.Len()))
	return s
}

// Overlay returns the overlay image at path, starting a background load on
// first use. It returns nil until the load finishes and forever after a
// failed load.
func (l *Library) Overlay(ctx context.Context, path string) image.Image {
	if path == "" {
		return nil
	}
	key := "overlay:" + path
	l.mu.Lock()
	defer l.mu.Unlock()
	if img, ok := l.overlays[path]; ok {
		return img
	}
	if !l.pending[key] {
		l.pending[key] = true
		go func() {
			img, err := l.fetch(ctx, path)
			if err != nil {
				l.failures.Add(1)
				l.logger.Warn("overlay unavailable", zap.String("path", path), zap.Error(err))
			}
			l.mu.Lock()
			l.overlays[path] = img
			delete(l.pending, key)
			l.mu.Unlock()
		}()
	}
	return nil
}

func (l *Library) fetch(ctx context.Context, path string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", path, resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
