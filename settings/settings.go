// Package settings persists the viewer's display preferences between runs.
package settings

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/quasilyte/gdata"
	"go.uber.org/zap"
)

const displayKey = "display"

// Scale bounds for the name tag and bubble sliders.
const (
	MinScale = 0.5
	MaxScale = 2.0
)

// Display holds the toggles and sliders of the view panel.
type Display struct {
	NameTags    bool    `json:"nameTags"`
	NameScale   float64 `json:"nameScale"`
	BubbleScale float64 `json:"bubbleScale"`
	HidePlayer  bool    `json:"hidePlayer"`
	HideAll     bool    `json:"hideAll"`
	Skin        string  `json:"skin,omitempty"`

	// Overlay is the server path of the chosen room overlay image.
	Overlay           string  `json:"overlay,omitempty"`
	ShowOverlay       bool    `json:"showOverlay"`
	OverlayOpacity    float64 `json:"overlayOpacity"`
	OverlayForeground bool    `json:"overlayForeground"`
}

func DefaultDisplay() Display {
	return Display{
		NameTags:       true,
		NameScale:      1,
		BubbleScale:    1,
		ShowOverlay:    true,
		OverlayOpacity: 1,
	}
}

// ScaleStep is one press of a scale button.
const ScaleStep = 0.25

// ScaleNames moves the name tag scale by steps, staying in range.
func (d Display) ScaleNames(steps int) Display {
	d.NameScale += float64(steps) * ScaleStep
	return d.Clamp()
}

// ScaleBubbles moves the bubble scale by steps, staying in range.
func (d Display) ScaleBubbles(steps int) Display {
	d.BubbleScale += float64(steps) * ScaleStep
	return d.Clamp()
}

// OpacityStep is one press of an overlay opacity button.
const OpacityStep = 0.1

// FadeOverlay moves the overlay opacity by steps, staying in [0, 1].
func (d Display) FadeOverlay(steps int) Display {
	d.OverlayOpacity += float64(steps) * OpacityStep
	return d.Clamp()
}

// CycleSkin moves Skin by step through skins, wrapping around. From an
// unknown or empty Skin a forward step lands on the first entry and a
// backward step on the last.
func (d Display) CycleSkin(skins []string, step int) Display {
	n := len(skins)
	if n == 0 || step == 0 {
		return d
	}
	i := -1
	if step < 0 {
		i = n
	}
	for j, s := range skins {
		if s == d.Skin {
			i = j
			break
		}
	}
	d.Skin = skins[((i+step)%n+n)%n]
	return d
}

// CycleOverlay moves Overlay by step through paths, with "" meaning no
// overlay sitting before the first path.
func (d Display) CycleOverlay(paths []string, step int) Display {
	options := append([]string{""}, paths...)
	i := 0
	for j, p := range options {
		if p == d.Overlay {
			i = j
			break
		}
	}
	n := len(options)
	d.Overlay = options[((i+step)%n+n)%n]
	return d
}

// Clamp brings the scales and the overlay opacity back into range.
func (d Display) Clamp() Display {
	d.NameScale = clampScale(d.NameScale)
	d.BubbleScale = clampScale(d.BubbleScale)
	d.OverlayOpacity = math.Max(0, math.Min(1, d.OverlayOpacity))
	return d
}

func clampScale(v float64) float64 {
	switch {
	case v < MinScale:
		return MinScale
	case v > MaxScale:
		return MaxScale
	}
	return v
}

// ItemStore is the subset of gdata.Manager the store needs.
type ItemStore interface {
	LoadItem(key string) ([]byte, error)
	SaveItem(key string, data []byte) error
}

// Store reads and writes Display. A Store without a backing ItemStore
// behaves as if nothing was ever saved.
type Store struct {
	items  ItemStore
	logger *zap.Logger
}

// Open creates a Store backed by the platform data directory for appName.
func Open(appName string, logger *zap.Logger) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return &Store{logger: logger.Named("settings")}, fmt.Errorf("open settings storage: %w", err)
	}
	return NewStore(m, logger), nil
}

func NewStore(items ItemStore, logger *zap.Logger) *Store {
	return &Store{items: items, logger: logger.Named("settings")}
}

// Load returns the saved preferences, or the defaults when none are stored or
// the stored data is unreadable.
func (s *Store) Load() Display {
	d := DefaultDisplay()
	if s == nil || s.items == nil {
		return d
	}

	data, err := s.items.LoadItem(displayKey)
	if err != nil {
		s.logger.Warn("could not load display settings", zap.Error(err))
		return d
	}
	if len(data) == 0 {
		return d
	}
	if err := json.Unmarshal(data, &d); err != nil {
		s.logger.Warn("could not parse display settings", zap.Error(err))
		return DefaultDisplay()
	}
	return d.Clamp()
}

// Save writes d after clamping it.
func (s *Store) Save(d Display) error {
	if s == nil || s.items == nil {
		return nil
	}
	data, err := json.Marshal(d.Clamp())
	if err != nil {
		return fmt.Errorf("encode display settings: %w", err)
	}
	if err := s.items.SaveItem(displayKey, data); err != nil {
		s.logger.Warn("could not save display settings", zap.Error(err))
		return fmt.Errorf("save display settings: %w", err)
	}
	return nil
}
