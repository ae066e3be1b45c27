package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

type FontName string

const (
	NameTag FontName = "name-tag"
	Bubble  FontName = "bubble"
)

func (f FontName) Get() font.Face {
	return getFont(f)
}

var (
	mu    sync.RWMutex
	fonts = map[FontName]font.Face{}
	cache = map[sizedKey]font.Face{}
	ttfs  = map[FontName]*truetype.Font{}
)

type sizedKey struct {
	name FontName
	size float64
}

// LoadDefaults registers the bundled Go fonts under every FontName.
func LoadDefaults() error {
	if err := LoadFontWithSize(NameTag, gobold.TTF, 11); err != nil {
		return err
	}
	return LoadFontWithSize(Bubble, goregular.TTF, 12)
}

func LoadFont(name FontName, ttf []byte) error {
	return LoadFontWithSize(name, ttf, 10)
}

func LoadFontWithSize(name FontName, ttf []byte, size float64) error {
	fontData, err := truetype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", name, err)
	}
	mu.Lock()
	defer mu.Unlock()
	ttfs[name] = fontData
	fonts[name] = truetype.NewFace(fontData, &truetype.Options{Size: size})
	return nil
}

// Scaled returns the font at an explicit size, used for the name and bubble
// scale display settings.
func (f FontName) Scaled(size float64) font.Face {
	key := sizedKey{f, size}
	mu.RLock()
	face, ok := cache[key]
	mu.RUnlock()
	if ok {
		return face
	}

	mu.Lock()
	defer mu.Unlock()
	ttf, ok := ttfs[f]
	if !ok {
		panic(fmt.Sprintf("Font %s not found", f))
	}
	face = truetype.NewFace(ttf, &truetype.Options{Size: size})
	cache[key] = face
	return face
}

func getFont(name FontName) font.Face {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := fonts[name]
	if !ok {
		panic(fmt.Sprintf("Font %s not found", name))
	}
	return f
}
