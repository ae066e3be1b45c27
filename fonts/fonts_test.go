package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	require.NoError(t, LoadDefaults())
	for _, name := range []FontName{NameTag, Bubble} {
		assert.NotNil(t, name.Get(), name)
	}
}

func TestScaledIsCached(t *testing.T) {
	require.NoError(t, LoadDefaults())
	a := Bubble.Scaled(18)
	assert.Same(t, a, Bubble.Scaled(18))
	assert.Greater(t, a.Metrics().Height, Bubble.Get().Metrics().Height)
}

func TestUnknownFontPanics(t *testing.T) {
	assert.Panics(t, func() { FontName("nope").Get() })
}

func TestLoadFontRejectsGarbage(t *testing.T) {
	assert.Error(t, LoadFont("bad", []byte("nope")))
}
