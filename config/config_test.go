package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.Room.Width)
	assert.Equal(t, 10, cfg.Room.Height)
	assert.Equal(t, 0, cfg.Room.DoorX)
	assert.Equal(t, 3, cfg.Room.DoorY)
	assert.InDelta(t, 0.15, cfg.Motion.Speed, 1e-9)
	assert.Equal(t, 5, cfg.Speech.MaxBubbles)
	assert.Equal(t, 5*time.Second, cfg.Speech.Lifetime)
	assert.Equal(t, time.Second, cfg.Speech.FadeWindow)
	assert.Equal(t, 2*time.Second, cfg.Actions.SpeakHold)
	assert.Equal(t, 1500*time.Millisecond, cfg.Actions.ArrivalHold)
	assert.Equal(t, 500*time.Millisecond, cfg.Actions.InterActionDelay)
	assert.Equal(t, 20, cfg.Actions.MoveAttempts)
	assert.Equal(t, 3*time.Second, cfg.Sync.ReconnectBackoff)
	assert.Equal(t, 5*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, TransportWebSocket, cfg.Sync.Transport)
	assert.Equal(t, "http://localhost:8000", cfg.Control.ServerURL)
}

func TestFrameInterval(t *testing.T) {
	m := MotionConfig{FPS: 50}
	assert.Equal(t, 20*time.Millisecond, m.FrameInterval())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "isoroom.yaml")
	err := os.WriteFile(path, []byte(`
room:
  width: 12
  height: 8
  door_x: 0
  door_y: 2
motion:
  speed: 0.25
speech:
  lifetime: 3s
  fade_window: 500ms
sync:
  transport: poll
  poll_interval: 2s
control:
  server_url: http://game.local:9000
logging:
  level: debug
  format: json
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Room.Width)
	assert.Equal(t, 2, cfg.Room.DoorY)
	assert.InDelta(t, 0.25, cfg.Motion.Speed, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Speech.Lifetime)
	assert.Equal(t, 500*time.Millisecond, cfg.Speech.FadeWindow)
	assert.Equal(t, TransportPoll, cfg.Sync.Transport)
	assert.Equal(t, 2*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, "http://game.local:9000", cfg.Control.ServerURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.Speech.MaxBubbles)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ISOROOM_SYNC_TRANSPORT", "poll")
	t.Setenv("ISOROOM_CONTROL_SERVER_URL", "https://example.test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, TransportPoll, cfg.Sync.Transport)
	assert.Equal(t, "https://example.test", cfg.Control.ServerURL)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := Default()
	cfg.Sync.Transport = "carrier-pigeon"
	cfg.Speech.MaxBubbles = 0
	cfg.Logging.Level = "trace"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.transport")
	assert.Contains(t, err.Error(), "speech.max_bubbles")
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidateDoorInsideRoom(t *testing.T) {
	cfg := Default()
	cfg.Room.DoorX = 10
	assert.Error(t, cfg.Validate())

	// a map file supplies its own door
	cfg.Room.MapFile = "room.tmx"
	assert.NoError(t, cfg.Validate())
}

func TestValidateServerURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8000", "ftp://host", "http://"} {
		cfg := Default()
		cfg.Control.ServerURL = u
		assert.Error(t, cfg.Validate(), "url %q should be rejected", u)
	}
}

func TestValidateFadeWindow(t *testing.T) {
	cfg := Default()
	cfg.Speech.FadeWindow = cfg.Speech.Lifetime + time.Second
	assert.Error(t, cfg.Validate())
}

func TestPropertyMotionSpeedRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		speed := rapid.Float64Range(-2, 2).Draw(t, "speed")
		cfg := Default()
		cfg.Motion.Speed = speed
		err := cfg.Validate()
		if speed > 0 && speed <= 1 {
			assert.NoError(t, err)
		} else {
			assert.Error(t, err)
		}
	})
}
