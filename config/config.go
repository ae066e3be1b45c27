package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Transport modes for the state synchronization channel.
const (
	TransportWebSocket = "websocket"
	TransportPoll      = "poll"
)

// RoomConfig describes the room grid and its single door tile.
type RoomConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	DoorX  int `mapstructure:"door_x"`
	DoorY  int `mapstructure:"door_y"`

	// MapFile is an optional TMX layout. When set it overrides the size and door.
	MapFile string `mapstructure:"map_file"`
}

// MotionConfig holds frame-loop and interpolation values.
type MotionConfig struct {
	Speed float64 `mapstructure:"speed"` // progress added per frame
	FPS   int     `mapstructure:"fps"`
}

// FrameInterval returns the duration of one frame.
func (m MotionConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(m.FPS)
}

// SpeechConfig holds bubble limits and timings.
type SpeechConfig struct {
	MaxBubbles int           `mapstructure:"max_bubbles"`
	Lifetime   time.Duration `mapstructure:"lifetime"`
	FadeWindow time.Duration `mapstructure:"fade_window"`
}

// ActionConfig holds NPC action executor timings.
type ActionConfig struct {
	SpeakHold        time.Duration `mapstructure:"speak_hold"`
	ArrivalHold      time.Duration `mapstructure:"arrival_hold"`
	InterActionDelay time.Duration `mapstructure:"inter_action_delay"`
	MoveAttempts     int           `mapstructure:"move_attempts"`

	// Seed for random tile selection. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`
}

// SyncConfig holds state synchronization channel settings.
type SyncConfig struct {
	Transport        string        `mapstructure:"transport"`
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
}

// ControlConfig holds the game server address shared by the sync channel,
// the control API and the sprite cache.
type ControlConfig struct {
	ServerURL      string        `mapstructure:"server_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// WindowConfig holds screen and isometric tile dimensions.
type WindowConfig struct {
	Title      string  `mapstructure:"title"`
	Width      int     `mapstructure:"width"`
	Height     int     `mapstructure:"height"`
	TileWidth  float64 `mapstructure:"tile_width"`
	TileHeight float64 `mapstructure:"tile_height"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level client configuration.
type Config struct {
	Room    RoomConfig    `mapstructure:"room"`
	Motion  MotionConfig  `mapstructure:"motion"`
	Speech  SpeechConfig  `mapstructure:"speech"`
	Actions ActionConfig  `mapstructure:"actions"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Control ControlConfig `mapstructure:"control"`
	Window  WindowConfig  `mapstructure:"window"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Room: RoomConfig{
			Width:  10,
			Height: 10,
			DoorX:  0,
			DoorY:  3,
		},
		Motion: MotionConfig{
			Speed: 0.15,
			FPS:   60,
		},
		Speech: SpeechConfig{
			MaxBubbles: 5,
			Lifetime:   5 * time.Second,
			FadeWindow: time.Second,
		},
		Actions: ActionConfig{
			SpeakHold:        2 * time.Second,
			ArrivalHold:      1500 * time.Millisecond,
			InterActionDelay: 500 * time.Millisecond,
			MoveAttempts:     20,
		},
		Sync: SyncConfig{
			Transport:        TransportWebSocket,
			ReconnectBackoff: 3 * time.Second,
			PollInterval:     5 * time.Second,
		},
		Control: ControlConfig{
			ServerURL:      "http://localhost:8000",
			RequestTimeout: 5 * time.Second,
		},
		Window: WindowConfig{
			Title:      "isoroom",
			Width:      960,
			Height:     760,
			TileWidth:  64,
			TileHeight: 32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateRoom(c.Room),
		validateMotion(c.Motion),
		validateSpeech(c.Speech),
		validateActions(c.Actions),
		validateSync(c.Sync),
		validateControl(c.Control),
		validateWindow(c.Window),
		validateLogging(c.Logging),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRoom(r RoomConfig) error {
	var errs []string
	if r.Width < 1 || r.Height < 1 {
		errs = append(errs, fmt.Sprintf("room size must be positive, got %dx%d", r.Width, r.Height))
	}
	if r.MapFile == "" && (r.DoorX < 0 || r.DoorX >= r.Width || r.DoorY < 0 || r.DoorY >= r.Height) {
		errs = append(errs, fmt.Sprintf("room door (%d,%d) must lie inside the room", r.DoorX, r.DoorY))
	}
	return joined(errs)
}

func validateMotion(m MotionConfig) error {
	var errs []string
	if m.Speed <= 0 || m.Speed > 1 {
		errs = append(errs, fmt.Sprintf("motion.speed must be in (0,1], got %g", m.Speed))
	}
	if m.FPS < 1 {
		errs = append(errs, fmt.Sprintf("motion.fps must be >= 1, got %d", m.FPS))
	}
	return joined(errs)
}

func validateSpeech(s SpeechConfig) error {
	var errs []string
	if s.MaxBubbles < 1 {
		errs = append(errs, fmt.Sprintf("speech.max_bubbles must be >= 1, got %d", s.MaxBubbles))
	}
	if s.Lifetime <= 0 {
		errs = append(errs, "speech.lifetime must be positive")
	}
	if s.FadeWindow < 0 || s.FadeWindow > s.Lifetime {
		errs = append(errs, "speech.fade_window must be between 0 and speech.lifetime")
	}
	return joined(errs)
}

func validateActions(a ActionConfig) error {
	var errs []string
	if a.SpeakHold < 0 || a.ArrivalHold < 0 || a.InterActionDelay < 0 {
		errs = append(errs, "actions durations must not be negative")
	}
	if a.MoveAttempts < 1 {
		errs = append(errs, fmt.Sprintf("actions.move_attempts must be >= 1, got %d", a.MoveAttempts))
	}
	return joined(errs)
}

func validateSync(s SyncConfig) error {
	var errs []string
	if s.Transport != TransportWebSocket && s.Transport != TransportPoll {
		errs = append(errs, fmt.Sprintf("sync.transport must be one of [websocket, poll], got %q", s.Transport))
	}
	if s.ReconnectBackoff <= 0 {
		errs = append(errs, "sync.reconnect_backoff must be positive")
	}
	if s.PollInterval <= 0 {
		errs = append(errs, "sync.poll_interval must be positive")
	}
	return joined(errs)
}

func validateControl(c ControlConfig) error {
	var errs []string
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("control.server_url must be an http(s) URL, got %q", c.ServerURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "control.request_timeout must be positive")
	}
	return joined(errs)
}

func validateWindow(w WindowConfig) error {
	if w.Width < 1 || w.Height < 1 || w.TileWidth <= 0 || w.TileHeight <= 0 {
		return errors.New("window dimensions must be positive")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

// Load reads configuration from the given YAML file, applies environment
// variable overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with ISOROOM_ prefix
	v.SetEnvPrefix("ISOROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("room.width", d.Room.Width)
	v.SetDefault("room.height", d.Room.Height)
	v.SetDefault("room.door_x", d.Room.DoorX)
	v.SetDefault("room.door_y", d.Room.DoorY)
	v.SetDefault("room.map_file", d.Room.MapFile)

	v.SetDefault("motion.speed", d.Motion.Speed)
	v.SetDefault("motion.fps", d.Motion.FPS)

	v.SetDefault("speech.max_bubbles", d.Speech.MaxBubbles)
	v.SetDefault("speech.lifetime", d.Speech.Lifetime)
	v.SetDefault("speech.fade_window", d.Speech.FadeWindow)

	v.SetDefault("actions.speak_hold", d.Actions.SpeakHold)
	v.SetDefault("actions.arrival_hold", d.Actions.ArrivalHold)
	v.SetDefault("actions.inter_action_delay", d.Actions.InterActionDelay)
	v.SetDefault("actions.move_attempts", d.Actions.MoveAttempts)
	v.SetDefault("actions.seed", d.Actions.Seed)

	v.SetDefault("sync.transport", d.Sync.Transport)
	v.SetDefault("sync.reconnect_backoff", d.Sync.ReconnectBackoff)
	v.SetDefault("sync.poll_interval", d.Sync.PollInterval)

	v.SetDefault("control.server_url", d.Control.ServerURL)
	v.SetDefault("control.request_timeout", d.Control.RequestTimeout)

	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.tile_width", d.Window.TileWidth)
	v.SetDefault("window.tile_height", d.Window.TileHeight)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
