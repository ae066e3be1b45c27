package scenes

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/automoto/isoroom/assets"
	"github.com/automoto/isoroom/config"
	"github.com/automoto/isoroom/control"
	"github.com/automoto/isoroom/grid"
	"github.com/automoto/isoroom/network"
	"github.com/automoto/isoroom/session"
	"github.com/automoto/isoroom/settings"
	"github.com/automoto/isoroom/ui"
)

// PanelHeight is the screen space reserved for the control panel.
const PanelHeight = 220

// RoomDeps are the collaborators of the room view. Sync and Control may be
// nil when running without a server.
type RoomDeps struct {
	Session  *session.Session
	Sync     *network.Client
	Control  *control.Client
	Sprites  *assets.Library
	Settings *settings.Store
	Window   config.WindowConfig
	Logger   *zap.Logger
}

// RoomScene runs the frame loop inside ebiten: every Update advances motion
// by one frame and every Draw renders the current session state.
type RoomScene struct {
	ctx      context.Context
	session  *session.Session
	sync     *network.Client
	control  *control.Client
	sprites  *assets.Library
	store    *settings.Store
	display  settings.Display
	window   config.WindowConfig
	proj     grid.Projection
	panel    *ui.RoomUI
	logger   *zap.Logger
	timeout  time.Duration
	once     sync.Once
	white    *ebiten.Image
	textures map[image.Image]*ebiten.Image

	roster   control.Roster
	overlays []control.Overlay

	mu      sync.Mutex
	results []controlResult
}

// controlResult is the outcome of a background control call. apply runs on
// the main goroutine after a success.
type controlResult struct {
	label  string
	err    error
	notify bool
	quiet  bool
	apply  func()
}

func NewRoomScene(ctx context.Context, deps RoomDeps) *RoomScene {
	s := &RoomScene{
		ctx:      ctx,
		session:  deps.Session,
		sync:     deps.Sync,
		control:  deps.Control,
		sprites:  deps.Sprites,
		store:    deps.Settings,
		window:   deps.Window,
		logger:   deps.Logger.Named("scene"),
		timeout:  deps.Session.Config().Control.RequestTimeout,
		textures: make(map[image.Image]*ebiten.Image),
	}
	s.display = s.store.Load()
	s.proj = grid.CenteredProjection(deps.Window.TileWidth, deps.Window.TileHeight,
		deps.Window.Width, deps.Window.Height-PanelHeight, deps.Session.Room())
	return s
}

func (s *RoomScene) configure() {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)
	s.white = white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)

	s.panel = ui.NewRoomUI()
	s.panel.OnSay = func(text string) { s.session.PlayerSay(text) }
	s.panel.OnStart = func() {
		s.runControl("start", func(ctx context.Context) error { return s.control.StartGame(ctx) })
	}
	s.panel.OnStop = func() {
		s.runControl("stop", func(ctx context.Context) error { return s.control.StopGame(ctx) })
	}
	s.panel.OnTurn = func() {
		s.runControl("turn", func(ctx context.Context) error {
			_, err := s.control.ExecuteTurn(ctx)
			return err
		})
	}
	s.panel.OnToggle = s.applyToggle
	s.panel.OnCreateAgent = s.createAgent
	s.panel.OnDeleteAgent = s.deleteAgent
	s.panel.OnAgentStep = func(n int) {
		s.roster.Step(n)
		s.panel.SetAgent(s.roster.Label())
	}
	s.panel.SetDisplay(s.display)
	s.panel.SetOverlayName(s.overlayTheme())

	if s.control != nil {
		s.refreshAgents()
		s.refreshOverlays()
		s.fetchMap()
	}
}

func (s *RoomScene) createAgent(name, instructions string) {
	a := control.NewAgent{Name: name, Instructions: instructions}
	if err := a.Validate(); err != nil {
		s.panel.ShowNotice("create agent: " + err.Error())
		return
	}
	s.runCall(controlResult{label: "create agent", notify: true}, func(ctx context.Context) (func(), error) {
		created, err := s.control.CreateAgent(ctx, a)
		if err != nil {
			return nil, err
		}
		return func() {
			s.panel.AgentCreated()
			s.panel.SetStatus("agent " + created.Name + " created")
			s.refreshAgents()
		}, nil
	})
}

func (s *RoomScene) deleteAgent() {
	a, ok := s.roster.Selected()
	if !ok {
		s.panel.ShowNotice("no agent selected")
		return
	}
	s.runCall(controlResult{label: "delete agent", notify: true}, func(ctx context.Context) (func(), error) {
		if err := s.control.DeleteAgent(ctx, a.ID); err != nil {
			return nil, err
		}
		return func() {
			s.roster.Remove(a.ID)
			s.panel.SetAgent(s.roster.Label())
			s.refreshAgents()
		}, nil
	})
}

func (s *RoomScene) refreshAgents() {
	s.runCall(controlResult{label: "list agents", quiet: true}, func(ctx context.Context) (func(), error) {
		agents, err := s.control.ListAgents(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			s.roster.Set(agents)
			s.panel.SetAgent(s.roster.Label())
		}, nil
	})
}

func (s *RoomScene) refreshOverlays() {
	s.runCall(controlResult{label: "list overlays", quiet: true}, func(ctx context.Context) (func(), error) {
		overlays, err := s.control.ListOverlays(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			s.overlays = overlays
			if s.display.Overlay == "" {
				for _, o := range overlays {
					if o.Active {
						s.display.Overlay = o.Path
						s.panel.SetDisplay(s.display)
					}
				}
			}
			s.panel.SetOverlayName(s.overlayTheme())
		}, nil
	})
}

func (s *RoomScene) fetchMap() {
	s.runCall(controlResult{label: "map", quiet: true}, func(ctx context.Context) (func(), error) {
		m, err := s.control.GameMap(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			s.logger.Info("room map", zap.String("id", m.ID), zap.String("description", m.Description))
			s.panel.SetStatus("map: " + m.ID)
		}, nil
	})
}

func (s *RoomScene) overlayTheme() string {
	for _, o := range s.overlays {
		if o.Path == s.display.Overlay {
			return o.Theme
		}
	}
	return s.display.Overlay
}

func (s *RoomScene) Update() {
	s.once.Do(s.configure)

	s.panel.Update()
	s.handleInput()
	s.session.Tick()

	// Apply control results on the main goroutine
	s.mu.Lock()
	results := s.results
	s.results = nil
	s.mu.Unlock()
	for _, r := range results {
		if !r.quiet {
			s.panel.SetBusy(false)
		}
		switch {
		case r.err != nil && r.notify:
			s.panel.ShowNotice(r.label + " failed: " + r.err.Error())
		case r.err != nil:
			s.logger.Warn("control call failed", zap.String("call", r.label), zap.Error(r.err))
			s.panel.SetStatus(r.label + " failed: " + r.err.Error())
		default:
			if !r.quiet {
				s.panel.SetStatus(r.label + " ok")
			}
			if r.apply != nil {
				r.apply()
			}
		}
	}

	if s.sync != nil {
		conn := s.sync.State().String()
		if err := s.sync.LastError(); err != nil && s.sync.State() == network.StateError {
			conn += ": " + err.Error()
		}
		s.panel.SetConnection(conn)
	}
	s.panel.SetTurn(s.session.Turn())
}

func (s *RoomScene) handleInput() {
	if s.panel.NoticeActive() {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			s.panel.DismissNotice()
		}
		return
	}
	if s.panel.Typing() {
		if s.panel.ChatFocused() && inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			s.panel.SubmitChat()
		}
		return
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		s.session.MovePlayer(0, -1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		s.session.MovePlayer(0, 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		s.session.MovePlayer(-1, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		s.session.MovePlayer(1, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit1):
		s.session.CycleFacing(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit2):
		s.session.CycleFacing(1)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if y >= s.window.Height-PanelHeight {
			return
		}
		if t, ok := s.proj.ScreenToTile(float64(x), float64(y), s.session.Room()); ok {
			s.session.MovePlayerTo(t)
		}
	}
}

func (s *RoomScene) applyToggle(t ui.Toggle) {
	d := s.display
	switch t {
	case ui.ToggleNameTags:
		d.NameTags = !d.NameTags
	case ui.ToggleHidePlayer:
		d.HidePlayer = !d.HidePlayer
	case ui.ToggleHideAll:
		d.HideAll = !d.HideAll
	case ui.NameScaleUp:
		d = d.ScaleNames(1)
	case ui.NameScaleDown:
		d = d.ScaleNames(-1)
	case ui.BubbleScaleUp:
		d = d.ScaleBubbles(1)
	case ui.BubbleScaleDown:
		d = d.ScaleBubbles(-1)
	case ui.SkinPrev, ui.SkinNext:
		step := 1
		if t == ui.SkinPrev {
			step = -1
		}
		d = d.CycleSkin(s.session.Skins(), step)
		if d.Skin != "" {
			s.session.SetPlayerSkin(d.Skin)
		}
	case ui.ToggleOverlay:
		d.ShowOverlay = !d.ShowOverlay
	case ui.ToggleOverlayLayer:
		d.OverlayForeground = !d.OverlayForeground
	case ui.OverlayFadeIn:
		d = d.FadeOverlay(1)
	case ui.OverlayFadeOut:
		d = d.FadeOverlay(-1)
	case ui.OverlayNext:
		paths := make([]string, len(s.overlays))
		for i, o := range s.overlays {
			paths[i] = o.Path
		}
		d = d.CycleOverlay(paths, 1)
	}
	s.display = d
	s.panel.SetOverlayName(s.overlayTheme())
	s.panel.SetDisplay(d)
	if err := s.store.Save(d); err != nil {
		s.panel.SetStatus(err.Error())
	}
}

// runControl calls the control API off the main goroutine. The outcome is
// shown in the status label on a later Update.
func (s *RoomScene) runControl(label string, call func(ctx context.Context) error) {
	s.runCall(controlResult{label: label}, func(ctx context.Context) (func(), error) {
		return nil, call(ctx)
	})
}

// runCall runs call in the background and queues its outcome for Update.
// Quiet calls leave the buttons and the status label alone on success.
func (s *RoomScene) runCall(r controlResult, call func(ctx context.Context) (func(), error)) {
	if s.control == nil {
		s.panel.SetStatus("no control server configured")
		return
	}
	if !r.quiet {
		s.panel.SetBusy(true)
		s.panel.SetStatus(r.label + "...")
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		r.apply, r.err = call(ctx)
		s.mu.Lock()
		s.results = append(s.results, r)
		s.mu.Unlock()
	}()
}

func (s *RoomScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{40, 44, 52, 255})
	if s.panel == nil {
		return
	}

	f := s.session.Frame(s.session.Clock().Now())
	s.drawRoom(screen, f.Room)
	if !s.display.OverlayForeground {
		s.drawOverlay(screen)
	}
	s.drawCharacters(screen, f.Characters)
	if s.display.OverlayForeground {
		s.drawOverlay(screen)
	}
	s.panel.UI.Draw(screen)
}
