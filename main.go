package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/automoto/isoroom/actions"
	"github.com/automoto/isoroom/assets"
	"github.com/automoto/isoroom/config"
	"github.com/automoto/isoroom/control"
	"github.com/automoto/isoroom/demo"
	"github.com/automoto/isoroom/fonts"
	"github.com/automoto/isoroom/grid"
	"github.com/automoto/isoroom/logging"
	"github.com/automoto/isoroom/loop"
	"github.com/automoto/isoroom/network"
	"github.com/automoto/isoroom/render"
	"github.com/automoto/isoroom/scenes"
	"github.com/automoto/isoroom/session"
	"github.com/automoto/isoroom/settings"
)

type Scene interface {
	Update()
	Draw(screen *ebiten.Image)
}

type Game struct {
	ctx    context.Context
	bounds image.Rectangle
	scene  Scene
	window config.WindowConfig
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.scene.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(width, height int) (int, int) {
	g.bounds = image.Rect(0, 0, g.window.Width, g.window.Height)
	return g.window.Width, g.window.Height
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	headless := flag.Bool("headless", false, "run the frame loop without a window")
	demoMode := flag.Bool("demo", false, "play the built-in action script instead of syncing with the server")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *headless, *demoMode); err != nil {
		logger.Fatal("client exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger, headless, demoMode bool) error {
	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancelAll := context.WithCancel(signalCtx)
	defer cancelAll()

	room, err := loadRoom(cfg.Room)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	s := session.New(cfg, room, clock, logger)
	defer s.Close()

	executor := actions.NewExecutor(s, logger)
	synchronizer := network.NewSynchronizer(ctx, s, executor, logger)
	defer func() {
		cancelAll()
		synchronizer.Wait()
	}()

	syncClient, err := network.NewClient(cfg.Control.ServerURL, cfg.Sync, cfg.Control.RequestTimeout, clock, logger, synchronizer)
	if err != nil {
		return err
	}
	defer func() { _ = syncClient.Close() }()

	ctl := control.NewClient(cfg.Control, logger)
	ctl.Resync = syncClient.Fetch

	skinCtx, cancel := context.WithTimeout(ctx, cfg.Control.RequestTimeout)
	skins, err := ctl.ListCharacters(skinCtx)
	cancel()
	if err != nil {
		logger.Warn("character skins unavailable, using placeholders", zap.Error(err))
	}
	s.SetSkins(skins)

	store, err := settings.Open("isoroom", logger)
	if err != nil {
		logger.Warn("display settings will not persist", zap.Error(err))
	}
	if skin := store.Load().Skin; skin != "" {
		s.SetPlayerSkin(skin)
	}

	if demoMode {
		go func() {
			if err := demo.Default().Run(ctx, s, executor); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("demo script stopped", zap.Error(err))
			}
		}()
	} else {
		go func() {
			if err := syncClient.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("state sync stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("client started",
		zap.String("server", cfg.Control.ServerURL),
		zap.String("transport", cfg.Sync.Transport),
		zap.Bool("headless", headless),
		zap.Bool("demo", demoMode),
	)

	if headless {
		d := &loop.Driver{Session: s, Renderer: render.NewLogRenderer(logger), Clock: clock, FPS: cfg.Motion.FPS}
		if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	if err := fonts.LoadDefaults(); err != nil {
		return err
	}
	scene := scenes.NewRoomScene(ctx, scenes.RoomDeps{
		Session:  s,
		Sync:     syncClient,
		Control:  ctl,
		Sprites:  assets.NewLibrary(cfg.Control.ServerURL, cfg.Control.RequestTimeout, logger),
		Settings: store,
		Window:   cfg.Window,
		Logger:   logger,
	})

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetTPS(cfg.Motion.FPS)
	return ebiten.RunGame(&Game{ctx: ctx, scene: scene, window: cfg.Window})
}

func loadRoom(rc config.RoomConfig) (*grid.Room, error) {
	door := grid.Tile{X: rc.DoorX, Y: rc.DoorY}
	if rc.MapFile == "" {
		return grid.NewRoom(rc.Width, rc.Height, door), nil
	}
	return grid.LoadTMX(os.DirFS(filepath.Dir(rc.MapFile)), filepath.Base(rc.MapFile), door)
}
