package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/solarlune/scenecore"
	"github.com/solarlune/scenecore/ebitengpu"
	"github.com/solarlune/scenecore/gltfimport"
	"golang.org/x/image/font/basicfont"
)

var errQuit = errors.New("quit")

var sceneKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5, ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

type loadResult struct {
	path  string
	scene *scenecore.Scene
	err   error
}

// Game runs a scene in an Ebitengine window. Scenes load on a background goroutine; the current scene keeps running
// until its replacement is ready.
type Game struct {
	config Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	device     *ebitengpu.Device
	importer   *gltfimport.Importer
	controller *scenecore.Controller
	loader     *scenecore.Loader
	watcher    *sceneWatcher

	scene   *scenecore.Scene
	results chan loadResult

	lastPass      ebitengpu.PassStats
	lastEvicted   int
	picked        string
	DrawDebugText bool
}

func NewGame(config Config, logger *slog.Logger) *Game {

	options := config.Renderer
	options.Logger = logger
	options.Resources.Logger = logger

	importOptions := gltfimport.DefaultOptions()
	importOptions.FlipV = config.FlipV
	importOptions.Logger = logger

	game := &Game{
		config:        config,
		logger:        logger,
		device:        ebitengpu.NewDevice(),
		importer:      gltfimport.New(importOptions),
		controller:    scenecore.NewController(options.CommandQueueSize),
		results:       make(chan loadResult, 4),
		DrawDebugText: true,
	}

	game.ctx, game.cancel = context.WithCancel(context.Background())
	game.loader = scenecore.NewLoader(game.importer, game.device, game.controller, options)

	if config.HotReload {
		watcher, err := newSceneWatcher(game.controller, logger)
		if err != nil {
			logger.Warn("hot reload disabled", "error", err)
		} else {
			game.watcher = watcher
		}
	}

	if config.Scene != "" {
		game.load(config.Scene)
	}

	return game

}

// load starts loading the scene at path in the background, cancelling any load already running.
func (g *Game) load(path string) {
	go func() {
		scene, err := g.loader.Load(g.ctx, path)
		g.results <- loadResult{path: path, scene: scene, err: err}
	}()
}

func (g *Game) finishLoads() {

	for {

		select {

		case result := <-g.results:

			if result.err != nil {
				if !errors.Is(result.err, context.Canceled) {
					g.logger.Error("couldn't load scene", "path", result.path, "error", result.err)
				}
				continue
			}

			if g.scene != nil {
				g.controller.SetState(scenecore.StateDisposingAssets, 0, "Releasing "+g.scene.Name)
				old := g.scene.Path
				g.scene.Release()
				if old != result.path {
					g.importer.Forget(old)
				}
			}

			g.scene = result.scene
			g.controller.SetState(scenecore.StateRunning, 1, "Running "+g.scene.Name)

			if g.watcher != nil {
				if err := g.watcher.Watch(result.path); err != nil {
					g.logger.Warn("couldn't watch scene file", "path", result.path, "error", err)
				}
			}

		default:
			return

		}

	}

}

func (g *Game) Update() error {

	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return errQuit
	}

	g.finishLoads()
	g.handleInput()

	if g.scene == nil {
		return nil
	}

	dt := 1 / float32(ebiten.TPS())

	if err := g.scene.Update(dt); err != nil {
		g.controller.SetError(scenecore.StateRenderError, err)
		return fmt.Errorf("updating scene: %w", err)
	}

	if req, ok := g.scene.TakeSceneRequest(); ok {
		switch r := req.(type) {
		case scenecore.ChangeScene:
			g.controller.SetState(scenecore.StateSwitching, 0, "Switching to "+r.Path)
			g.load(r.Path)
		case scenecore.ReloadScene:
			g.controller.SetState(scenecore.StateHotReloading, 0, "Reloading "+g.scene.Path)
			g.load(g.scene.Path)
		}
	}

	rm := g.scene.Resources()
	rm.UpdateFrame()

	if rm.ShouldSweep() {
		if evicted := rm.UnloadAllUnusedResources(); evicted > 0 {
			g.lastEvicted = evicted
		}
	}

	if len(g.scene.PendingReload()) > 0 {
		if _, err := g.scene.ReloadMissing(g.ctx); err != nil {
			g.logger.Error("couldn't reload evicted resources", "error", err)
		}
	}

	return nil

}

func (g *Game) handleInput() {

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.DrawDebugText = !g.DrawDebugText
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF4) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.controller.TrySubmit(scenecore.ReloadScene{})
	}

	for i, path := range g.config.Scenes {
		if i >= len(sceneKeys) {
			break
		}
		if inpututil.IsKeyJustPressed(sceneKeys[i]) {
			g.controller.TrySubmit(scenecore.ChangeScene{Path: path})
		}
	}

	if g.scene == nil {
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.scene.SetCullingEnabled(!g.scene.CullingEnabled())
	}

	cam := g.scene.Camera()

	if !cam.Moving() {

		move := scenecore.Vector3{}
		step := float32(2)

		if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
			move.X -= step
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
			move.X += step
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
			move.Z -= step
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
			move.Z += step
		}

		if !move.IsZero() {
			g.controller.TrySubmit(scenecore.SetCameraPosition{Position: cam.Eye().Add(move)})
			g.controller.TrySubmit(scenecore.SetCameraTarget{Target: cam.Target().Add(move)})
		}

	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		ray := cam.ScreenRay(float32(x), float32(y), float32(g.config.Renderer.Width), float32(g.config.Renderer.Height))
		if e, dist, ok := g.scene.PickEntity(ray); ok {
			g.picked = fmt.Sprintf("%s (%s) at %.2f", g.scene.EntityName(e), e, dist)
		} else {
			g.picked = ""
		}
	}

}

func (g *Game) Draw(screen *ebiten.Image) {

	screen.Fill(g.config.background.ToRGBA())

	if g.scene != nil {

		pass := g.device.BeginPass(screen, g.scene.Camera(), g.scene.Lights())
		drawn := g.scene.Render(pass)
		g.scene.MarkDrawn(drawn)

		stats, err := pass.End()
		if err != nil {
			g.logger.Error("render failed", "error", err)
			g.controller.SetError(scenecore.StateRenderError, err)
		}
		g.lastPass = stats

	}

	if g.DrawDebugText {
		text.Draw(screen, g.debugText(), basicfont.Face7x13, 4, 16, g.config.textColor.ToRGBA())
	}

}

func (g *Game) debugText() string {

	status := g.controller.Status()
	txt := fmt.Sprintf("%s %.0f%% %s\n", status.State, status.Progress*100, status.Message)
	if status.Err != nil {
		txt += status.Err.Error() + "\n"
	}

	if g.scene == nil {
		return txt
	}

	q := g.controller.Query()
	res := g.scene.Resources().Stats()
	dev := g.device.Stats()

	txt += fmt.Sprintf("Scene: %s\nEntities: %d  Visible: %d\nDraw calls: %d  Triangles: %d / %d\n",
		q.CurrentScene, q.EntityCount, q.VisibleCount, q.DrawCalls, g.lastPass.DrawnTriangles, g.lastPass.Triangles)
	txt += fmt.Sprintf("Meshes: %d  Materials: %d  Textures: %d  Evicted: %d\n",
		res.Meshes.Loaded, res.Materials.Loaded, res.Textures.Loaded, g.lastEvicted)
	txt += fmt.Sprintf("Buffers: %d  Culling: %t  FPS: %.0f\n", dev.Buffers, g.scene.CullingEnabled(), ebiten.ActualFPS())

	if g.picked != "" {
		txt += "Picked: " + g.picked + "\n"
	}

	txt += "F1: Toggle text  R: Reload  C: Culling\nArrows: Move  1-9: Switch scene  ESC: Quit"

	return txt

}

func (g *Game) Layout(w, h int) (int, int) {
	return g.config.Renderer.Width, g.config.Renderer.Height
}

// Close cancels any running load and releases the current scene.
func (g *Game) Close() {
	g.cancel()
	if g.watcher != nil {
		g.watcher.Close()
	}
	if g.scene != nil {
		g.scene.Release()
		g.scene = nil
	}
}
