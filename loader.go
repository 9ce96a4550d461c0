package scenecore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// LoadScene imports the scene at path and builds a Scene from it: every node becomes an entity, parented as described, and every
// mesh and material is loaded through a new ResourceManager. Loading is fail-fast; the first import or upload error aborts the
// whole load, releases anything already uploaded, and is returned. Nodes whose parent doesn't exist become roots.
//
// Progress is reported through the controller, which may be nil.
func LoadScene(ctx context.Context, path string, importer Importer, device Device, controller *Controller, options Options) (*Scene, error) {

	options = options.withDefaults()
	logger := options.Logger.With("path", path)

	status := func(state LoadingState, progress float32, message string) {
		if controller != nil {
			controller.SetState(state, progress, message)
		}
	}

	fail := func(state LoadingState, err error) error {
		if controller != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				controller.SetState(StateIdle, 0, "Loading cancelled")
			} else {
				controller.SetError(state, err)
			}
		}
		logger.Error("scene load failed", "error", err)
		return err
	}

	if importer == nil {
		return nil, fail(StateSceneParseError, ErrNoImporter)
	}
	if device == nil {
		return nil, fail(StateInitFailed, ErrNoDevice)
	}

	status(StateLoadingScene, 0, "Loading scene "+path)

	data, err := importer.ImportScene(ctx, path)
	if err != nil {
		return nil, fail(StateSceneParseError, fmt.Errorf("importing scene %s: %w", path, err))
	}

	name := data.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	rm := NewResourceManager(importer, device, options.Resources)
	scene := NewScene(name, rm, controller, options)
	scene.Path = path

	if cam := data.Camera; cam != nil {
		scene.camera.SetEye(cam.Eye)
		scene.camera.SetTarget(cam.Target)
		if cam.FovY > 0 {
			scene.camera.SetFieldOfView(cam.FovY)
		}
	}

	if len(data.Lights) > 0 {
		scene.lights = lightsFromRecords(data.Lights, scene.logger)
	}

	status(StateSetting, 0.05, "Creating entities")

	for _, node := range data.Nodes {
		if node.Entity == NoEntity {
			return nil, fail(StateSceneParseError, fmt.Errorf("node %q has no entity id", node.Name))
		}
		if !scene.AddEntity(node.Entity, node.Transform()) {
			return nil, fail(StateSceneParseError, fmt.Errorf("node %q: duplicate entity %d", node.Name, node.Entity))
		}
		if node.Name != "" {
			scene.SetName(node.Entity, node.Name)
		}
		if node.Hidden {
			scene.SetHidden(node.Entity, true)
		}
	}

	for _, node := range data.Nodes {

		if node.Parent == NoEntity {
			continue
		}

		if !scene.Transforms.Has(node.Parent) {
			logger.Warn("node parent not found; treating node as a root", "node", node.Name, "entity", node.Entity, "parent", node.Parent)
			continue
		}

		if err := scene.SetParent(node.Parent, node.Entity); err != nil {
			return nil, fail(StateSceneParseError, fmt.Errorf("node %q: %w", node.Name, err))
		}

	}

	status(StateLoadingAssets, 0.1, "Loading assets")

	withAssets := 0
	for _, node := range data.Nodes {
		if node.Mesh != "" || node.Material != "" {
			withAssets++
		}
	}

	loaded := 0

	for _, node := range data.Nodes {

		if node.Mesh == "" && node.Material == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			scene.Release()
			return nil, fail(StateAssetLoadError, err)
		}

		if node.Mesh != "" {
			if _, err := rm.LoadMesh(ctx, node.Entity, node.Mesh); err != nil {
				scene.Release()
				return nil, fail(StateAssetLoadError, fmt.Errorf("node %q: %w", node.Name, err))
			}
		}

		if node.Material != "" {
			if _, err := rm.LoadMaterial(ctx, node.Entity, node.Material); err != nil {
				scene.Release()
				return nil, fail(StateAssetLoadError, fmt.Errorf("node %q: %w", node.Name, err))
			}
		}

		loaded++
		progress := 0.1 + 0.8*float32(loaded)/float32(withAssets)
		status(StateLoadingAssets, progress, fmt.Sprintf("Loaded assets for %d / %d nodes", loaded, withAssets))

	}

	status(StateBuilding, 0.95, "Building scene graph")
	scene.Transforms.Update()

	stats := rm.Stats()
	logger.Info("scene loaded",
		"scene", name,
		"entities", scene.Transforms.Len(),
		"meshes", stats.Meshes.Loaded,
		"materials", stats.Materials.Loaded,
		"textures", stats.Textures.Loaded,
	)

	status(StateReady, 1, "Ready")

	return scene, nil

}

// Loader loads scenes one at a time: starting a new load cancels the one in progress, if any, and waits for it to wind
// down before starting, so status updates from the two never interleave. A cancelled load returns context.Canceled and its
// partial Scene is discarded.
type Loader struct {
	Importer   Importer
	Device     Device
	Controller *Controller
	Options    Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{} // Closed when the latest load returns
}

// NewLoader creates a Loader.
func NewLoader(importer Importer, device Device, controller *Controller, options Options) *Loader {
	return &Loader{Importer: importer, Device: device, Controller: controller, Options: options}
}

// Load loads the scene at path, cancelling any load already in progress. It's safe to call from any goroutine.
func (loader *Loader) Load(ctx context.Context, path string) (*Scene, error) {

	loader.mu.Lock()
	if loader.cancel != nil {
		loader.cancel()
	}
	previous := loader.done
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	loader.cancel = cancel
	loader.done = done
	loader.mu.Unlock()

	defer func() {
		cancel()
		loader.mu.Lock()
		if loader.done == done {
			loader.cancel = nil
			loader.done = nil
		}
		loader.mu.Unlock()
		close(done)
	}()

	if previous != nil {
		<-previous
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scene, err := LoadScene(ctx, path, loader.Importer, loader.Device, loader.Controller, loader.Options)
	if err != nil {
		return nil, err
	}

	// Superseded after LoadScene finished, but before this returned.
	if ctx.Err() != nil {
		scene.Release()
		return nil, context.Canceled
	}

	return scene, nil

}

// Cancel cancels the load in progress, if any.
func (loader *Loader) Cancel() {
	loader.mu.Lock()
	defer loader.mu.Unlock()
	if loader.cancel != nil {
		loader.cancel()
	}
}

// lightsFromRecords builds a Scene's lighting from imported lights. Lights past the per-kind limits are dropped with a warning.
func lightsFromRecords(records []LightRecord, logger *slog.Logger) *Lights {

	lights := NewLights(0)

	for _, rec := range records {

		added := true

		switch rec.Kind {
		case LightAmbient:
			lights.Ambient = AmbientLight{Color: rec.Color, Energy: rec.Energy}
		case LightDirectional:
			added = lights.AddDirectional(DirectionalLight{Direction: rec.Direction, Color: rec.Color, Energy: rec.Energy, On: true})
		case LightPoint:
			added = lights.AddPoint(PointLight{Position: rec.Position, Color: rec.Color, Energy: rec.Energy, Range: rec.Range, On: true})
		}

		if !added {
			logger.Warn("too many lights; light dropped", "light", rec.Name)
		}

	}

	return lights

}
