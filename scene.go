package scenecore

import (
	"context"
	"fmt"
	"log/slog"
)

// Scene ties together the TransformSystem, ResourceManager, and RenderBatchSystem of one loaded scene, along with its Camera.
// Every frame, Update() brings everything up to date and Render() issues the draw calls.
//
// A Scene is not safe for concurrent use. The only state shared with other goroutines is its Controller.
type Scene struct {
	Name string
	Path string // The file the Scene was loaded from, if any

	Transforms *TransformSystem
	Batches    *RenderBatchSystem

	resources  *ResourceManager
	camera     *Camera
	lights     *Lights
	controller *Controller
	logger     *slog.Logger

	entities EntityAllocator
	names    map[Entity]string
	hidden   map[Entity]bool

	logical    VisibilityMap // !hidden, per entity
	visibility VisibilityMap // !hidden && in the frustum, per entity
	visible    int
	missing    []Entity // Visible entities whose resources were evicted

	cullingEnabled    bool
	transitionSeconds float32
	sceneRequest      Command
}

// NewScene creates an empty Scene that draws resources from the given ResourceManager. controller may be nil, in which case
// the Scene takes no commands and publishes nothing.
func NewScene(name string, resources *ResourceManager, controller *Controller, options Options) *Scene {

	options = options.withDefaults()

	camera := NewCamera(options.Width, options.Height)
	camera.SetFieldOfView(options.Camera.FieldOfView)
	camera.SetClipPlanes(options.Camera.Near, options.Camera.Far)
	camera.SetEye(options.Camera.Eye)
	camera.SetTarget(options.Camera.Target)

	return &Scene{
		Name:              name,
		Transforms:        NewTransformSystem(),
		Batches:           NewRenderBatchSystem(),
		resources:         resources,
		camera:            camera,
		lights:            DefaultLights(),
		controller:        controller,
		logger:            options.Logger.With("scene", name),
		names:             map[Entity]string{},
		hidden:            map[Entity]bool{},
		logical:           VisibilityMap{},
		visibility:        VisibilityMap{},
		cullingEnabled:    !options.DisableCulling,
		transitionSeconds: options.Camera.TransitionSeconds,
	}

}

// Camera returns the Scene's Camera.
func (scene *Scene) Camera() *Camera { return scene.camera }

// Lights returns the Scene's lights.
func (scene *Scene) Lights() *Lights { return scene.lights }

// Resources returns the Scene's ResourceManager.
func (scene *Scene) Resources() *ResourceManager { return scene.resources }

// Controller returns the Scene's Controller, which may be nil.
func (scene *Scene) Controller() *Controller { return scene.controller }

// AddEntity registers the entity with the given local Transform. It returns false (and does nothing) if the entity already exists.
func (scene *Scene) AddEntity(entity Entity, transform Transform) bool {
	if !scene.Transforms.AddTransform(entity, transform) {
		return false
	}
	scene.entities.Reserve(entity)
	scene.Batches.MarkDirty()
	return true
}

// NewEntity creates a new entity with the given local Transform.
func (scene *Scene) NewEntity(transform Transform) Entity {
	e := scene.entities.Next()
	for scene.Transforms.Has(e) {
		e = scene.entities.Next()
	}
	scene.AddEntity(e, transform)
	return e
}

// AddModel creates a new entity with the given Transform, mesh, and material, loading the resources if necessary.
func (scene *Scene) AddModel(ctx context.Context, transform Transform, mesh, material GUID) (Entity, error) {

	e := scene.NewEntity(transform)

	if _, err := scene.resources.LoadMesh(ctx, e, mesh); err != nil {
		scene.RemoveEntity(e)
		return NoEntity, err
	}

	if _, err := scene.resources.LoadMaterial(ctx, e, material); err != nil {
		scene.RemoveEntity(e)
		return NoEntity, err
	}

	return e, nil

}

// SetParent parents child to parent; see TransformSystem.SetParent().
func (scene *Scene) SetParent(parent, child Entity) error {
	return scene.Transforms.SetParent(parent, child)
}

// RemoveEntity removes the entity and all of its descendants from the Scene, forgetting their resource assignments.
// The removed entities are returned.
func (scene *Scene) RemoveEntity(entity Entity) []Entity {
	removed := scene.Transforms.RemoveEntity(entity)
	for _, e := range removed {
		scene.resources.Unassign(e)
		delete(scene.hidden, e)
		delete(scene.names, e)
		delete(scene.logical, e)
		delete(scene.visibility, e)
	}
	if len(removed) > 0 {
		scene.Batches.MarkDirty()
	}
	return removed
}

// SetName names the entity, so it can be found with FindEntity().
func (scene *Scene) SetName(entity Entity, name string) {
	scene.names[entity] = name
}

// EntityName returns the entity's name, if it has one.
func (scene *Scene) EntityName(entity Entity) string {
	return scene.names[entity]
}

// FindEntity returns the first entity (in registration order) with the given name.
func (scene *Scene) FindEntity(name string) (Entity, bool) {
	for _, e := range scene.Transforms.order {
		if scene.names[e] == name {
			return e, true
		}
	}
	return NoEntity, false
}

// SetHidden hides or shows the entity. Hidden entities are never drawn, regardless of whether they're in view.
func (scene *Scene) SetHidden(entity Entity, hidden bool) {
	if scene.hidden[entity] == hidden {
		return
	}
	if hidden {
		scene.hidden[entity] = true
	} else {
		delete(scene.hidden, entity)
		// Hidden entities are left out of batches when they're rebuilt, so showing one needs a rebuild.
		scene.Batches.MarkDirty()
	}
}

// IsHidden returns true if the entity has been hidden with SetHidden().
func (scene *Scene) IsHidden(entity Entity) bool {
	return scene.hidden[entity]
}

// SetCullingEnabled turns frustum culling on or off.
func (scene *Scene) SetCullingEnabled(enabled bool) {
	scene.cullingEnabled = enabled
}

// CullingEnabled returns true if frustum culling is on.
func (scene *Scene) CullingEnabled() bool {
	return scene.cullingEnabled
}

// applyCommands drains the Controller's queue. Camera commands are applied right away; scene changes are kept for
// TakeSceneRequest(), the latest one winning.
func (scene *Scene) applyCommands() {

	if scene.controller == nil {
		return
	}

	for _, cmd := range scene.controller.Drain() {

		switch c := cmd.(type) {

		case SetCameraPosition:
			seconds := c.Seconds
			if seconds <= 0 {
				seconds = scene.transitionSeconds
			}
			scene.camera.MoveEyeTo(c.Position, seconds)

		case SetCameraTarget:
			seconds := c.Seconds
			if seconds <= 0 {
				seconds = scene.transitionSeconds
			}
			scene.camera.MoveTargetTo(c.Target, seconds)

		case ChangeScene, ReloadScene:
			scene.sceneRequest = c

		default:
			scene.logger.Warn("ignoring unknown command", "command", fmt.Sprintf("%T", cmd))

		}

	}

}

// TakeSceneRequest returns the most recent ChangeScene or ReloadScene command received since the last call, if any.
// Loading is left to the caller, since it happens off the render loop.
func (scene *Scene) TakeSceneRequest() (Command, bool) {
	req := scene.sceneRequest
	scene.sceneRequest = nil
	return req, req != nil
}

// Update advances the Scene by dt seconds: queued commands are applied, the Camera moves, world matrices are recomputed,
// and every entity's visibility is re-evaluated against the Camera's frustum. Batches are rebuilt if entities or resource
// assignments changed; instance buffers are refreshed every frame.
func (scene *Scene) Update(dt float32) error {

	scene.applyCommands()
	scene.camera.Update(dt)
	scene.Transforms.Update()

	if scene.resources.takeChanged() {
		scene.Batches.MarkDirty()
	}

	frustum := scene.camera.Frustum()

	clear(scene.logical)
	clear(scene.visibility)
	scene.missing = scene.missing[:0]
	scene.visible = 0

	for _, e := range scene.Transforms.order {

		shown := !scene.hidden[e]
		scene.logical[e] = shown

		inView := false

		if bounds, ok := scene.resources.BoundsFor(e); ok {
			if !scene.cullingEnabled {
				inView = true
			} else if world, ok := scene.Transforms.WorldMatrix(e); ok {
				inView = frustum.IsVisible(bounds.Transform(world))
			}
		}

		visible := shown && inView
		scene.visibility[e] = visible

		if visible {
			scene.visible++
			if !scene.resources.Resident(e) {
				scene.missing = append(scene.missing, e)
			}
		}

	}

	if scene.Batches.Dirty() {
		// Membership follows the logical map only; frustum changes are filtered per frame by UpdateInstanceBuffers.
		scene.Batches.RebuildBatches(scene.Transforms.order, scene.logical, scene.resources)
		scene.logger.Debug("rebuilt batches", "batches", len(scene.Batches.keys), "entities", scene.Transforms.Len())
	}

	if err := scene.Batches.UpdateInstanceBuffers(scene.resources.device, scene.Transforms, scene.visibility); err != nil {
		return err
	}

	if scene.controller != nil {
		scene.controller.PublishQuery(scene.Query())
	}

	return nil

}

// Visible returns true if the entity was found visible by the last Update().
func (scene *Scene) Visible(entity Entity) bool {
	return scene.visibility[entity]
}

// VisibleCount returns how many entities were visible as of the last Update().
func (scene *Scene) VisibleCount() int {
	return scene.visible
}

// PendingReload returns the visible entities whose mesh or material was evicted, as of the last Update().
func (scene *Scene) PendingReload() []Entity {
	return append([]Entity(nil), scene.missing...)
}

// ReloadMissing reloads the evicted resources of every entity returned by PendingReload().
func (scene *Scene) ReloadMissing(ctx context.Context) (int, error) {
	if len(scene.missing) == 0 {
		return 0, nil
	}
	return scene.resources.ReloadFor(ctx, scene.missing)
}

// Render binds and draws every batch with visible instances into the pass: one indexed, instanced draw call per batch.
// The keys of the batches drawn are returned, ready to be handed to MarkDrawn().
func (scene *Scene) Render(pass RenderPass) []BatchKey {

	drawn := []BatchKey{}

	for _, batch := range scene.Batches.Batches() {

		if batch.InstanceCount == 0 || batch.InstanceBuffer == nil {
			continue
		}

		mesh, ok := scene.resources.MeshByGUID(batch.Key.Mesh)
		if !ok {
			continue
		}

		material, ok := scene.resources.MaterialByGUID(batch.Key.Material)
		if !ok {
			continue
		}

		pass.SetVertexBuffer(VertexSlotMesh, mesh.VertexBuffer)
		pass.SetVertexBuffer(VertexSlotInstance, batch.InstanceBuffer)
		pass.SetIndexBuffer(mesh.IndexBuffer)
		pass.SetBindGroup(BindGroupMaterial, material.BindGroup)
		pass.DrawIndexed(mesh.IndexCount, batch.InstanceCount)

		drawn = append(drawn, batch.Key)

	}

	return drawn

}

// MarkDrawn records the meshes and materials of the given batches as used this frame.
func (scene *Scene) MarkDrawn(keys []BatchKey) {
	for _, key := range keys {
		scene.resources.MarkMeshUsed(key.Mesh)
		scene.resources.MarkMaterialUsed(key.Material)
	}
}

// PickEntity returns the nearest visible entity whose world-space bounds the ray hits, along with the distance to it.
func (scene *Scene) PickEntity(ray Ray) (Entity, float32, bool) {

	best := NoEntity
	bestDistance := float32(0)

	for _, e := range scene.Transforms.order {

		if !scene.visibility[e] {
			continue
		}

		bounds, ok := scene.resources.BoundsFor(e)
		if !ok {
			continue
		}

		world, ok := scene.Transforms.WorldMatrix(e)
		if !ok {
			continue
		}

		if d, hit := bounds.Transform(world).IntersectRay(ray); hit && (best == NoEntity || d < bestDistance) {
			best = e
			bestDistance = d
		}

	}

	return best, bestDistance, best != NoEntity

}

// Query returns the Scene's current QueryResults.
func (scene *Scene) Query() QueryResults {
	return QueryResults{
		CameraPosition: scene.camera.Eye(),
		CameraTarget:   scene.camera.Target(),
		EntityCount:    scene.Transforms.Len(),
		VisibleCount:   scene.visible,
		DrawCalls:      scene.Batches.DrawCallCount(),
		CurrentScene:   scene.Name,
	}
}

// Release frees the Scene's instance buffers and every resource its ResourceManager holds.
func (scene *Scene) Release() {
	scene.Batches.Release()
	scene.resources.Release()
}
