package scenecore

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"slices"
)

// WhiteTexture is the GUID of the built-in 1x1 white texture that untextured materials are bound with.
const WhiteTexture GUID = "builtin:white"

// ResourceOptions configures a ResourceManager.
type ResourceOptions struct {
	// SweepInterval is how many frames pass between calls to UnloadAllUnusedResources() (see ShouldSweep()). Defaults to 60.
	SweepInterval int `toml:"sweep_interval"`
	// UnusedFrameWindow is how many frames a resource may go without being marked used before it's evicted.
	// Defaults to SweepInterval.
	UnusedFrameWindow int `toml:"unused_frame_window"`

	Logger *slog.Logger `toml:"-"`
}

// DefaultResourceOptions returns the default ResourceOptions.
func DefaultResourceOptions() ResourceOptions {
	return ResourceOptions{
		SweepInterval:     60,
		UnusedFrameWindow: 60,
	}
}

type cacheEntry struct {
	handle   Handle
	lastUsed uint64
}

// assignment is an entity's resource references. It's kept by GUID, so it outlives eviction of the resources themselves;
// the mesh bounds are copied here for the same reason.
type assignment struct {
	mesh      GUID
	material  GUID
	bounds    AABB
	hasBounds bool
}

// KindStats is the ResourceStats entry for one kind of resource.
type KindStats struct {
	Loaded      int // Resources currently resident
	Referenced  int // Resident resources that are in use (assigned to an entity, or used by a resident material)
	Assignments int // Entities (or materials, for textures) referring to a resource of this kind, resident or not
}

// ResourceStats reports cache occupancy, for debug overlays and logs.
type ResourceStats struct {
	Meshes    KindStats
	Materials KindStats
	Textures  KindStats
}

// ResourceManager owns every GPU-backed mesh, material, and texture of a Scene. Resources are cached by GUID, so any number of
// entities referring to the same GUID share one GPU object. Resources that go unused for a while are evicted by
// UnloadAllUnusedResources(); entity assignments survive eviction, so evicted resources can be brought back with ReloadFor().
//
// A ResourceManager is not safe for concurrent use; it belongs to the thread that updates and renders the Scene.
type ResourceManager struct {
	importer Importer
	device   Device
	logger   *slog.Logger

	meshes    *SlotMap[*Mesh]
	materials *SlotMap[*Material]
	textures  *SlotMap[*Texture]

	meshCache     map[GUID]*cacheEntry
	materialCache map[GUID]*cacheEntry
	textureCache  map[GUID]*cacheEntry

	assignments map[Entity]*assignment
	changed     bool // Set whenever something that batching depends on changes

	frame         uint64
	sweepInterval uint64
	unusedWindow  uint64
}

// NewResourceManager creates a ResourceManager that pulls resources from the importer and uploads them through the device.
func NewResourceManager(importer Importer, device Device, options ResourceOptions) *ResourceManager {

	if options.SweepInterval <= 0 {
		options.SweepInterval = 60
	}
	if options.UnusedFrameWindow <= 0 {
		options.UnusedFrameWindow = options.SweepInterval
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &ResourceManager{
		importer:      importer,
		device:        device,
		logger:        options.Logger.With("component", "resources"),
		meshes:        NewSlotMap[*Mesh](),
		materials:     NewSlotMap[*Material](),
		textures:      NewSlotMap[*Texture](),
		meshCache:     map[GUID]*cacheEntry{},
		materialCache: map[GUID]*cacheEntry{},
		textureCache:  map[GUID]*cacheEntry{},
		assignments:   map[Entity]*assignment{},
		sweepInterval: uint64(options.SweepInterval),
		unusedWindow:  uint64(options.UnusedFrameWindow),
	}

}

func (rm *ResourceManager) assignmentFor(entity Entity) *assignment {
	a, ok := rm.assignments[entity]
	if !ok {
		a = &assignment{}
		rm.assignments[entity] = a
	}
	return a
}

func (rm *ResourceManager) checkReady() error {
	if rm.importer == nil {
		return ErrNoImporter
	}
	if rm.device == nil {
		return ErrNoDevice
	}
	return nil
}

// LoadMesh returns the mesh with the given GUID, importing and uploading it first if it isn't cached, and assigns it to the entity.
// Passing NoEntity loads the mesh without assigning it.
func (rm *ResourceManager) LoadMesh(ctx context.Context, entity Entity, guid GUID) (Handle, error) {

	h, err := rm.loadMesh(ctx, guid)
	if err != nil {
		return Handle{}, err
	}

	if entity != NoEntity {
		mesh, _ := rm.meshes.Get(h)
		a := rm.assignmentFor(entity)
		if a.mesh != guid || !a.hasBounds {
			rm.changed = true
		}
		a.mesh = guid
		a.bounds = mesh.Bounds
		a.hasBounds = true
	}

	return h, nil

}

func (rm *ResourceManager) loadMesh(ctx context.Context, guid GUID) (Handle, error) {

	if entry, ok := rm.meshCache[guid]; ok {
		return entry.handle, nil
	}

	if err := rm.checkReady(); err != nil {
		return Handle{}, err
	}

	data, err := rm.importer.ImportMesh(ctx, guid)
	if err != nil {
		return Handle{}, fmt.Errorf("importing mesh %q: %w", guid, err)
	}
	data.GUID = guid

	mesh, err := uploadMesh(rm.device, data)
	if err != nil {
		return Handle{}, err
	}

	h := rm.meshes.Insert(mesh)
	rm.meshCache[guid] = &cacheEntry{handle: h, lastUsed: rm.frame}
	rm.logger.Debug("loaded mesh", "guid", guid, "name", mesh.Name, "indices", mesh.IndexCount)
	return h, nil

}

// LoadMaterial returns the material with the given GUID, importing it (and its texture) first if it isn't cached, and assigns it
// to the entity. Passing NoEntity loads the material without assigning it.
func (rm *ResourceManager) LoadMaterial(ctx context.Context, entity Entity, guid GUID) (Handle, error) {

	h, err := rm.loadMaterial(ctx, guid)
	if err != nil {
		return Handle{}, err
	}

	if entity != NoEntity {
		a := rm.assignmentFor(entity)
		if a.material != guid {
			rm.changed = true
		}
		a.material = guid
	}

	return h, nil

}

func (rm *ResourceManager) loadMaterial(ctx context.Context, guid GUID) (Handle, error) {

	if entry, ok := rm.materialCache[guid]; ok {
		return entry.handle, nil
	}

	if err := rm.checkReady(); err != nil {
		return Handle{}, err
	}

	data, err := rm.importer.ImportMaterial(ctx, guid)
	if err != nil {
		return Handle{}, fmt.Errorf("importing material %q: %w", guid, err)
	}
	data.GUID = guid

	textureGUID := data.Texture
	if textureGUID == "" {
		textureGUID = WhiteTexture
	}

	th, err := rm.LoadTexture(ctx, textureGUID)
	if err != nil {
		return Handle{}, fmt.Errorf("loading texture for material %q: %w", guid, err)
	}
	texture, _ := rm.textures.Get(th)

	group, err := rm.device.CreateMaterialBindGroup(string(guid), data, texture.GPU)
	if err != nil {
		return Handle{}, fmt.Errorf("creating bind group for material %q: %w", guid, err)
	}

	material := &Material{
		GUID:      guid,
		Name:      data.Name,
		BaseColor: data.BaseColor,
		Texture:   textureGUID,
		BindGroup: group,
	}

	h := rm.materials.Insert(material)
	rm.materialCache[guid] = &cacheEntry{handle: h, lastUsed: rm.frame}
	rm.logger.Debug("loaded material", "guid", guid, "name", material.Name, "texture", textureGUID)
	return h, nil

}

// LoadTexture returns the texture with the given GUID, importing and uploading it first if it isn't cached.
func (rm *ResourceManager) LoadTexture(ctx context.Context, guid GUID) (Handle, error) {

	if entry, ok := rm.textureCache[guid]; ok {
		return entry.handle, nil
	}

	if rm.device == nil {
		return Handle{}, ErrNoDevice
	}

	var data TextureData

	if guid == WhiteTexture {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, color.White)
		data = TextureData{GUID: WhiteTexture, Name: "White", Image: img}
	} else {
		if rm.importer == nil {
			return Handle{}, ErrNoImporter
		}
		var err error
		data, err = rm.importer.ImportTexture(ctx, guid)
		if err != nil {
			return Handle{}, fmt.Errorf("importing texture %q: %w", guid, err)
		}
		data.GUID = guid
	}

	texture, err := uploadTexture(rm.device, data)
	if err != nil {
		return Handle{}, err
	}

	h := rm.textures.Insert(texture)
	rm.textureCache[guid] = &cacheEntry{handle: h, lastUsed: rm.frame}
	rm.logger.Debug("loaded texture", "guid", guid, "width", texture.Width, "height", texture.Height)
	return h, nil

}

// Mesh returns the mesh the handle refers to.
func (rm *ResourceManager) Mesh(h Handle) (*Mesh, bool) { return rm.meshes.Get(h) }

// Material returns the material the handle refers to.
func (rm *ResourceManager) Material(h Handle) (*Material, bool) { return rm.materials.Get(h) }

// Texture returns the texture the handle refers to.
func (rm *ResourceManager) Texture(h Handle) (*Texture, bool) { return rm.textures.Get(h) }

// MeshByGUID returns the resident mesh with the given GUID.
func (rm *ResourceManager) MeshByGUID(guid GUID) (*Mesh, bool) {
	entry, ok := rm.meshCache[guid]
	if !ok {
		return nil, false
	}
	return rm.meshes.Get(entry.handle)
}

// MaterialByGUID returns the resident material with the given GUID.
func (rm *ResourceManager) MaterialByGUID(guid GUID) (*Material, bool) {
	entry, ok := rm.materialCache[guid]
	if !ok {
		return nil, false
	}
	return rm.materials.Get(entry.handle)
}

// TextureByGUID returns the resident texture with the given GUID.
func (rm *ResourceManager) TextureByGUID(guid GUID) (*Texture, bool) {
	entry, ok := rm.textureCache[guid]
	if !ok {
		return nil, false
	}
	return rm.textures.Get(entry.handle)
}

// MeshFor returns the resident mesh assigned to the entity.
func (rm *ResourceManager) MeshFor(entity Entity) (*Mesh, bool) {
	a, ok := rm.assignments[entity]
	if !ok || a.mesh == "" {
		return nil, false
	}
	return rm.MeshByGUID(a.mesh)
}

// MaterialFor returns the resident material assigned to the entity.
func (rm *ResourceManager) MaterialFor(entity Entity) (*Material, bool) {
	a, ok := rm.assignments[entity]
	if !ok || a.material == "" {
		return nil, false
	}
	return rm.MaterialByGUID(a.material)
}

// AssignedGUIDs returns the GUIDs of the mesh and material assigned to the entity, whether or not they're resident.
func (rm *ResourceManager) AssignedGUIDs(entity Entity) (mesh GUID, material GUID) {
	if a, ok := rm.assignments[entity]; ok {
		return a.mesh, a.material
	}
	return "", ""
}

// BoundsFor returns the local-space bounds of the mesh assigned to the entity. They stay available after the mesh is evicted.
func (rm *ResourceManager) BoundsFor(entity Entity) (AABB, bool) {
	a, ok := rm.assignments[entity]
	if !ok || !a.hasBounds {
		return AABB{}, false
	}
	return a.bounds, true
}

// Resident returns true if both the mesh and material assigned to the entity are loaded.
func (rm *ResourceManager) Resident(entity Entity) bool {
	_, hasMesh := rm.MeshFor(entity)
	_, hasMaterial := rm.MaterialFor(entity)
	return hasMesh && hasMaterial
}

// Unassign forgets the entity's resource assignment. The resources themselves stay cached until they're swept.
func (rm *ResourceManager) Unassign(entity Entity) {
	if _, ok := rm.assignments[entity]; ok {
		delete(rm.assignments, entity)
		rm.changed = true
	}
}

// takeChanged reports whether assignments or residency changed since the last call.
func (rm *ResourceManager) takeChanged() bool {
	c := rm.changed
	rm.changed = false
	return c
}

// UpdateFrame advances the frame counter that usage is tracked against. Call it once per frame.
func (rm *ResourceManager) UpdateFrame() {
	rm.frame++
}

// Frame returns the current frame counter.
func (rm *ResourceManager) Frame() uint64 {
	return rm.frame
}

// MarkMeshUsed records that the mesh was drawn this frame.
func (rm *ResourceManager) MarkMeshUsed(guid GUID) {
	if entry, ok := rm.meshCache[guid]; ok {
		entry.lastUsed = rm.frame
	}
}

// MarkMaterialUsed records that the material (and so its texture) was drawn this frame.
func (rm *ResourceManager) MarkMaterialUsed(guid GUID) {
	entry, ok := rm.materialCache[guid]
	if !ok {
		return
	}
	entry.lastUsed = rm.frame
	if material, ok := rm.materials.Get(entry.handle); ok {
		if texEntry, ok := rm.textureCache[material.Texture]; ok {
			texEntry.lastUsed = rm.frame
		}
	}
}

// ShouldSweep returns true on the frames where UnloadAllUnusedResources() should be called.
func (rm *ResourceManager) ShouldSweep() bool {
	return rm.frame > 0 && rm.frame%rm.sweepInterval == 0
}

// UnloadAllUnusedResources evicts every resource that hasn't been marked used within the unused frame window, releasing its
// GPU objects. Handles to evicted resources stop resolving. The number of evicted resources is returned.
func (rm *ResourceManager) UnloadAllUnusedResources() int {

	evicted := 0

	stale := func(entry *cacheEntry) bool {
		return rm.frame-entry.lastUsed > rm.unusedWindow
	}

	for _, guid := range sortedGUIDs(rm.materialCache) {
		entry := rm.materialCache[guid]
		if !stale(entry) {
			continue
		}
		if material, ok := rm.materials.Remove(entry.handle); ok {
			material.release()
		}
		delete(rm.materialCache, guid)
		rm.logger.Debug("evicted material", "guid", guid, "last_used", entry.lastUsed)
		evicted++
	}

	for _, guid := range sortedGUIDs(rm.meshCache) {
		entry := rm.meshCache[guid]
		if !stale(entry) {
			continue
		}
		if mesh, ok := rm.meshes.Remove(entry.handle); ok {
			mesh.release()
		}
		delete(rm.meshCache, guid)
		rm.logger.Debug("evicted mesh", "guid", guid, "last_used", entry.lastUsed)
		evicted++
	}

	inUse := map[GUID]bool{WhiteTexture: true}
	rm.materials.Each(func(_ Handle, material *Material) bool {
		inUse[material.Texture] = true
		return true
	})

	for _, guid := range sortedGUIDs(rm.textureCache) {
		entry := rm.textureCache[guid]
		if !stale(entry) || inUse[guid] {
			continue
		}
		if texture, ok := rm.textures.Remove(entry.handle); ok {
			texture.release()
		}
		delete(rm.textureCache, guid)
		rm.logger.Debug("evicted texture", "guid", guid, "last_used", entry.lastUsed)
		evicted++
	}

	if evicted > 0 {
		rm.changed = true
		rm.logger.Info("unloaded unused resources", "count", evicted, "frame", rm.frame)
	}

	return evicted

}

// ReloadFor reloads any evicted mesh or material assigned to the given entities. The number of resources reloaded is returned;
// the first failure stops the reload.
func (rm *ResourceManager) ReloadFor(ctx context.Context, entities []Entity) (int, error) {

	reloaded := 0

	for _, e := range entities {

		a, ok := rm.assignments[e]
		if !ok {
			continue
		}

		if err := ctx.Err(); err != nil {
			return reloaded, err
		}

		if a.mesh != "" {
			if _, ok := rm.meshCache[a.mesh]; !ok {
				if _, err := rm.loadMesh(ctx, a.mesh); err != nil {
					return reloaded, err
				}
				reloaded++
			}
		}

		if a.material != "" {
			if _, ok := rm.materialCache[a.material]; !ok {
				if _, err := rm.loadMaterial(ctx, a.material); err != nil {
					return reloaded, err
				}
				reloaded++
			}
		}

	}

	if reloaded > 0 {
		rm.changed = true
		rm.logger.Info("reloaded evicted resources", "count", reloaded)
	}

	return reloaded, nil

}

// Stats returns the current cache occupancy.
func (rm *ResourceManager) Stats() ResourceStats {

	stats := ResourceStats{}
	stats.Meshes.Loaded = len(rm.meshCache)
	stats.Materials.Loaded = len(rm.materialCache)
	stats.Textures.Loaded = len(rm.textureCache)

	meshRefs := map[GUID]bool{}
	materialRefs := map[GUID]bool{}

	for _, a := range rm.assignments {
		if a.mesh != "" {
			stats.Meshes.Assignments++
			if _, ok := rm.meshCache[a.mesh]; ok {
				meshRefs[a.mesh] = true
			}
		}
		if a.material != "" {
			stats.Materials.Assignments++
			if _, ok := rm.materialCache[a.material]; ok {
				materialRefs[a.material] = true
			}
		}
	}

	textureRefs := map[GUID]bool{}
	rm.materials.Each(func(_ Handle, material *Material) bool {
		stats.Textures.Assignments++
		if _, ok := rm.textureCache[material.Texture]; ok {
			textureRefs[material.Texture] = true
		}
		return true
	})

	stats.Meshes.Referenced = len(meshRefs)
	stats.Materials.Referenced = len(materialRefs)
	stats.Textures.Referenced = len(textureRefs)

	return stats

}

// Release frees every resource and forgets every assignment. The ResourceManager can be reused afterwards.
func (rm *ResourceManager) Release() {

	rm.meshes.Each(func(_ Handle, mesh *Mesh) bool {
		mesh.release()
		return true
	})
	rm.materials.Each(func(_ Handle, material *Material) bool {
		material.release()
		return true
	})
	rm.textures.Each(func(_ Handle, texture *Texture) bool {
		texture.release()
		return true
	})

	rm.meshes = NewSlotMap[*Mesh]()
	rm.materials = NewSlotMap[*Material]()
	rm.textures = NewSlotMap[*Texture]()
	clear(rm.meshCache)
	clear(rm.materialCache)
	clear(rm.textureCache)
	clear(rm.assignments)
	rm.changed = true

}

func sortedGUIDs(cache map[GUID]*cacheEntry) []GUID {
	guids := make([]GUID, 0, len(cache))
	for guid := range cache {
		guids = append(guids, guid)
	}
	slices.Sort(guids)
	return guids
}
