package scenecore

import (
	"cmp"
	"fmt"
	"slices"
)

// VisibilityMap holds a visibility flag per entity. Entities missing from the map count as visible.
type VisibilityMap map[Entity]bool

// Visible returns the entity's visibility flag.
func (vm VisibilityMap) Visible(entity Entity) bool {
	visible, ok := vm[entity]
	return !ok || visible
}

// BatchKey identifies a RenderBatch: every member shares this mesh and this material.
type BatchKey struct {
	Mesh     GUID
	Material GUID
}

func compareBatchKeys(a, b BatchKey) int {
	if c := cmp.Compare(a.Mesh, b.Mesh); c != 0 {
		return c
	}
	return cmp.Compare(a.Material, b.Material)
}

// RenderBatch is a group of entities drawn together in one instanced draw call.
type RenderBatch struct {
	Key      BatchKey
	Entities []Entity // Members as of the last rebuild

	// InstanceBuffer holds the world matrices of the members that are visible this frame. It's nil if none are.
	InstanceBuffer Buffer
	InstanceCount  int

	instances []Matrix4
}

func (batch *RenderBatch) releaseInstances() {
	if batch.InstanceBuffer != nil {
		batch.InstanceBuffer.Release()
		batch.InstanceBuffer = nil
	}
	batch.InstanceCount = 0
}

// RenderBatchSystem groups entities by (mesh, material) so that N entities sharing both are drawn with a single
// instanced draw call.
//
// Membership is only rebuilt when the scene's entities or their resource assignments change (see MarkDirty());
// instance buffers are refreshed every frame, so changes in visibility in between rebuilds still take effect.
type RenderBatchSystem struct {
	batches map[BatchKey]*RenderBatch
	keys    []BatchKey // Sorted, so batches are drawn in a stable order
	dirty   bool
}

// NewRenderBatchSystem creates an empty RenderBatchSystem. It starts dirty, so the first frame builds the batches.
func NewRenderBatchSystem() *RenderBatchSystem {
	return &RenderBatchSystem{
		batches: map[BatchKey]*RenderBatch{},
		keys:    []BatchKey{},
		dirty:   true,
	}
}

// MarkDirty flags the batches for a rebuild.
func (rbs *RenderBatchSystem) MarkDirty() {
	rbs.dirty = true
}

// Dirty returns true if the batches need to be rebuilt.
func (rbs *RenderBatchSystem) Dirty() bool {
	return rbs.dirty
}

// RebuildBatches throws away all batches and regroups the given entities. Entities that are not visible according to the
// map, or that don't have both a resident mesh and material, are left out.
func (rbs *RenderBatchSystem) RebuildBatches(entities []Entity, visibility VisibilityMap, rm *ResourceManager) {

	rbs.Release()

	for _, e := range entities {

		if !visibility.Visible(e) {
			continue
		}

		mesh, ok := rm.MeshFor(e)
		if !ok {
			continue
		}

		material, ok := rm.MaterialFor(e)
		if !ok {
			continue
		}

		key := BatchKey{Mesh: mesh.GUID, Material: material.GUID}

		batch, ok := rbs.batches[key]
		if !ok {
			batch = &RenderBatch{Key: key}
			rbs.batches[key] = batch
			rbs.keys = append(rbs.keys, key)
		}

		batch.Entities = append(batch.Entities, e)

	}

	slices.SortFunc(rbs.keys, compareBatchKeys)
	rbs.dirty = false

}

// UpdateInstanceBuffers rebuilds every batch's instance buffer from its members' current world matrices, skipping members
// that aren't visible according to the map. Batches left with no visible members have no instance buffer this frame.
// A failure to create a buffer is returned as-is; it isn't recoverable.
func (rbs *RenderBatchSystem) UpdateInstanceBuffers(device Device, ts *TransformSystem, visibility VisibilityMap) error {

	for _, key := range rbs.keys {

		batch := rbs.batches[key]
		batch.instances = batch.instances[:0]

		for _, e := range batch.Entities {
			if !visibility.Visible(e) {
				continue
			}
			if world, ok := ts.WorldMatrix(e); ok {
				batch.instances = append(batch.instances, world)
			}
		}

		batch.releaseInstances()

		if len(batch.instances) == 0 {
			continue
		}

		buffer, err := device.CreateInstanceBuffer(string(key.Mesh)+"+"+string(key.Material)+" instances", batch.instances)
		if err != nil {
			return fmt.Errorf("creating instance buffer for batch %s/%s: %w", key.Mesh, key.Material, err)
		}

		batch.InstanceBuffer = buffer
		batch.InstanceCount = len(batch.instances)

	}

	return nil

}

// Batches returns every batch, in draw order.
func (rbs *RenderBatchSystem) Batches() []*RenderBatch {
	out := make([]*RenderBatch, 0, len(rbs.keys))
	for _, key := range rbs.keys {
		out = append(out, rbs.batches[key])
	}
	return out
}

// Batch returns the batch with the given key.
func (rbs *RenderBatchSystem) Batch(key BatchKey) (*RenderBatch, bool) {
	batch, ok := rbs.batches[key]
	return batch, ok
}

// BatchOf returns the key of the batch the entity belongs to.
func (rbs *RenderBatchSystem) BatchOf(entity Entity) (BatchKey, bool) {
	for _, key := range rbs.keys {
		if slices.Contains(rbs.batches[key].Entities, entity) {
			return key, true
		}
	}
	return BatchKey{}, false
}

// DrawCallCount returns how many batches have at least one instance to draw.
func (rbs *RenderBatchSystem) DrawCallCount() int {
	count := 0
	for _, batch := range rbs.batches {
		if batch.InstanceCount > 0 {
			count++
		}
	}
	return count
}

// InstanceCount returns the total number of instances across all batches.
func (rbs *RenderBatchSystem) InstanceCount() int {
	count := 0
	for _, batch := range rbs.batches {
		count += batch.InstanceCount
	}
	return count
}

// Release frees every instance buffer and removes all batches.
func (rbs *RenderBatchSystem) Release() {
	for _, batch := range rbs.batches {
		batch.releaseInstances()
	}
	clear(rbs.batches)
	rbs.keys = rbs.keys[:0]
}
