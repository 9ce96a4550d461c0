package scenecore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchFixture registers count entities in a row along X, all using the given mesh and material.
func batchFixture(t *testing.T, count int, mesh, material GUID) (*TransformSystem, *ResourceManager, *fakeDevice) {

	t.Helper()

	device := newFakeDevice()
	rm := newTestResources(newFakeImporter(), device)
	ts := NewTransformSystem()
	ctx := context.Background()

	for i := 1; i <= count; i++ {
		e := Entity(i)
		ts.AddTransform(e, NewTransformAt(float32(i)*3, 0, 0))
		_, err := rm.LoadMesh(ctx, e, mesh)
		require.NoError(t, err)
		_, err = rm.LoadMaterial(ctx, e, material)
		require.NoError(t, err)
	}

	ts.Update()

	return ts, rm, device

}

func TestBatchSharedResources(t *testing.T) {

	ts, rm, device := batchFixture(t, 50, "mesh:cube", "mat:red")
	rbs := NewRenderBatchSystem()
	assert.True(t, rbs.Dirty())

	rbs.RebuildBatches(ts.Entities(), nil, rm)
	assert.False(t, rbs.Dirty())

	batches := rbs.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, BatchKey{Mesh: "mesh:cube", Material: "mat:red"}, batches[0].Key)
	assert.Len(t, batches[0].Entities, 50)

	require.NoError(t, rbs.UpdateInstanceBuffers(device, ts, nil))
	assert.Equal(t, 50, batches[0].InstanceCount)
	assert.Equal(t, 1, rbs.DrawCallCount())

	// Hiding 10 of them through the visibility map takes effect without a rebuild.
	visibility := VisibilityMap{}
	for e := Entity(1); e <= 10; e++ {
		visibility[e] = false
	}

	require.NoError(t, rbs.UpdateInstanceBuffers(device, ts, visibility))
	assert.False(t, rbs.Dirty())
	assert.Equal(t, 40, batches[0].InstanceCount)
	assert.Equal(t, 40, rbs.InstanceCount())
	assert.Equal(t, 40, batches[0].InstanceBuffer.(*fakeBuffer).count)

}

func TestBatchInstanceBuffersAreReplaced(t *testing.T) {

	ts, rm, device := batchFixture(t, 3, "mesh:cube", "mat:red")
	rbs := NewRenderBatchSystem()
	rbs.RebuildBatches(ts.Entities(), nil, rm)

	require.NoError(t, rbs.UpdateInstanceBuffers(device, ts, nil))
	first := rbs.Batches()[0].InstanceBuffer.(*fakeBuffer)

	require.NoError(t, rbs.UpdateInstanceBuffers(device, ts, nil))
	assert.True(t, first.released)

	live := device.live
	rbs.Release()
	assert.Equal(t, live-1, device.live)
	assert.Empty(t, rbs.Batches())

}

func TestBatchGroupsByKey(t *testing.T) {

	device := newFakeDevice()
	rm := newTestResources(newFakeImporter(), device)
	ts := NewTransformSystem()
	ctx := context.Background()

	assign := func(e Entity, mesh, material GUID) {
		ts.AddTransform(e, NewIdentityTransform())
		_, err := rm.LoadMesh(ctx, e, mesh)
		require.NoError(t, err)
		_, err = rm.LoadMaterial(ctx, e, material)
		require.NoError(t, err)
	}

	assign(1, "mesh:b", "mat:x")
	assign(2, "mesh:a", "mat:y")
	assign(3, "mesh:a", "mat:x")
	assign(4, "mesh:a", "mat:x")

	// An entity with a mesh but no material isn't batched.
	ts.AddTransform(5, NewIdentityTransform())
	_, err := rm.LoadMesh(ctx, 5, "mesh:a")
	require.NoError(t, err)

	ts.Update()

	rbs := NewRenderBatchSystem()
	rbs.RebuildBatches(ts.Entities(), nil, rm)

	keys := []BatchKey{}
	for _, batch := range rbs.Batches() {
		keys = append(keys, batch.Key)
	}

	assert.Equal(t, []BatchKey{
		{Mesh: "mesh:a", Material: "mat:x"},
		{Mesh: "mesh:a", Material: "mat:y"},
		{Mesh: "mesh:b", Material: "mat:x"},
	}, keys)

	key, ok := rbs.BatchOf(4)
	assert.True(t, ok)
	assert.Equal(t, BatchKey{Mesh: "mesh:a", Material: "mat:x"}, key)

	_, ok = rbs.BatchOf(5)
	assert.False(t, ok)

	batch, ok := rbs.Batch(BatchKey{Mesh: "mesh:a", Material: "mat:x"})
	require.True(t, ok)
	assert.Equal(t, []Entity{3, 4}, batch.Entities)

	// Changing an entity's material moves it to another batch on the next rebuild.
	_, err = rm.LoadMaterial(ctx, 4, "mat:y")
	require.NoError(t, err)
	rbs.RebuildBatches(ts.Entities(), nil, rm)

	key, _ = rbs.BatchOf(4)
	assert.Equal(t, BatchKey{Mesh: "mesh:a", Material: "mat:y"}, key)

}

func TestBatchRebuildSkipsHidden(t *testing.T) {

	ts, rm, device := batchFixture(t, 5, "mesh:cube", "mat:red")
	rbs := NewRenderBatchSystem()

	rbs.RebuildBatches(ts.Entities(), VisibilityMap{2: false, 3: false}, rm)
	require.NoError(t, rbs.UpdateInstanceBuffers(device, ts, nil))

	assert.Equal(t, []Entity{1, 4, 5}, rbs.Batches()[0].Entities)
	assert.Equal(t, 3, rbs.InstanceCount())

}

func TestBatchEmptyBatchHasNoBuffer(t *testing.T) {

	ts, rm, device := batchFixture(t, 2, "mesh:cube", "mat:red")
	rbs := NewRenderBatchSystem()
	rbs.RebuildBatches(ts.Entities(), nil, rm)

	require.NoError(t, rbs.UpdateInstanceBuffers(device, ts, VisibilityMap{1: false, 2: false}))

	batch := rbs.Batches()[0]
	assert.Nil(t, batch.InstanceBuffer)
	assert.Zero(t, batch.InstanceCount)
	assert.Zero(t, rbs.DrawCallCount())

}

func TestBatchInstanceBufferFailure(t *testing.T) {

	ts, rm, device := batchFixture(t, 2, "mesh:cube", "mat:red")
	rbs := NewRenderBatchSystem()
	rbs.RebuildBatches(ts.Entities(), nil, rm)

	device.failInstances = true
	assert.ErrorIs(t, rbs.UpdateInstanceBuffers(device, ts, nil), errInjected)

}

func TestVisibilityMapDefault(t *testing.T) {
	vm := VisibilityMap{1: false, 2: true}
	assert.False(t, vm.Visible(1))
	assert.True(t, vm.Visible(2))
	assert.True(t, vm.Visible(3))
	assert.True(t, VisibilityMap(nil).Visible(1))
}
