package scenecore

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformParentMoves(t *testing.T) {

	ts := NewTransformSystem()
	require.True(t, ts.AddTransform(1, NewIdentityTransform()))
	require.True(t, ts.AddTransform(2, NewTransformAt(1, 0, 0)))
	require.NoError(t, ts.SetParent(1, 2))

	ts.Update()

	world, ok := ts.WorldMatrix(2)
	require.True(t, ok)
	assert.True(t, world.Translation().Equals(Vector3{1, 0, 0}), "got %s", world.Translation())

	parent, ok := ts.LocalTransformMut(1)
	require.True(t, ok)
	parent.SetPosition(Vector3{5, 0, 0})
	ts.Update()

	world, _ = ts.WorldMatrix(2)
	assert.True(t, world.Translation().Equals(Vector3{6, 0, 0}), "got %s", world.Translation())

}

func TestTransformParentChild(t *testing.T) {

	ts := NewTransformSystem()
	require.True(t, ts.AddTransform(1, NewTransformAt(5, 0, 0)))
	require.True(t, ts.AddTransform(2, NewTransformAt(1, 0, 0)))
	require.NoError(t, ts.SetParent(1, 2))

	ts.Update()

	world, ok := ts.WorldMatrix(2)
	require.True(t, ok)
	assert.True(t, world.Translation().Equals(Vector3{6, 0, 0}), "got %s", world.Translation())

	// Moving the parent moves the child on the next update.
	parent, ok := ts.LocalTransformMut(1)
	require.True(t, ok)
	parent.SetPosition(Vector3{0, 3, 0})
	ts.Update()

	world, _ = ts.WorldMatrix(2)
	assert.True(t, world.Translation().Equals(Vector3{1, 3, 0}), "got %s", world.Translation())

}

func TestTransformRotationAndScale(t *testing.T) {

	ts := NewTransformSystem()

	parent := NewTransform(Vector3{}, NewQuaternionFromAxisAngle(WorldUp, math32.Pi/2), NewVector3All(2))
	ts.AddTransform(1, parent)
	ts.AddTransform(2, NewTransformAt(1, 0, 0))
	require.NoError(t, ts.SetParent(1, 2))
	ts.Update()

	// A quarter turn counter-clockwise around +Y takes +X to -Z; the parent's scale doubles the distance.
	world, _ := ts.WorldMatrix(2)
	assert.True(t, world.Translation().Equals(Vector3{0, 0, -2}), "got %s", world.Translation())

}

func TestTransformDuplicateAndUnknown(t *testing.T) {

	ts := NewTransformSystem()
	assert.True(t, ts.AddTransform(1, NewIdentityTransform()))
	assert.False(t, ts.AddTransform(1, NewTransformAt(1, 1, 1)))
	assert.Equal(t, 1, ts.Len())

	assert.ErrorIs(t, ts.SetParent(1, 99), ErrUnknownEntity)
	assert.ErrorIs(t, ts.SetParent(99, 1), ErrUnknownEntity)

	_, ok := ts.WorldMatrix(99)
	assert.False(t, ok)

}

func TestTransformCycles(t *testing.T) {

	ts := NewTransformSystem()
	for e := Entity(1); e <= 3; e++ {
		ts.AddTransform(e, NewIdentityTransform())
	}

	require.NoError(t, ts.SetParent(1, 2))
	require.NoError(t, ts.SetParent(2, 3))

	assert.ErrorIs(t, ts.SetParent(3, 1), ErrCycle)
	assert.ErrorIs(t, ts.SetParent(1, 1), ErrCycle)

	// The failed calls changed nothing.
	p, ok := ts.Parent(3)
	assert.True(t, ok)
	assert.Equal(t, Entity(2), p)
	_, ok = ts.Parent(1)
	assert.False(t, ok)
	assert.Equal(t, []Entity{1}, ts.Roots())

}

func TestTransformReparent(t *testing.T) {

	ts := NewTransformSystem()
	for e := Entity(1); e <= 3; e++ {
		ts.AddTransform(e, NewTransformAt(float32(e), 0, 0))
	}

	require.NoError(t, ts.SetParent(1, 3))
	require.NoError(t, ts.SetParent(2, 3))

	assert.Empty(t, ts.Children(1))
	assert.Equal(t, []Entity{3}, ts.Children(2))

	// Setting the same parent twice is a no-op.
	require.NoError(t, ts.SetParent(2, 3))
	assert.Equal(t, []Entity{3}, ts.Children(2))

	ts.ClearParent(3)
	assert.Empty(t, ts.Children(2))
	assert.Equal(t, []Entity{1, 2, 3}, ts.Roots())

	ts.Update()
	world, _ := ts.WorldMatrix(3)
	assert.True(t, world.Translation().Equals(Vector3{3, 0, 0}))

}

func TestTransformRemoveCascades(t *testing.T) {

	ts := NewTransformSystem()
	for e := Entity(1); e <= 5; e++ {
		ts.AddTransform(e, NewIdentityTransform())
	}

	require.NoError(t, ts.SetParent(1, 2))
	require.NoError(t, ts.SetParent(2, 3))
	require.NoError(t, ts.SetParent(2, 4))

	removed := ts.RemoveEntity(2)
	require.NotEmpty(t, removed)
	assert.Equal(t, Entity(2), removed[0])
	assert.ElementsMatch(t, []Entity{2, 3, 4}, removed)

	assert.Equal(t, 2, ts.Len())
	assert.True(t, ts.Has(1))
	assert.True(t, ts.Has(5))
	assert.False(t, ts.Has(3))
	assert.Empty(t, ts.Children(1))
	assert.Equal(t, []Entity{1, 5}, ts.Entities())

	assert.Nil(t, ts.RemoveEntity(2))

}

func TestTransformDeepHierarchy(t *testing.T) {

	const depth = 10000

	ts := NewTransformSystem()
	for e := Entity(1); e <= depth; e++ {
		ts.AddTransform(e, NewTransformAt(1, 0, 0))
		if e > 1 {
			require.NoError(t, ts.SetParent(e-1, e))
		}
	}

	ts.Update()

	world, ok := ts.WorldMatrix(depth)
	require.True(t, ok)
	assert.InDelta(t, depth, world.Translation().X, 0.5)

}

func TestTransformLocalTransformIsCopy(t *testing.T) {

	ts := NewTransformSystem()
	ts.AddTransform(1, NewTransformAt(1, 2, 3))

	local, ok := ts.LocalTransform(1)
	require.True(t, ok)
	local.SetPosition(Vector3{9, 9, 9})

	again, _ := ts.LocalTransform(1)
	assert.Equal(t, Vector3{1, 2, 3}, again.Position())

}

func BenchmarkTransformUpdate(b *testing.B) {

	ts := NewTransformSystem()
	for e := Entity(1); e <= 10000; e++ {
		ts.AddTransform(e, NewTransformAt(1, 0, 0))
		if e%10 != 1 {
			ts.SetParent(e-1, e)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ts.Update()
	}

}
