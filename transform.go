package scenecore

import (
	"fmt"
	"slices"

	"github.com/kamstrup/intmap"
)

// Transform holds an entity's local position, rotation, and scale, along with the cached local and world matrices
// derived from them. The local matrix is only rebuilt when one of the properties changes; the world matrix
// is written by TransformSystem.Update().
type Transform struct {
	position Vector3
	rotation Quaternion
	scale    Vector3

	local Matrix4
	world Matrix4
	dirty bool
}

// NewTransform creates a new Transform with the given local position, rotation, and scale.
func NewTransform(position Vector3, rotation Quaternion, scale Vector3) Transform {
	if rotation.IsZero() {
		rotation = NewQuaternionIdentity()
	}
	return Transform{
		position: position,
		rotation: rotation,
		scale:    scale,
		local:    NewMatrix4(),
		world:    NewMatrix4(),
		dirty:    true,
	}
}

// NewIdentityTransform creates a Transform at the origin with no rotation and a scale of 1.
func NewIdentityTransform() Transform {
	return NewTransform(Vector3{}, NewQuaternionIdentity(), NewVector3All(1))
}

// NewTransformAt creates an unrotated, unscaled Transform at the given position.
func NewTransformAt(x, y, z float32) Transform {
	return NewTransform(Vector3{x, y, z}, NewQuaternionIdentity(), NewVector3All(1))
}

// Position returns the Transform's local position.
func (t *Transform) Position() Vector3 { return t.position }

// SetPosition sets the Transform's local position.
func (t *Transform) SetPosition(position Vector3) {
	t.position = position
	t.dirty = true
}

// Rotation returns the Transform's local rotation.
func (t *Transform) Rotation() Quaternion { return t.rotation }

// SetRotation sets the Transform's local rotation.
func (t *Transform) SetRotation(rotation Quaternion) {
	t.rotation = rotation
	t.dirty = true
}

// Scale returns the Transform's local scale.
func (t *Transform) Scale() Vector3 { return t.scale }

// SetScale sets the Transform's local scale.
func (t *Transform) SetScale(scale Vector3) {
	t.scale = scale
	t.dirty = true
}

// Dirty returns true if the local matrix needs to be rebuilt.
func (t *Transform) Dirty() bool { return t.dirty }

// LocalMatrix returns the local transform matrix, rebuilding it if any property changed.
func (t *Transform) LocalMatrix() Matrix4 {
	if t.dirty {
		t.local = NewMatrix4FromTRS(t.position, t.rotation, t.scale)
		t.dirty = false
	}
	return t.local
}

// WorldMatrix returns the world matrix computed by the last TransformSystem.Update().
func (t *Transform) WorldMatrix() Matrix4 { return t.world }

type traversalItem struct {
	entity      Entity
	parentWorld Matrix4
}

// TransformSystem owns every entity's Transform as well as the parent / child relation between them.
// The relation is always a forest: SetParent refuses to create a cycle.
type TransformSystem struct {
	transforms *intmap.Map[Entity, *Transform]
	parents    *intmap.Map[Entity, Entity]
	children   *intmap.Map[Entity, []Entity]

	order []Entity // Registration order; roots are visited in this order
	stack []traversalItem
}

// NewTransformSystem creates a new, empty TransformSystem.
func NewTransformSystem() *TransformSystem {
	return &TransformSystem{
		transforms: intmap.New[Entity, *Transform](256),
		parents:    intmap.New[Entity, Entity](256),
		children:   intmap.New[Entity, []Entity](64),
		order:      []Entity{},
	}
}

// AddTransform registers an entity with its local Transform. If the entity is already registered, nothing happens and
// AddTransform returns false.
func (ts *TransformSystem) AddTransform(entity Entity, transform Transform) bool {
	if ts.transforms.Has(entity) {
		return false
	}
	t := transform
	t.dirty = true
	ts.transforms.Put(entity, &t)
	ts.order = append(ts.order, entity)
	return true
}

// SetParent parents child to parent, detaching it from any previous parent first.
// An error is returned if either entity is unknown, or if parent is child itself or one of its descendants.
func (ts *TransformSystem) SetParent(parent, child Entity) error {

	if !ts.transforms.Has(parent) {
		return fmt.Errorf("parent %s: %w", parent, ErrUnknownEntity)
	}
	if !ts.transforms.Has(child) {
		return fmt.Errorf("child %s: %w", child, ErrUnknownEntity)
	}

	for ancestor, ok := parent, true; ok; ancestor, ok = ts.parents.Get(ancestor) {
		if ancestor == child {
			return fmt.Errorf("parenting %s to %s: %w", child, parent, ErrCycle)
		}
	}

	if current, ok := ts.parents.Get(child); ok {
		if current == parent {
			return nil
		}
		ts.detach(current, child)
	}

	ts.parents.Put(child, parent)
	kids, _ := ts.children.Get(parent)
	ts.children.Put(parent, append(kids, child))
	return nil

}

// ClearParent detaches the entity from its parent, making it a root.
func (ts *TransformSystem) ClearParent(child Entity) {
	if current, ok := ts.parents.Get(child); ok {
		ts.detach(current, child)
		ts.parents.Del(child)
	}
}

func (ts *TransformSystem) detach(parent, child Entity) {
	kids, ok := ts.children.Get(parent)
	if !ok {
		return
	}
	if i := slices.Index(kids, child); i >= 0 {
		kids = slices.Delete(kids, i, i+1)
	}
	if len(kids) == 0 {
		ts.children.Del(parent)
	} else {
		ts.children.Put(parent, kids)
	}
}

// Update recomputes every entity's world matrix. Each root is walked depth-first (parents before children) with an explicit
// stack, so arbitrarily deep hierarchies are fine. Local matrices are only rebuilt for dirty transforms; world matrices are
// always rebuilt.
func (ts *TransformSystem) Update() {

	identity := NewMatrix4()

	for _, root := range ts.order {

		if ts.hasLiveParent(root) {
			continue
		}

		ts.stack = append(ts.stack[:0], traversalItem{entity: root, parentWorld: identity})

		for len(ts.stack) > 0 {

			item := ts.stack[len(ts.stack)-1]
			ts.stack = ts.stack[:len(ts.stack)-1]

			t, ok := ts.transforms.Get(item.entity)
			if !ok {
				continue
			}

			t.world = t.LocalMatrix().Mult(item.parentWorld)

			kids, _ := ts.children.Get(item.entity)
			// Pushed in reverse so they're popped in order.
			for i := len(kids) - 1; i >= 0; i-- {
				ts.stack = append(ts.stack, traversalItem{entity: kids[i], parentWorld: t.world})
			}

		}

	}

}

func (ts *TransformSystem) hasLiveParent(entity Entity) bool {
	parent, ok := ts.parents.Get(entity)
	return ok && ts.transforms.Has(parent)
}

// WorldMatrix returns the entity's world matrix as of the last Update().
func (ts *TransformSystem) WorldMatrix(entity Entity) (Matrix4, bool) {
	t, ok := ts.transforms.Get(entity)
	if !ok {
		return Matrix4{}, false
	}
	return t.world, true
}

// LocalTransform returns a copy of the entity's local Transform.
func (ts *TransformSystem) LocalTransform(entity Entity) (Transform, bool) {
	t, ok := ts.transforms.Get(entity)
	if !ok {
		return Transform{}, false
	}
	return *t, true
}

// LocalTransformMut returns the entity's Transform for modification. The Transform is marked dirty, so its local
// matrix is rebuilt on the next Update().
func (ts *TransformSystem) LocalTransformMut(entity Entity) (*Transform, bool) {
	t, ok := ts.transforms.Get(entity)
	if ok {
		t.dirty = true
	}
	return t, ok
}

// Parent returns the entity's parent, if it has one.
func (ts *TransformSystem) Parent(entity Entity) (Entity, bool) {
	return ts.parents.Get(entity)
}

// Children returns a copy of the entity's direct children, in the order they were parented.
func (ts *TransformSystem) Children(entity Entity) []Entity {
	kids, _ := ts.children.Get(entity)
	return slices.Clone(kids)
}

// Roots returns every entity without a parent, in registration order.
func (ts *TransformSystem) Roots() []Entity {
	roots := []Entity{}
	for _, e := range ts.order {
		if !ts.hasLiveParent(e) {
			roots = append(roots, e)
		}
	}
	return roots
}

// Entities returns every registered entity, in registration order.
func (ts *TransformSystem) Entities() []Entity {
	return slices.Clone(ts.order)
}

// Has returns true if the entity is registered.
func (ts *TransformSystem) Has(entity Entity) bool {
	return ts.transforms.Has(entity)
}

// Len returns how many entities are registered.
func (ts *TransformSystem) Len() int {
	return ts.transforms.Len()
}

// RemoveEntity removes the entity along with all of its descendants, detaching it from its parent.
// The removed entities are returned (the entity itself first); nothing is returned if the entity was unknown.
func (ts *TransformSystem) RemoveEntity(entity Entity) []Entity {

	if !ts.transforms.Has(entity) {
		return nil
	}

	if parent, ok := ts.parents.Get(entity); ok {
		ts.detach(parent, entity)
	}

	removed := []Entity{}
	pending := []Entity{entity}

	for len(pending) > 0 {
		e := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		removed = append(removed, e)
		kids, _ := ts.children.Get(e)
		pending = append(pending, kids...)

		ts.transforms.Del(e)
		ts.parents.Del(e)
		ts.children.Del(e)
	}

	ts.order = slices.DeleteFunc(ts.order, func(e Entity) bool { return !ts.transforms.Has(e) })

	return removed

}
