package scenecore

import (
	"strconv"
	"sync/atomic"
)

// Entity is an opaque handle for an object in a Scene. It carries no data of its own; the systems
// (TransformSystem, ResourceManager, RenderBatchSystem) key their state by it.
type Entity uint64

// NoEntity is the zero Entity; it's never handed out by an EntityAllocator.
const NoEntity Entity = 0

func (e Entity) String() string {
	return "Entity(" + strconv.FormatUint(uint64(e), 10) + ")"
}

// EntityAllocator hands out unique, monotonically increasing Entity handles.
type EntityAllocator struct {
	next atomic.Uint64
}

// Next returns a fresh Entity.
func (alloc *EntityAllocator) Next() Entity {
	return Entity(alloc.next.Add(1))
}

// Reserve makes sure that future calls to Next never return the given Entity (or any lower one).
// It's used when entities are created with ids chosen by an importer.
func (alloc *EntityAllocator) Reserve(e Entity) {
	for {
		cur := alloc.next.Load()
		if uint64(e) <= cur || alloc.next.CompareAndSwap(cur, uint64(e)) {
			return
		}
	}
}
