package scenecore

import "strconv"

// Handle refers to a value stored in a SlotMap. A Handle stays valid until its value is removed; after that, the slot's generation
// changes and the Handle no longer resolves, even if the slot is reused.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero returns true for the zero Handle, which never refers to anything.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

func (h Handle) String() string {
	return "Handle(" + strconv.FormatUint(uint64(h.index), 10) + "v" + strconv.FormatUint(uint64(h.generation), 10) + ")"
}

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// SlotMap is an index-based container with generation-checked handles.
type SlotMap[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// NewSlotMap creates a new, empty SlotMap.
func NewSlotMap[T any]() *SlotMap[T] {
	return &SlotMap[T]{}
}

// Insert stores the value and returns a Handle to it.
func (sm *SlotMap[T]) Insert(value T) Handle {

	var index uint32

	if n := len(sm.free); n > 0 {
		index = sm.free[n-1]
		sm.free = sm.free[:n-1]
	} else {
		sm.slots = append(sm.slots, slot[T]{})
		index = uint32(len(sm.slots) - 1)
	}

	s := &sm.slots[index]
	s.generation++
	// Generation 0 is reserved for the zero Handle.
	if s.generation == 0 {
		s.generation = 1
	}
	s.value = value
	s.occupied = true
	sm.count++

	return Handle{index: index, generation: s.generation}

}

func (sm *SlotMap[T]) slotFor(h Handle) *slot[T] {
	if h.IsZero() || int(h.index) >= len(sm.slots) {
		return nil
	}
	s := &sm.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return nil
	}
	return s
}

// Get returns the value the Handle refers to.
func (sm *SlotMap[T]) Get(h Handle) (T, bool) {
	if s := sm.slotFor(h); s != nil {
		return s.value, true
	}
	var zero T
	return zero, false
}

// Contains returns true if the Handle still refers to a live value.
func (sm *SlotMap[T]) Contains(h Handle) bool {
	return sm.slotFor(h) != nil
}

// Remove deletes the value the Handle refers to, returning it. The Handle (and any copies of it) become invalid.
func (sm *SlotMap[T]) Remove(h Handle) (T, bool) {
	var zero T
	s := sm.slotFor(h)
	if s == nil {
		return zero, false
	}
	value := s.value
	s.value = zero
	s.occupied = false
	sm.free = append(sm.free, h.index)
	sm.count--
	return value, true
}

// Len returns the number of live values.
func (sm *SlotMap[T]) Len() int {
	return sm.count
}

// Each calls forEach for every live value, stopping early if it returns false.
func (sm *SlotMap[T]) Each(forEach func(h Handle, value T) bool) {
	for i := range sm.slots {
		s := &sm.slots[i]
		if !s.occupied {
			continue
		}
		if !forEach(Handle{index: uint32(i), generation: s.generation}, s.value) {
			return
		}
	}
}
