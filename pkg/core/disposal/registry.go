// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package disposal

// registry of live values indexed by slot. Released slots are reused.
//
// Free slots are kept in a linked list threaded through the slots themselves.
// It is not safe for concurrent use: the Pool serializes access.
type registry[T any] struct {
	slots    []slot[T]
	nextFree int
	numLive  int
}

type slot[T any] struct {
	value    T
	live     bool
	nextFree int
}

// endOfList marks the end of the free slots list.
const endOfList = -1

// initialFreeSlots preallocated by newRegistry.
const initialFreeSlots = 128

func newRegistry[T any]() *registry[T] {
	r := &registry[T]{slots: make([]slot[T], initialFreeSlots)}
	for ii := range r.slots {
		r.slots[ii].nextFree = ii + 1
	}
	r.slots[len(r.slots)-1].nextFree = endOfList
	return r
}

// acquire returns a free slot for a value that will be set with set.
func (r *registry[T]) acquire() int {
	r.numLive++
	if r.nextFree == endOfList {
		r.slots = append(r.slots, slot[T]{live: true, nextFree: endOfList})
		return len(r.slots) - 1
	}
	id := r.nextFree
	r.nextFree = r.slots[id].nextFree
	r.slots[id].live = true
	return id
}

func (r *registry[T]) set(id int, value T) {
	r.slots[id].value = value
}

// get returns the value in slot id, and whether it is live.
func (r *registry[T]) get(id int) (value T, found bool) {
	if id < 0 || id >= len(r.slots) || !r.slots[id].live {
		return
	}
	return r.slots[id].value, true
}

// release frees the slot id. It returns false if it was not live.
func (r *registry[T]) release(id int) bool {
	if id < 0 || id >= len(r.slots) || !r.slots[id].live {
		return false
	}
	var zero T
	r.slots[id] = slot[T]{value: zero, nextFree: r.nextFree}
	r.nextFree = id
	r.numLive--
	return true
}

// live returns the ids of all live slots, in increasing order.
func (r *registry[T]) live() []int {
	ids := make([]int, 0, r.numLive)
	for id := range r.slots {
		if r.slots[id].live {
			ids = append(ids, id)
		}
	}
	return ids
}
