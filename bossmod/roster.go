package bossmod

import (
	"iter"

	"github.com/milk9111/bossmod/world"
)

// DefaultRaidSize is the roster capacity used when none is configured.
const DefaultRaidSize = 8

// Roster is a fixed set of raid slots. A member keeps its slot while alive;
// removing a member never shifts the others.
type Roster struct {
	slots []*world.Actor
}

func NewRoster(size int) Roster {
	if size <= 0 {
		size = DefaultRaidSize
	}
	return Roster{slots: make([]*world.Actor, size)}
}

func (r *Roster) Size() int { return len(r.slots) }

// Member returns the actor in slot, or nil if the slot is empty or out of range.
func (r *Roster) Member(slot int) *world.Actor {
	if slot < 0 || slot >= len(r.slots) {
		return nil
	}
	return r.slots[slot]
}

// Add places a in the first free slot and returns it, or -1 when full.
func (r *Roster) Add(a *world.Actor) int {
	for i, s := range r.slots {
		if s == nil {
			r.slots[i] = a
			return i
		}
	}
	return -1
}

// FindSlot returns the slot holding instance id, or -1.
func (r *Roster) FindSlot(id uint64) int {
	if id == 0 {
		return -1
	}
	for i, s := range r.slots {
		if s != nil && s.InstanceID == id {
			return i
		}
	}
	return -1
}

// SlotOf returns the slot holding exactly a, or -1.
func (r *Roster) SlotOf(a *world.Actor) int {
	for i, s := range r.slots {
		if s != nil && s == a {
			return i
		}
	}
	return -1
}

func (r *Roster) Clear(slot int) {
	if slot >= 0 && slot < len(r.slots) {
		r.slots[slot] = nil
	}
}

func (r *Roster) Count() int {
	n := 0
	for _, s := range r.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Members yields occupied slots in slot order.
func (r *Roster) Members() iter.Seq2[int, *world.Actor] {
	return func(yield func(int, *world.Actor) bool) {
		for i, s := range r.slots {
			if s != nil && !yield(i, s) {
				return
			}
		}
	}
}
