// Package query routes typed requests from a parent component into its
// children, addressed by slot identity: single lookups, structural
// paths across heterogeneous child kinds, and concurrent fan-out over
// every live child.
package query

import "context"

// Handler is a child component that can answer requests.
type Handler[Req, Res any] interface {
	HandleQuery(ctx context.Context, req Req) (Res, error)
}

// Registry is a read-only view of a parent's live children, keyed by
// slot. The router never mutates it; the owning component must not
// mutate it while a dispatch is in flight.
type Registry[S comparable, C any] interface {
	Lookup(slot S) (C, bool)
	Slots() []S
}

// SlotMap is the map-backed Registry owned by a parent. Mutation and
// dispatch must be serialized by the owner, which in a Bubble Tea
// program they are: both happen inside Update.
type SlotMap[S comparable, C any] struct {
	children map[S]C
}

// NewSlotMap returns an empty SlotMap.
func NewSlotMap[S comparable, C any]() *SlotMap[S, C] {
	return &SlotMap[S, C]{children: make(map[S]C)}
}

// Set registers or replaces the child at slot.
func (m *SlotMap[S, C]) Set(slot S, child C) {
	m.children[slot] = child
}

// Delete removes the child at slot, if any.
func (m *SlotMap[S, C]) Delete(slot S) {
	delete(m.children, slot)
}

// Lookup returns the child at slot.
func (m *SlotMap[S, C]) Lookup(slot S) (C, bool) {
	c, ok := m.children[slot]
	return c, ok
}

// Slots lists the live slots in no particular order.
func (m *SlotMap[S, C]) Slots() []S {
	slots := make([]S, 0, len(m.children))
	for s := range m.children {
		slots = append(slots, s)
	}
	return slots
}

// Len reports the number of live children.
func (m *SlotMap[S, C]) Len() int {
	return len(m.children)
}
