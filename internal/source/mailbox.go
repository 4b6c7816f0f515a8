package source

import (
	"context"
	"errors"
	"sync"
)

// errMailboxKilled reports an operation against a poisoned mailbox.
var errMailboxKilled = errors.New("source: mailbox killed")

// mailbox is a single-slot synchronization cell. put suspends while the
// slot is occupied, take suspends while it is empty, and kill poisons
// the cell so that pending and future operations fail fast instead of
// blocking. Each subscription owns two: one carrying message steps from
// the emitter to the producer, one carrying the user finalizer to
// whichever teardown path wins.
type mailbox[T any] struct {
	slot     chan T
	killed   chan struct{}
	killOnce sync.Once
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{
		slot:   make(chan T, 1),
		killed: make(chan struct{}),
	}
}

// put stores v, suspending until the slot is free. Fails with
// errMailboxKilled after kill, or with the context error.
func (m *mailbox[T]) put(ctx context.Context, v T) error {
	select {
	case <-m.killed:
		return errMailboxKilled
	default:
	}
	select {
	case m.slot <- v:
		return nil
	case <-m.killed:
		return errMailboxKilled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// take removes the stored value, suspending until one arrives.
func (m *mailbox[T]) take(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-m.killed:
		return zero, errMailboxKilled
	default:
	}
	select {
	case v := <-m.slot:
		return v, nil
	case <-m.killed:
		return zero, errMailboxKilled
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// tryTake removes the stored value without suspending. At most one
// caller can ever succeed for a given value; the slot holds one.
func (m *mailbox[T]) tryTake() (T, bool) {
	var zero T
	select {
	case v := <-m.slot:
		return v, true
	default:
		return zero, false
	}
}

// kill poisons the mailbox. Idempotent and safe to call concurrently
// with put and take.
func (m *mailbox[T]) kill() {
	m.killOnce.Do(func() {
		close(m.killed)
	})
}

// dead exposes the poison signal for select loops.
func (m *mailbox[T]) dead() <-chan struct{} {
	return m.killed
}
