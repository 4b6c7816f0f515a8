package source

import "context"

// Listener is a registered callback with a stable identity, so targets
// can deregister it later (funcs are not comparable, pointers are).
type Listener[E any] struct {
	fn func(E)
}

// NewListener wraps fn in a deregisterable handle.
func NewListener[E any](fn func(E)) *Listener[E] {
	return &Listener[E]{fn: fn}
}

// Notify invokes the callback. Targets call this for each event.
func (l *Listener[E]) Notify(ev E) {
	l.fn(ev)
}

// Target is the native-event collaborator: anything that can register
// and deregister listeners for a named event type. RemoveListener must
// be idempotent.
type Target[E any] interface {
	AddListener(eventType string, l *Listener[E])
	RemoveListener(eventType string, l *Listener[E])
}

// FromListener builds a source backed by a listener registration. Each
// native event is run through project; events it rejects are dropped
// without emitting. The finalizer deregisters the listener.
func FromListener[E, M any](eventType string, target Target[E], project func(E) (M, bool)) EventSource[M] {
	return NewSync(func(e *SyncEmitter[M]) Finalizer {
		l := NewListener(func(ev E) {
			if msg, ok := project(ev); ok {
				e.Emit(msg)
			}
		})
		target.AddListener(eventType, l)
		return func(context.Context) error {
			target.RemoveListener(eventType, l)
			return nil
		}
	})
}
