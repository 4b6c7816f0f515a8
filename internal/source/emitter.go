package source

import (
	"context"
	"errors"
)

// step is the unit carried through the message mailbox: either a
// message for the consumer or the close signal.
type step[M any] struct {
	msg  M
	done bool
}

// Emitter is the handle a setup routine uses to push messages into its
// subscription's stream or signal shutdown. It is valid only for the
// duration of that one subscription.
type Emitter[M any] struct {
	send func(ctx context.Context, st step[M]) error
}

// Emit delivers msg downstream, suspending while the subscription's
// single-slot mailbox is occupied. Emits against a torn-down
// subscription are dropped silently: a late callback racing teardown
// must not crash anything.
func (e *Emitter[M]) Emit(ctx context.Context, msg M) error {
	err := e.send(ctx, step[M]{msg: msg})
	if errors.Is(err, errMailboxKilled) {
		return nil
	}
	return err
}

// Close signals that the source has shut itself down. The stream
// terminates after all previously emitted messages are consumed.
// Idempotent once the subscription is torn down.
func (e *Emitter[M]) Close(ctx context.Context) error {
	err := e.send(ctx, step[M]{done: true})
	if errors.Is(err, errMailboxKilled) {
		return nil
	}
	return err
}

// Hoist rewraps the emitter so every delivery runs through mw.
func (e *Emitter[M]) Hoist(mw Middleware) *Emitter[M] {
	return &Emitter[M]{
		send: func(ctx context.Context, st step[M]) error {
			return mw(func(ctx context.Context) error {
				return e.send(ctx, st)
			})(ctx)
		},
	}
}
