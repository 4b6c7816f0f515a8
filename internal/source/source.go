package source

import (
	"context"

	"github.com/google/uuid"
)

// EventSource is an immutable description of a subscribable input: an
// effectful setup routine that registers with the outside world, feeds
// messages through an Emitter, and hands back the cleanup action.
// Nothing runs until Subscribe; subscribing the same value twice yields
// two independent subscriptions.
type EventSource[M any] struct {
	setup func(ctx context.Context, e *Emitter[M]) (Finalizer, error)
}

// New builds an EventSource from an asynchronous setup routine. Setup
// runs exactly once per subscription, in its own goroutine; it may
// block, spawn producers, and emit from callbacks. The returned
// Finalizer runs exactly once, after setup has completed, on whichever
// teardown path fires first (self-close, Unsubscribe, or context
// cancellation).
func New[M any](setup func(ctx context.Context, e *Emitter[M]) (Finalizer, error)) EventSource[M] {
	return EventSource[M]{setup: setup}
}

// Map rewrites the messages a source produces, leaving setup and
// finalization untouched. No subscription is started.
func Map[A, B any](src EventSource[A], f func(A) B) EventSource[B] {
	return New(func(ctx context.Context, e *Emitter[B]) (Finalizer, error) {
		inner := &Emitter[A]{
			send: func(ctx context.Context, st step[A]) error {
				if st.done {
					return e.send(ctx, step[B]{done: true})
				}
				return e.send(ctx, step[B]{msg: f(st.msg)})
			},
		}
		return src.setup(ctx, inner)
	})
}

// Hoist rewrites the source's execution context: setup, every message
// delivery, and the finalizer all run through mw. Sequencing is
// preserved; hoisting through an identity middleware yields an
// observably identical source. No subscription is started.
func Hoist[M any](src EventSource[M], mw Middleware) EventSource[M] {
	return New(func(ctx context.Context, e *Emitter[M]) (Finalizer, error) {
		var fin Finalizer
		run := mw(func(ctx context.Context) error {
			f, err := src.setup(ctx, e.Hoist(mw))
			if err != nil {
				return err
			}
			fin = f
			return nil
		})
		if err := run(ctx); err != nil {
			return nil, err
		}
		return fin.Hoist(mw), nil
	})
}

// Subscription is one live run of an EventSource. Messages arrive on
// Msgs in emit order; the channel closes when the source closes itself,
// the subscription is cancelled, or setup fails.
type Subscription[M any] struct {
	id        uuid.UUID
	out       chan M
	input     *mailbox[step[M]]
	finBox    *mailbox[Finalizer]
	setupDone chan struct{}
	done      chan struct{}

	// written before out closes; read only after it does
	err error
}

// Subscribe starts a subscription. Cancelling ctx is equivalent to
// calling Unsubscribe.
func (s EventSource[M]) Subscribe(ctx context.Context) *Subscription[M] {
	sub := &Subscription[M]{
		id:        uuid.New(),
		out:       make(chan M),
		input:     newMailbox[step[M]](),
		finBox:    newMailbox[Finalizer](),
		setupDone: make(chan struct{}),
		done:      make(chan struct{}),
	}

	em := &Emitter[M]{
		send: func(ctx context.Context, st step[M]) error {
			return sub.input.put(ctx, st)
		},
	}

	go sub.runSetup(ctx, s.setup, em)
	go sub.produce(ctx)
	go sub.watch(ctx)

	return sub
}

// Msgs is the subscription's message stream.
func (s *Subscription[M]) Msgs() <-chan M {
	return s.out
}

// Done closes when the stream has terminated.
func (s *Subscription[M]) Done() <-chan struct{} {
	return s.done
}

// ID identifies this subscription in logs.
func (s *Subscription[M]) ID() string {
	return s.id.String()
}

// Err reports a setup failure or a self-close finalization failure.
// Valid once Msgs has closed.
func (s *Subscription[M]) Err() error {
	return s.err
}

// Unsubscribe tears the subscription down. The message mailbox is
// poisoned first, which unblocks a parked producer and makes late emits
// no-ops; then the user finalizer runs, exactly once across all
// competing teardown paths. If setup is still in flight the call waits
// for it to finish, bounded by ctx. Safe to call repeatedly and
// concurrently.
func (s *Subscription[M]) Unsubscribe(ctx context.Context) error {
	s.input.kill()
	select {
	case <-s.setupDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.finalizeOnce(ctx)
}

func (s *Subscription[M]) runSetup(
	ctx context.Context,
	setup func(ctx context.Context, e *Emitter[M]) (Finalizer, error),
	em *Emitter[M],
) {
	fin, err := setup(ctx, em)
	if err != nil {
		s.err = err
		s.finBox.kill()
		close(s.setupDone)
		s.input.kill()
		return
	}
	// Single put into a fresh one-slot box: cannot block. The handover
	// deliberately ignores the subscription context; a cancellation
	// racing setup must not lose the finalizer.
	_ = s.finBox.put(context.Background(), fin)
	close(s.setupDone)
}

func (s *Subscription[M]) produce(ctx context.Context) {
	defer close(s.done)
	defer close(s.out)
	for {
		st, err := s.input.take(ctx)
		if err != nil {
			return
		}
		if st.done {
			s.selfClose(ctx)
			return
		}
		select {
		case s.out <- st.msg:
		case <-s.input.dead():
			return
		case <-ctx.Done():
			return
		}
	}
}

// selfClose handles the source closing itself: the emitter that sent
// the close signal came from setup, so setup is already underway and
// the wait here is bounded by its completion.
func (s *Subscription[M]) selfClose(ctx context.Context) {
	select {
	case <-s.setupDone:
	case <-ctx.Done():
		return
	}
	s.input.kill()
	if err := s.finalizeOnce(ctx); err != nil && s.err == nil {
		s.err = err
	}
}

// finalizeOnce is the single-use token take: the first caller to win
// the non-blocking take owns the finalizer and immediately poisons the
// box so every other path no-ops.
func (s *Subscription[M]) finalizeOnce(ctx context.Context) error {
	fin, ok := s.finBox.tryTake()
	if !ok {
		return nil
	}
	s.finBox.kill()
	return fin.Finalize(ctx)
}

// watch ties the subscription to its context.
func (s *Subscription[M]) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = s.Unsubscribe(context.Background())
	case <-s.done:
	}
}
