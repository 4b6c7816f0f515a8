// Package bus provides a topic-tagged publish/subscribe broker and an
// adapter that exposes a broker subscription as an event source, so
// cross-component events flow through the same subscribe/finalize
// lifecycle as every other input.
package bus

import (
	"context"
	"sync"
	"time"

	"github.com/zjrosen/loom/internal/source"
)

const defaultBufferSize = 64

// Topic tags published events.
type Topic string

// Event is a published event with a typed payload.
type Event[T any] struct {
	Topic   Topic
	Payload T
	At      time.Time
}

// Option configures a Broker.
type Option func(*options)

type options struct {
	buffer int
}

// WithBuffer sets the per-subscriber channel buffer.
func WithBuffer(n int) Option {
	return func(o *options) { o.buffer = n }
}

// Broker fans events out to subscribers. Publishing never blocks:
// events are dropped for subscribers whose buffer is full.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	done   chan struct{}
	buffer int
}

// New creates a broker.
func New[T any](opts ...Option) *Broker[T] {
	o := options{buffer: defaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		done:   make(chan struct{}),
		buffer: o.buffer,
	}
}

// Subscribe registers a subscriber channel. The channel closes when ctx
// is cancelled or the broker closes; subscribing to a closed broker
// returns an already-closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.buffer)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return // Close owns the channel teardown
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		select {
		case <-b.done:
			return
		default:
		}
		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish delivers an event to every subscriber, dropping it for any
// whose buffer is full.
func (b *Broker[T]) Publish(topic Topic, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	ev := Event[T]{Topic: topic, Payload: payload, At: time.Now()}
	for sub := range b.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

// Close shuts the broker down and closes all subscriber channels.
// Idempotent.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// Subscribers reports the number of active subscribers.
func (b *Broker[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Source adapts a broker subscription into an EventSource. With no
// topics the source carries every event; otherwise only the listed
// topics pass. The source closes itself when the broker closes, and
// its finalizer drops the broker subscription.
func Source[T any](b *Broker[T], topics ...Topic) source.EventSource[Event[T]] {
	return source.New(func(ctx context.Context, e *source.Emitter[Event[T]]) (source.Finalizer, error) {
		var wanted map[Topic]struct{}
		if len(topics) > 0 {
			wanted = make(map[Topic]struct{}, len(topics))
			for _, t := range topics {
				wanted[t] = struct{}{}
			}
		}

		sctx, cancel := context.WithCancel(ctx)
		ch := b.Subscribe(sctx)

		go func() {
			for ev := range ch {
				if wanted != nil {
					if _, ok := wanted[ev.Topic]; !ok {
						continue
					}
				}
				if err := e.Emit(sctx, ev); err != nil {
					return
				}
			}
			// Broker closed underneath us: self-close the stream.
			_ = e.Close(context.Background())
		}()

		return func(context.Context) error {
			cancel()
			return nil
		}, nil
	})
}
