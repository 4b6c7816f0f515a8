package source

import (
	"context"
	"sync"
)

// SyncEmitter is the emitter handed to synchronous setup routines and
// listener callbacks. Emit and Close never block the caller: steps are
// queued in order and pumped into the subscription by a dedicated
// goroutine, so a callback fired from someone else's event loop cannot
// stall that loop on the single-slot mailbox.
type SyncEmitter[M any] struct {
	q *pump[M]
}

// Emit queues msg for delivery. Fire-and-forget; order across calls
// from one goroutine is preserved.
func (e *SyncEmitter[M]) Emit(msg M) {
	e.q.push(step[M]{msg: msg})
}

// Close queues the shutdown signal. Messages emitted before Close are
// still delivered.
func (e *SyncEmitter[M]) Close() {
	e.q.push(step[M]{done: true})
}

// NewSync builds an EventSource from a synchronous setup routine, one
// that registers callbacks and returns without blocking. The routine's
// emitter is translated into the asynchronous context by the pump; its
// finalizer is run as-is, followed by the pump shutdown.
func NewSync[M any](setup func(e *SyncEmitter[M]) Finalizer) EventSource[M] {
	return New(func(ctx context.Context, e *Emitter[M]) (Finalizer, error) {
		p := newPump[M]()
		go p.run(ctx, e)
		fin := setup(&SyncEmitter[M]{q: p})
		return func(fctx context.Context) error {
			defer p.stop()
			return fin.Finalize(fctx)
		}, nil
	})
}

// pump is an unbounded FIFO handoff between non-blocking producers and
// the blocking mailbox.
type pump[M any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []step[M]
	closed bool
}

func newPump[M any]() *pump[M] {
	p := &pump[M]{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *pump[M]) push(st step[M]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.queue = append(p.queue, st)
	p.cond.Signal()
}

func (p *pump[M]) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cond.Broadcast()
}

func (p *pump[M]) run(ctx context.Context, e *Emitter[M]) {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		st := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if st.done {
			_ = e.Close(ctx)
			return
		}
		if err := e.Emit(ctx, st.msg); err != nil {
			return
		}
	}
}
