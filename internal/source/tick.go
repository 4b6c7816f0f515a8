package source

import (
	"context"
	"time"
)

// Every emits the current time on a fixed interval. The finalizer stops
// the ticker.
func Every(d time.Duration) EventSource[time.Time] {
	return New(func(ctx context.Context, e *Emitter[time.Time]) (Finalizer, error) {
		tctx, cancel := context.WithCancel(ctx)
		t := time.NewTicker(d)
		go func() {
			defer t.Stop()
			for {
				select {
				case now := <-t.C:
					if err := e.Emit(tctx, now); err != nil {
						return
					}
				case <-tctx.Done():
					return
				}
			}
		}()
		return func(context.Context) error {
			cancel()
			return nil
		}, nil
	})
}
