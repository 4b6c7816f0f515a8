// Package watch exposes debounced file-system change notifications as
// an event source.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/loom/internal/source"
)

// Event is a debounced file-system change.
type Event struct {
	Path string
	Op   fsnotify.Op
	At   time.Time
}

// Config holds watch options.
type Config struct {
	// Path is the file or directory to watch.
	Path string
	// Debounce collapses bursts of changes into one event.
	Debounce time.Duration
	// Filter decides which raw events count. Nil means writes and
	// creates.
	Filter func(fsnotify.Event) bool
}

// DefaultConfig returns sensible defaults for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:     path,
		Debounce: time.Second,
	}
}

func defaultFilter(ev fsnotify.Event) bool {
	return ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// Source builds an event source over cfg. Setup starts the fsnotify
// watcher and the debounce loop; the finalizer stops both. The source
// closes itself if the underlying watcher dies.
func Source(cfg Config) source.EventSource[Event] {
	filter := cfg.Filter
	if filter == nil {
		filter = defaultFilter
	}

	return source.New(func(ctx context.Context, e *source.Emitter[Event]) (source.Finalizer, error) {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
		}
		if err := fsw.Add(cfg.Path); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", cfg.Path, err)
		}

		sctx, cancel := context.WithCancel(ctx)
		go loop(sctx, fsw, cfg.Debounce, filter, e)

		return func(context.Context) error {
			cancel()
			return fsw.Close()
		}, nil
	})
}

// loop debounces raw events: the timer restarts on every relevant
// event and only its expiry emits, carrying the last event seen.
func loop(
	ctx context.Context,
	fsw *fsnotify.Watcher,
	debounce time.Duration,
	filter func(fsnotify.Event) bool,
	e *source.Emitter[Event],
) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending fsnotify.Event
	)

	for {
		select {
		case raw, ok := <-fsw.Events:
			if !ok {
				_ = e.Close(context.Background())
				return
			}
			if !filter(raw) {
				continue
			}
			pending = raw
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			ev := Event{Path: pending.Name, Op: pending.Op, At: time.Now()}
			if err := e.Emit(ctx, ev); err != nil {
				return
			}
			timer = nil
			timerC = nil

		case _, ok := <-fsw.Errors:
			if !ok {
				_ = e.Close(context.Background())
				return
			}
			// Keep watching; error visibility belongs to callers that
			// wrap the source.

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
