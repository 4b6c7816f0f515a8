package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestSource_EmitsDebouncedChange(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Path: dir, Debounce: 20 * time.Millisecond}

	sub := Source(cfg).Subscribe(context.Background())
	defer func() { _ = sub.Unsubscribe(context.Background()) }()

	target := filepath.Join(dir, "data.txt")

	// Setup runs asynchronously; keep writing until the watcher
	// reports back.
	deadline := time.After(5 * time.Second)
	write := time.NewTicker(50 * time.Millisecond)
	defer write.Stop()

	for {
		select {
		case <-write.C:
			require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
		case ev := <-sub.Msgs():
			require.Equal(t, target, ev.Path)
			require.NotZero(t, ev.Op&(fsnotify.Write|fsnotify.Create))
			require.False(t, ev.At.IsZero())
			return
		case <-deadline:
			require.Fail(t, "timeout waiting for change event")
			return
		}
	}
}

func TestSource_DebounceCollapsesBursts(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Path: dir, Debounce: 100 * time.Millisecond}

	sub := Source(cfg).Subscribe(context.Background())
	defer func() { _ = sub.Unsubscribe(context.Background()) }()

	// Allow watcher registration to land before the burst.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(dir, "burst.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte{byte(i)}, 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case ev := <-sub.Msgs():
		require.Equal(t, target, ev.Path)
	case <-time.After(5 * time.Second):
		require.Fail(t, "timeout waiting for debounced event")
	}

	// The burst collapses into a single notification.
	select {
	case ev := <-sub.Msgs():
		require.Fail(t, "unexpected second event", "got %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSource_CustomFilter(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Path:     dir,
		Debounce: 20 * time.Millisecond,
		Filter: func(ev fsnotify.Event) bool {
			return filepath.Ext(ev.Name) == ".db"
		},
	}

	sub := Source(cfg).Subscribe(context.Background())
	defer func() { _ = sub.Unsubscribe(context.Background()) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0644))

	select {
	case ev := <-sub.Msgs():
		require.Fail(t, "filtered event leaked", "got %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}

	target := filepath.Join(dir, "keep.db")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	select {
	case ev := <-sub.Msgs():
		require.Equal(t, target, ev.Path)
	case <-time.After(5 * time.Second):
		require.Fail(t, "timeout waiting for matching event")
	}
}

func TestSource_SetupFailsOnMissingPath(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "nope"), Debounce: time.Millisecond}

	sub := Source(cfg).Subscribe(context.Background())

	select {
	case _, ok := <-sub.Msgs():
		require.False(t, ok)
	case <-time.After(5 * time.Second):
		require.Fail(t, "stream did not close on setup failure")
	}
	require.Error(t, sub.Err())
	require.NoError(t, sub.Unsubscribe(context.Background()))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/tmp/x")
	require.Equal(t, "/tmp/x", cfg.Path)
	require.Equal(t, time.Second, cfg.Debounce)
	require.Nil(t, cfg.Filter)
}
