package source

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTarget is an in-memory native-event collaborator.
type fakeTarget struct {
	mu        sync.Mutex
	listeners map[string][]*Listener[int]
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{listeners: make(map[string][]*Listener[int])}
}

func (ft *fakeTarget) AddListener(eventType string, l *Listener[int]) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.listeners[eventType] = append(ft.listeners[eventType], l)
}

func (ft *fakeTarget) RemoveListener(eventType string, l *Listener[int]) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ls := ft.listeners[eventType]
	for i, reg := range ls {
		if reg == l {
			ft.listeners[eventType] = append(ls[:i], ls[i+1:]...)
			return
		}
	}
	// Removing an unknown listener is a no-op.
}

func (ft *fakeTarget) count(eventType string) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.listeners[eventType])
}

func (ft *fakeTarget) fire(eventType string, ev int) {
	ft.mu.Lock()
	ls := append([]*Listener[int](nil), ft.listeners[eventType]...)
	ft.mu.Unlock()
	for _, l := range ls {
		l.Notify(ev)
	}
}

func waitRegistered(t *testing.T, ft *fakeTarget, eventType string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ft.count(eventType) == 1
	}, 2*time.Second, time.Millisecond)
}

// evens projects even events and rejects odd ones.
func evens(ev int) (int, bool) {
	return ev, ev%2 == 0
}

func TestFromListener_ProjectionFiltering(t *testing.T) {
	ft := newFakeTarget()
	src := FromListener("change", ft, evens)

	sub := src.Subscribe(context.Background())
	waitRegistered(t, ft, "change")

	ft.fire("change", 1) // rejected
	ft.fire("change", 2)
	ft.fire("change", 3) // rejected
	ft.fire("change", 4)

	for _, want := range []int{2, 4} {
		select {
		case got := <-sub.Msgs():
			require.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			require.Fail(t, "timeout waiting for projected event")
		}
	}

	// The rejected events must not be sitting behind the accepted ones.
	select {
	case got := <-sub.Msgs():
		require.Fail(t, "unexpected message", "got %v", got)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, sub.Unsubscribe(context.Background()))
}

func TestFromListener_UnsubscribeDeregisters(t *testing.T) {
	ft := newFakeTarget()
	src := FromListener("change", ft, evens)

	sub := src.Subscribe(context.Background())
	waitRegistered(t, ft, "change")

	require.NoError(t, sub.Unsubscribe(context.Background()))
	require.Equal(t, 0, ft.count("change"))

	// Events after deregistration go nowhere.
	ft.fire("change", 2)
	require.Empty(t, recvAll(t, sub))
}

func TestFromListener_IndependentSubscriptions(t *testing.T) {
	ft := newFakeTarget()
	src := FromListener("change", ft, evens)

	a := src.Subscribe(context.Background())
	b := src.Subscribe(context.Background())
	require.Eventually(t, func() bool {
		return ft.count("change") == 2
	}, 2*time.Second, time.Millisecond)

	ft.fire("change", 6)

	for _, sub := range []*Subscription[int]{a, b} {
		select {
		case got := <-sub.Msgs():
			require.Equal(t, 6, got)
		case <-time.After(2 * time.Second):
			require.Fail(t, "timeout waiting for fan-out event")
		}
	}

	require.NoError(t, a.Unsubscribe(context.Background()))
	require.Equal(t, 1, ft.count("change"))
	require.NoError(t, b.Unsubscribe(context.Background()))
	require.Equal(t, 0, ft.count("change"))
}
