package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizer_NilIsNoop(t *testing.T) {
	var f Finalizer
	require.NoError(t, f.Finalize(context.Background()))
}

func TestFinalizer_ThenRunsLeftToRight(t *testing.T) {
	var order []string
	f := Finalizer(func(context.Context) error {
		order = append(order, "first")
		return nil
	}).Then(func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, f.Finalize(context.Background()))
	require.Equal(t, []string{"first", "second"}, order)
}

func TestFinalizer_ThenSkipsSecondOnFailure(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	f := Finalizer(func(context.Context) error {
		return boom
	}).Then(func(context.Context) error {
		ran = true
		return nil
	})

	require.ErrorIs(t, f.Finalize(context.Background()), boom)
	require.False(t, ran, "second finalizer must be skipped after a failure")
}

func TestFinalizer_ThenWithNil(t *testing.T) {
	ran := false
	f := Finalizer(nil).Then(func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, f.Finalize(context.Background()))
	require.True(t, ran)

	ran = false
	f = Finalizer(func(context.Context) error {
		ran = true
		return nil
	}).Then(nil)
	require.NoError(t, f.Finalize(context.Background()))
	require.True(t, ran)
}

func TestFinalizer_Hoist(t *testing.T) {
	wrapped := 0
	mw := Middleware(func(eff Effect) Effect {
		return func(ctx context.Context) error {
			wrapped++
			return eff(ctx)
		}
	})

	ran := false
	f := Finalizer(func(context.Context) error {
		ran = true
		return nil
	}).Hoist(mw)

	require.NoError(t, f.Finalize(context.Background()))
	require.True(t, ran)
	require.Equal(t, 1, wrapped)

	require.Nil(t, Finalizer(nil).Hoist(mw))
}
