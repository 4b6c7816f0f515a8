// Package source bridges push-based external input (listeners, timers,
// file watchers, broker topics) into pull-based message streams that feed
// a Bubble Tea update loop. An EventSource is an inert description of how
// to subscribe; Subscribe starts an independent subscription with its own
// lifecycle, and the attached finalizer is guaranteed to run exactly once
// no matter how the subscription ends.
package source

import "context"

// Effect is a single effectful step run under a context.
type Effect func(ctx context.Context) error

// Middleware rewrites an Effect while preserving its sequencing.
// Used by Hoist to move sources, emitters and finalizers into a
// different execution context (tracing, logging, scheduling).
type Middleware func(Effect) Effect

// Finalizer is a composable cleanup action. The zero value (nil) does
// nothing. Finalizers are run by whoever tears the subscription down;
// failures propagate to that caller.
type Finalizer func(ctx context.Context) error

// Finalize runs the cleanup action. Safe on a nil Finalizer.
func (f Finalizer) Finalize(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

// Then sequences two finalizers, left first. If the first fails the
// second is skipped and the failure is returned.
func (f Finalizer) Then(next Finalizer) Finalizer {
	if f == nil {
		return next
	}
	if next == nil {
		return f
	}
	return func(ctx context.Context) error {
		if err := f(ctx); err != nil {
			return err
		}
		return next.Finalize(ctx)
	}
}

// Hoist rewraps the finalizer through mw.
func (f Finalizer) Hoist(mw Middleware) Finalizer {
	if f == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return mw(Effect(f))(ctx)
	}
}
