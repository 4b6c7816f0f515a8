package query

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// tracer uses the globally registered provider; without one these
// spans are no-ops.
var tracer = otel.Tracer("loom/query")

// Query dispatches req to the child at slot. A structurally absent
// child is a normal outcome, not an error: conditional rendering means
// a slot can simply not be there. Returns (response, true, dispatch
// error) when the child exists, (zero, false, nil) when it does not.
func Query[S comparable, Req, Res any](
	ctx context.Context,
	reg Registry[S, Handler[Req, Res]],
	slot S,
	req Req,
) (Res, bool, error) {
	var zero Res
	child, ok := reg.Lookup(slot)
	if !ok {
		return zero, false, nil
	}
	res, err := child.HandleQuery(ctx, req)
	if err != nil {
		return zero, true, err
	}
	return res, true, nil
}

// QueryAll dispatches req to every live child concurrently and gathers
// the responses into a slot-keyed map. All-or-nothing: the first
// dispatch failure cancels the rest and fails the whole call, so a
// returned map always holds one fully completed response per live
// slot. Zero children yields an empty map.
func QueryAll[S comparable, Req, Res any](
	ctx context.Context,
	reg Registry[S, Handler[Req, Res]],
	req Req,
) (map[S]Res, error) {
	slots := reg.Slots()

	ctx, span := tracer.Start(ctx, "query.all",
		trace.WithAttributes(attribute.Int("slots", len(slots))))
	defer span.End()

	var mu sync.Mutex
	results := make(map[S]Res, len(slots))

	g, gctx := errgroup.WithContext(ctx)
	for _, slot := range slots {
		child, ok := reg.Lookup(slot)
		if !ok {
			continue
		}
		g.Go(func() error {
			res, err := child.HandleQuery(gctx, req)
			if err != nil {
				return err
			}
			mu.Lock()
			results[slot] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return results, nil
}
