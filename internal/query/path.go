package query

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Prism is a partial two-way mapping between an outer space and an
// inner one: Inject always succeeds, Project fails for outer values
// that belong to some other child kind.
type Prism[Outer, Inner any] struct {
	Inject  func(Inner) Outer
	Project func(Outer) (Inner, bool)
}

// Path addresses one child kind inside a parent that multiplexes
// several kinds through a unified slot and request space. It carries
// the slot mapping and the request mapping between the two schemes.
type Path[OS, IS comparable, OReq, IReq any] struct {
	Slot    Prism[OS, IS]
	Request Prism[OReq, IReq]
}

// QueryVia addresses a child through a structural path: both the slot
// and the request are injected into the parent's unified space, then
// dispatched as a plain Query.
func QueryVia[OS, IS comparable, OReq, IReq, Res any](
	ctx context.Context,
	reg Registry[OS, Handler[OReq, Res]],
	path Path[OS, IS, OReq, IReq],
	slot IS,
	req IReq,
) (Res, bool, error) {
	return Query(ctx, reg, path.Slot.Inject(slot), path.Request.Inject(req))
}

// QueryAllVia fans req out to every live child whose slot projects
// through path; slots of other kinds are silently skipped. Responses
// are keyed by the projected inner slot. Same all-or-nothing policy as
// QueryAll.
func QueryAllVia[OS, IS comparable, OReq, IReq, Res any](
	ctx context.Context,
	reg Registry[OS, Handler[OReq, Res]],
	path Path[OS, IS, OReq, IReq],
	req IReq,
) (map[IS]Res, error) {
	outer := path.Request.Inject(req)
	slots := reg.Slots()

	ctx, span := tracer.Start(ctx, "query.all.via",
		trace.WithAttributes(attribute.Int("slots", len(slots))))
	defer span.End()

	var mu sync.Mutex
	results := make(map[IS]Res)

	g, gctx := errgroup.WithContext(ctx)
	for _, slot := range slots {
		inner, ok := path.Slot.Project(slot)
		if !ok {
			continue
		}
		child, ok := reg.Lookup(slot)
		if !ok {
			continue
		}
		g.Go(func() error {
			res, err := child.HandleQuery(gctx, outer)
			if err != nil {
				return err
			}
			mu.Lock()
			results[inner] = res
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
