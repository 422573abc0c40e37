package resolve

import (
	"context"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// Fetcher loads repository objects by storage id, one method per resource
// type. Each method reports false when no object exists.
type Fetcher interface {
	FetchBitstream(ctx context.Context, id int64) (pid.Object, bool, error)
	FetchBundle(ctx context.Context, id int64) (pid.Object, bool, error)
	FetchItem(ctx context.Context, id int64) (pid.Object, bool, error)
	FetchCollection(ctx context.Context, id int64) (pid.Object, bool, error)
	FetchCommunity(ctx context.Context, id int64) (pid.Object, bool, error)
	FetchGroup(ctx context.Context, id int64) (pid.Object, bool, error)
	FetchPerson(ctx context.Context, id int64) (pid.Object, bool, error)
}

// Dispatcher maps a resource type onto the matching Fetcher method.
type Dispatcher struct {
	fetcher Fetcher
}

// NewDispatcher creates a dispatcher over f.
func NewDispatcher(f Fetcher) *Dispatcher {
	return &Dispatcher{fetcher: f}
}

// Dispatch fetches the object of type rt with storage id id. A type
// outside the closed set returns *pid.FatalDispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, rt pid.ResourceType, id int64) (pid.Object, bool, error) {
	switch rt {
	case pid.ResourceTypeBitstream:
		return d.fetcher.FetchBitstream(ctx, id)
	case pid.ResourceTypeBundle:
		return d.fetcher.FetchBundle(ctx, id)
	case pid.ResourceTypeItem:
		return d.fetcher.FetchItem(ctx, id)
	case pid.ResourceTypeCollection:
		return d.fetcher.FetchCollection(ctx, id)
	case pid.ResourceTypeCommunity:
		return d.fetcher.FetchCommunity(ctx, id)
	case pid.ResourceTypeGroup:
		return d.fetcher.FetchGroup(ctx, id)
	case pid.ResourceTypePerson:
		return d.fetcher.FetchPerson(ctx, id)
	default:
		return nil, false, &pid.FatalDispatchError{ResourceType: rt}
	}
}
