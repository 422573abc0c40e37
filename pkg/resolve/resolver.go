// Package resolve turns arbitrary input strings into identifiers and
// identifiers into repository objects.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// Config bundles the collaborators a Resolver needs.
type Config struct {
	Registry *pid.Registry
	Store    pid.Store
	Fetcher  Fetcher
	Logger   hclog.Logger
}

// Resolver resolves identifiers. It holds no per-call state and is safe for
// concurrent use when its collaborators are.
type Resolver struct {
	registry   *pid.Registry
	store      pid.Store
	dispatcher *Dispatcher
	logger     hclog.Logger
}

// New creates a Resolver. Registry and Store are required; Fetcher is only
// needed by Resource.
func New(cfg Config) (*Resolver, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	r := &Resolver{
		registry: cfg.Registry,
		store:    cfg.Store,
		logger:   logger.Named("resolver"),
	}
	if cfg.Fetcher != nil {
		r.dispatcher = NewDispatcher(cfg.Fetcher)
	}
	return r, nil
}

// Resolve determines which identifier raw denotes.
//
// The URL form is tried before the canonical form, and within each form the
// native kind is tried before external kinds. External identifiers are only
// returned once the store has bound them to a native identifier. An input
// that matches nothing returns false with a nil error; only storage failures
// are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, raw string) (pid.Resolvable, bool, error) {
	if id, ok, err := r.resolveURL(ctx, raw); err != nil || ok {
		return id, ok, err
	}
	return r.ResolveCanonical(ctx, raw)
}

func (r *Resolver) resolveURL(ctx context.Context, raw string) (pid.Resolvable, bool, error) {
	if native, ok := pid.ExtractNativeFromURL(raw); ok {
		r.logger.Trace("resolved native identifier from url", "input", raw, "uuid", native.UUID())
		return native, true, nil
	}

	ext, ok := r.registry.ExtractExternalFromURL(raw)
	if !ok {
		return nil, false, nil
	}
	return r.bind(ctx, ext)
}

// ResolveCanonical resolves raw only as a canonical form.
func (r *Resolver) ResolveCanonical(ctx context.Context, raw string) (pid.Resolvable, bool, error) {
	native, ok, err := pid.ParseNativeCanonical(raw)
	if err != nil {
		r.logger.Trace("ignoring malformed native identifier", "input", raw, "error", err)
		return nil, false, nil
	}
	if ok {
		return native, true, nil
	}

	ext, ok, err := r.registry.ParseExternalCanonical(raw)
	if err != nil {
		r.logger.Trace("ignoring malformed external identifier", "input", raw, "error", err)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	return r.bind(ctx, ext)
}

// bind looks up the stored record for an unbound external identifier.
func (r *Resolver) bind(ctx context.Context, ext pid.ExternalID) (pid.Resolvable, bool, error) {
	stored, ok, err := r.store.RetrieveExternal(ctx, ext.Type(), ext.Value())
	if err != nil {
		return nil, false, storageError("retrieve external identifier", err)
	}
	if !ok || !stored.HasNativeIdentifier() {
		r.logger.Trace("external identifier not registered", "identifier", ext.Canonical())
		return nil, false, nil
	}
	return stored, true, nil
}

// Resource returns the repository object behind id.
//
// When the native identifier's resource type and id are unknown they are
// looked up by uuid first. id itself is never modified. A missing record or
// object returns *pid.ResourceNotFoundError.
func (r *Resolver) Resource(ctx context.Context, id pid.Resolvable) (pid.Object, error) {
	if r.dispatcher == nil {
		return nil, fmt.Errorf("resolver has no fetcher configured")
	}

	native, err := id.NativeIdentifier()
	if err != nil {
		return nil, err
	}

	if !native.HasResource() {
		enriched, ok, err := r.store.RetrieveNative(ctx, native.UUID())
		if err != nil {
			return nil, storageError("retrieve native identifier", err)
		}
		if !ok || !enriched.HasResource() {
			return nil, &pid.ResourceNotFoundError{
				UUID:         native.UUID().String(),
				ResourceType: pid.ResourceTypeUnknown,
				ResourceID:   pid.UnknownResourceID,
			}
		}
		native = enriched
	}

	obj, ok, err := r.dispatcher.Dispatch(ctx, native.ResourceType(), native.ResourceID())
	if err != nil {
		var fatal *pid.FatalDispatchError
		if errors.As(err, &fatal) {
			r.logger.Error("dispatch failed for native identifier",
				"uuid", native.UUID(),
				"resource_type", int(native.ResourceType()),
			)
			return nil, err
		}
		return nil, storageError("fetch "+native.ResourceType().String(), err)
	}
	if !ok {
		return nil, &pid.ResourceNotFoundError{
			UUID:         native.UUID().String(),
			ResourceType: native.ResourceType(),
			ResourceID:   native.ResourceID(),
		}
	}
	return obj, nil
}

// ResolveResource resolves raw and returns the object behind it. An input
// that is not an identifier returns false; an identifier without a live
// object returns *pid.ResourceNotFoundError.
func (r *Resolver) ResolveResource(ctx context.Context, raw string) (pid.Object, bool, error) {
	id, ok, err := r.Resolve(ctx, raw)
	if err != nil || !ok {
		return nil, false, err
	}
	obj, err := r.Resource(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return obj, true, nil
}

func storageError(op string, err error) error {
	var serr *pid.StorageError
	if errors.As(err, &serr) {
		return err
	}
	return &pid.StorageError{Op: op, Err: err}
}
