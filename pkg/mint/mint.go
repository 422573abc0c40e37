// Package mint issues identifiers for newly created repository objects.
//
// Minting only constructs identifier values. Persisting them is the
// caller's job (see store.Store.Register).
package mint

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// Assigner issues one external identifier kind for new objects.
type Assigner interface {
	// Type returns the identifier type this assigner issues.
	Type() pid.ExternalType

	// Mint issues a new identifier for obj, bound to native.
	Mint(ctx context.Context, obj pid.Object, native pid.NativeID) (pid.ExternalID, error)
}

// AssignerError reports a failed mint for one assigner.
type AssignerError struct {
	Namespace string
	Err       error
}

func (e *AssignerError) Error() string {
	return fmt.Sprintf("%s assigner failed: %v", e.Namespace, e.Err)
}

func (e *AssignerError) Unwrap() error {
	return e.Err
}

// Minter issues native and external identifiers.
type Minter struct {
	assigners []Assigner
	newUUID   func() uuid.UUID
	logger    hclog.Logger
}

// Option configures a Minter.
type Option func(*Minter)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(m *Minter) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithUUIDGenerator replaces uuid.New, mostly for tests.
func WithUUIDGenerator(fn func() uuid.UUID) Option {
	return func(m *Minter) {
		if fn != nil {
			m.newUUID = fn
		}
	}
}

// New creates a Minter. Assigners run in the given order.
func New(assigners []Assigner, opts ...Option) (*Minter, error) {
	for i, a := range assigners {
		if a == nil {
			return nil, fmt.Errorf("assigner %d is nil", i)
		}
	}

	m := &Minter{
		assigners: append([]Assigner(nil), assigners...),
		newUUID:   uuid.New,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("minter")
	return m, nil
}

// MintNative issues a fresh native identifier bound to obj's current type
// and id, and assigns it to obj. Every call issues a new UUID.
func (m *Minter) MintNative(obj pid.Assignable) (pid.NativeID, error) {
	native, err := pid.NewNativeID(m.newUUID(), obj.ResourceType(), obj.ResourceID())
	if err != nil {
		return pid.NativeID{}, fmt.Errorf("failed to mint native identifier: %w", err)
	}
	obj.AssignNativeIdentifier(native)

	m.logger.Debug("minted native identifier",
		"uuid", native.UUID(),
		"resource_type", native.ResourceType(),
		"resource_id", native.ResourceID(),
	)
	return native, nil
}

// MintAllExternal runs every assigner for obj, in registration order.
//
// A failing assigner does not stop the others: the identifiers that were
// minted are returned together with a *multierror.Error holding one
// *AssignerError per failure. obj must already carry its native identifier.
func (m *Minter) MintAllExternal(ctx context.Context, obj pid.IdentifiedObject) ([]pid.ExternalID, error) {
	native := obj.NativeIdentifier()
	if native.IsZero() {
		return nil, &pid.IdentifierStateError{Canonical: fmt.Sprintf("%s/%d", obj.ResourceType(), obj.ResourceID())}
	}

	var (
		minted []pid.ExternalID
		result *multierror.Error
	)
	for _, a := range m.assigners {
		ns := a.Type().Namespace()

		id, err := a.Mint(ctx, obj, native)
		if err != nil {
			m.logger.Warn("failed to mint external identifier",
				"namespace", ns,
				"uuid", native.UUID(),
				"error", err,
			)
			result = multierror.Append(result, &AssignerError{Namespace: ns, Err: err})
			continue
		}

		m.logger.Debug("minted external identifier",
			"identifier", id.Canonical(),
			"uuid", native.UUID(),
		)
		minted = append(minted, id)
	}

	return minted, result.ErrorOrNil()
}

// Assigners returns the configured assigners in order.
func (m *Minter) Assigners() []Assigner {
	return append([]Assigner(nil), m.assigners...)
}
