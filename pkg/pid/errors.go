package pid

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedIdentifier matches any *MalformedIdentifierError.
	ErrMalformedIdentifier = errors.New("malformed identifier")

	// ErrIdentifierState matches any *IdentifierStateError.
	ErrIdentifierState = errors.New("invalid identifier state")

	// ErrResourceNotFound matches any *ResourceNotFoundError.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrFatalDispatch matches any *FatalDispatchError.
	ErrFatalDispatch = errors.New("fatal dispatch error")

	// ErrStorage matches any *StorageError.
	ErrStorage = errors.New("storage error")
)

// MalformedIdentifierError is returned when an input does not match the
// grammar of the identifier kind being parsed.
type MalformedIdentifierError struct {
	Kind  string // Identifier kind or namespace (e.g., "uuid", "hdl")
	Input string // Offending input
	Err   error  // Underlying parse error, may be nil
}

func (e *MalformedIdentifierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s identifier %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("malformed %s identifier %q", e.Kind, e.Input)
}

func (e *MalformedIdentifierError) Unwrap() error { return e.Err }

func (e *MalformedIdentifierError) Is(target error) bool {
	return target == ErrMalformedIdentifier
}

// IdentifierStateError is returned when a caller asks an external
// identifier for its native identifier before it has been bound.
type IdentifierStateError struct {
	Canonical string
}

func (e *IdentifierStateError) Error() string {
	return fmt.Sprintf("external identifier %s is not bound to a native identifier", e.Canonical)
}

func (e *IdentifierStateError) Is(target error) bool {
	return target == ErrIdentifierState
}

// ResourceNotFoundError is returned when a structurally valid, bound
// identifier has no live object behind it.
type ResourceNotFoundError struct {
	UUID         string
	ResourceType ResourceType
	ResourceID   int64
}

func (e *ResourceNotFoundError) Error() string {
	if e.ResourceType == ResourceTypeUnknown {
		return fmt.Sprintf("no resource found for uuid %s", e.UUID)
	}
	return fmt.Sprintf("no %s found with id %d (uuid %s)", e.ResourceType, e.ResourceID, e.UUID)
}

func (e *ResourceNotFoundError) Is(target error) bool {
	return target == ErrResourceNotFound
}

// FatalDispatchError indicates a resource type outside the closed set. It
// is an internal inconsistency and should not be recovered from.
type FatalDispatchError struct {
	ResourceType ResourceType
}

func (e *FatalDispatchError) Error() string {
	return fmt.Sprintf("cannot dispatch resource type %d", int(e.ResourceType))
}

func (e *FatalDispatchError) Is(target error) bool {
	return target == ErrFatalDispatch
}

// StorageError wraps a failure reported by the storage collaborator.
type StorageError struct {
	Op  string // Operation that failed (e.g., "retrieve external")
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
