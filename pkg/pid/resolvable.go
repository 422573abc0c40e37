package pid

import (
	"context"

	"github.com/google/uuid"
)

// Resolvable is satisfied by both NativeID and ExternalID.
type Resolvable interface {
	Namespace() string
	Canonical() string
	URLForm() string

	// NativeIdentifier returns the backing native identifier. A NativeID
	// returns itself.
	NativeIdentifier() (NativeID, error)
}

var (
	_ Resolvable = NativeID{}
	_ Resolvable = ExternalID{}
)

// Object is a repository object that can be identified.
type Object interface {
	ResourceType() ResourceType
	ResourceID() int64
}

// IdentifiedObject is an object that already carries its identifiers.
type IdentifiedObject interface {
	Object
	NativeIdentifier() NativeID
	ExternalIdentifiers() []ExternalID
}

// Assignable is an object that accepts its native identifier.
type Assignable interface {
	Object
	AssignNativeIdentifier(NativeID)
}

// Store is the lookup contract of the storage collaborator. Each method
// reports false when no record exists. Errors are storage failures.
type Store interface {
	// RetrieveExternal returns the bound identifier for (t, value).
	RetrieveExternal(ctx context.Context, t ExternalType, value string) (ExternalID, bool, error)

	// RetrieveNative returns the native identifier for u with its resource
	// type and id filled in.
	RetrieveNative(ctx context.Context, u uuid.UUID) (NativeID, bool, error)

	// RetrieveNativeByResource returns the native identifier of an object.
	RetrieveNativeByResource(ctx context.Context, rt ResourceType, id int64) (NativeID, bool, error)
}
