package pid

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NativeNamespace is the namespace tag of native identifiers in both the
// canonical ("uuid:") and URL ("uuid/") forms.
const NativeNamespace = "uuid"

// NativeID is the system-issued identifier of a repository object.
//
// The UUID is the identity of the record and never changes. The resource
// type and id locate the concrete object in storage; they are either both
// known or both unknown (ResourceTypeUnknown / UnknownResourceID), the latter
// when the identifier came from parsing and has not been looked up yet.
type NativeID struct {
	uuid         uuid.UUID
	resourceType ResourceType
	resourceID   int64
}

// NewNativeID creates a native identifier bound to a concrete object.
// Returns error if the UUID is nil or exactly one of type and id is unknown.
func NewNativeID(u uuid.UUID, rt ResourceType, id int64) (NativeID, error) {
	if u == uuid.Nil {
		return NativeID{}, fmt.Errorf("native identifier UUID cannot be nil")
	}
	typeKnown := rt != ResourceTypeUnknown
	idKnown := id != UnknownResourceID
	if typeKnown != idKnown {
		return NativeID{}, fmt.Errorf(
			"resource type and id must both be known or both unknown (type=%s, id=%d)", rt, id)
	}
	if typeKnown && !rt.IsValid() {
		return NativeID{}, fmt.Errorf("invalid resource type: %d", int(rt))
	}
	return NativeID{uuid: u, resourceType: rt, resourceID: id}, nil
}

// NewUnresolvedNativeID creates a native identifier whose object has not
// been looked up yet.
func NewUnresolvedNativeID(u uuid.UUID) NativeID {
	return NativeID{
		uuid:         u,
		resourceType: ResourceTypeUnknown,
		resourceID:   UnknownResourceID,
	}
}

// MustParseNativeID parses a bare UUID literal into an unresolved native
// identifier, panicking on error. Intended for tests and fixtures.
func MustParseNativeID(s string) NativeID {
	u, err := uuid.Parse(s)
	if err != nil {
		panic(fmt.Sprintf("invalid UUID: %s: %v", s, err))
	}
	return NewUnresolvedNativeID(u)
}

// UUID returns the identifier's UUID.
func (n NativeID) UUID() uuid.UUID {
	return n.uuid
}

// ResourceType returns the object type, or ResourceTypeUnknown.
func (n NativeID) ResourceType() ResourceType {
	if n.IsZero() {
		return ResourceTypeUnknown
	}
	return n.resourceType
}

// ResourceID returns the storage key of the object, or UnknownResourceID.
func (n NativeID) ResourceID() int64 {
	if n.IsZero() {
		return UnknownResourceID
	}
	return n.resourceID
}

// HasResource returns true if the object type and id are known.
func (n NativeID) HasResource() bool {
	return !n.IsZero() && n.resourceType != ResourceTypeUnknown
}

// WithResource returns a copy of n bound to the given object. The receiver
// is not modified.
func (n NativeID) WithResource(rt ResourceType, id int64) (NativeID, error) {
	return NewNativeID(n.uuid, rt, id)
}

// IsZero returns true if this is the zero NativeID.
func (n NativeID) IsZero() bool {
	return n.uuid == uuid.Nil
}

// Equal compares identity only. Two values for the same UUID are equal
// even if only one of them has been resolved.
func (n NativeID) Equal(other NativeID) bool {
	return n.uuid == other.uuid
}

// Namespace returns NativeNamespace.
func (n NativeID) Namespace() string {
	return NativeNamespace
}

// Canonical returns the canonical form, "uuid:{uuid}".
func (n NativeID) Canonical() string {
	return NativeNamespace + ":" + n.uuid.String()
}

// URLForm returns the URL path-segment form, "uuid/{uuid}".
func (n NativeID) URLForm() string {
	return NativeNamespace + "/" + n.uuid.String()
}

// NativeIdentifier returns n itself. It never fails.
func (n NativeID) NativeIdentifier() (NativeID, error) {
	return n, nil
}

// String returns the canonical form.
func (n NativeID) String() string {
	return n.Canonical()
}

type nativeIDJSON struct {
	UUID         string       `json:"uuid"`
	ResourceType ResourceType `json:"resourceType"`
	ResourceID   int64        `json:"resourceId"`
}

// MarshalJSON implements json.Marshaler.
// Serializes as: {"uuid": "...", "resourceType": "item", "resourceId": 42}
func (n NativeID) MarshalJSON() ([]byte, error) {
	if n.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(nativeIDJSON{
		UUID:         n.uuid.String(),
		ResourceType: n.ResourceType(),
		ResourceID:   n.ResourceID(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NativeID) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*n = NativeID{}
		return nil
	}
	var obj nativeIDJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid NativeID JSON: %w", err)
	}
	u, err := uuid.Parse(obj.UUID)
	if err != nil {
		return fmt.Errorf("invalid UUID in JSON: %w", err)
	}
	parsed, err := NewNativeID(u, obj.ResourceType, obj.ResourceID)
	if err != nil {
		return fmt.Errorf("invalid NativeID: %w", err)
	}
	*n = parsed
	return nil
}
