package pid

import (
	"fmt"
	"net/url"
)

// ExternalID is a namespace-qualified identifier issued by an external
// scheme. It is bound to a NativeID once registered against an object.
//
// ExternalIDs are immutable; construct them with NewExternalID or
// Registry.Instantiate.
type ExternalID struct {
	typ             ExternalType
	value           string
	native          *NativeID
	retainTombstone bool
}

// NewExternalID creates an external identifier of type t. native may be nil
// for identifiers that are not bound to an object yet.
func NewExternalID(t ExternalType, value string, native *NativeID) (ExternalID, error) {
	if t == nil {
		return ExternalID{}, fmt.Errorf("external identifier type cannot be nil")
	}
	if value == "" {
		return ExternalID{}, &MalformedIdentifierError{
			Kind:  t.Namespace(),
			Input: value,
			Err:   fmt.Errorf("value cannot be empty"),
		}
	}
	if err := t.ValidateValue(value); err != nil {
		return ExternalID{}, &MalformedIdentifierError{Kind: t.Namespace(), Input: value, Err: err}
	}

	id := ExternalID{
		typ:             t,
		value:           value,
		retainTombstone: t.RetainTombstone(),
	}
	if native != nil && !native.IsZero() {
		n := *native
		id.native = &n
	}
	return id, nil
}

// Type returns the scheme descriptor.
func (e ExternalID) Type() ExternalType {
	return e.typ
}

// Value returns the scheme-specific value (e.g., "123456789/100").
func (e ExternalID) Value() string {
	return e.value
}

// Namespace returns the scheme namespace (e.g., "hdl").
func (e ExternalID) Namespace() string {
	if e.typ == nil {
		return ""
	}
	return e.typ.Namespace()
}

// IsZero returns true if this is the zero ExternalID.
func (e ExternalID) IsZero() bool {
	return e.typ == nil && e.value == ""
}

// HasNativeIdentifier returns true if the identifier is bound to an object.
func (e ExternalID) HasNativeIdentifier() bool {
	return e.native != nil
}

// NativeIdentifier returns the bound native identifier. It fails with
// *IdentifierStateError if the identifier has not been bound.
func (e ExternalID) NativeIdentifier() (NativeID, error) {
	if e.native == nil {
		return NativeID{}, &IdentifierStateError{Canonical: e.Canonical()}
	}
	return *e.native, nil
}

// WithNativeIdentifier returns a copy of e bound to native. The receiver is
// not modified.
func (e ExternalID) WithNativeIdentifier(native NativeID) ExternalID {
	out := e
	if native.IsZero() {
		out.native = nil
		return out
	}
	out.native = &native
	return out
}

// RetainTombstone reports whether the identifier is kept as a tombstone when
// its object is removed.
func (e ExternalID) RetainTombstone() bool {
	return e.retainTombstone
}

// Canonical returns "{namespace}:{value}".
func (e ExternalID) Canonical() string {
	return e.Namespace() + ":" + e.value
}

// URLForm returns "{namespace}/{value}".
func (e ExternalID) URLForm() string {
	return e.Namespace() + "/" + e.value
}

// String returns the canonical form.
func (e ExternalID) String() string {
	return e.Canonical()
}

// ExternalURL builds the resolvable URL outside this system:
// protocol + activator + base URI + separator + value.
func (e ExternalID) ExternalURL() (string, error) {
	if e.typ == nil {
		return "", &MalformedIdentifierError{Kind: "external", Input: e.value, Err: fmt.Errorf("missing type")}
	}
	raw := e.typ.Protocol() + e.typ.ProtocolActivator() + e.typ.BaseURI() + e.typ.BaseSeparator() + e.value

	u, err := url.Parse(raw)
	if err != nil {
		return "", &MalformedIdentifierError{Kind: e.Namespace(), Input: raw, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &MalformedIdentifierError{
			Kind:  e.Namespace(),
			Input: raw,
			Err:   fmt.Errorf("URL requires a scheme and host"),
		}
	}
	return raw, nil
}

// Equal compares kind, namespace and value. Binding is not compared.
func (e ExternalID) Equal(other ExternalID) bool {
	return SameType(e.typ, other.typ) && e.value == other.value
}
