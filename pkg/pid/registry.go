package pid

import (
	"fmt"
	"iter"
)

// Registry holds the registered external identifier types in registration
// order. It is populated once at start-up and is read-only afterwards, so
// concurrent readers need no locking.
type Registry struct {
	types []ExternalType
}

// NewRegistry creates a registry from types, in the given order. Order
// defines resolution precedence. A namespace registered twice is accepted;
// lookups always return the first registration.
func NewRegistry(types ...ExternalType) (*Registry, error) {
	out := make([]ExternalType, 0, len(types))
	for i, t := range types {
		if t == nil {
			return nil, fmt.Errorf("external identifier type %d is nil", i)
		}
		out = append(out, t)
	}
	return &Registry{types: out}, nil
}

// ByNamespace returns the first registered type with namespace ns.
func (r *Registry) ByNamespace(ns string) (ExternalType, bool) {
	for _, t := range r.types {
		if t.Namespace() == ns {
			return t, true
		}
	}
	return nil, false
}

// All returns the registered types in registration order. The sequence can
// be iterated any number of times.
func (r *Registry) All() iter.Seq[ExternalType] {
	return func(yield func(ExternalType) bool) {
		for _, t := range r.types {
			if !yield(t) {
				return
			}
		}
	}
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.types)
}

// Namespaces returns the registered namespaces in registration order,
// including duplicates.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.types))
	for t := range r.All() {
		names = append(names, t.Namespace())
	}
	return names
}

// Duplicates returns namespaces registered more than once.
func (r *Registry) Duplicates() []string {
	seen := make(map[string]int)
	var dups []string
	for _, ns := range r.Namespaces() {
		seen[ns]++
		if seen[ns] == 2 {
			dups = append(dups, ns)
		}
	}
	return dups
}

// Instantiate creates an identifier of type t.
func (r *Registry) Instantiate(t ExternalType, value string, native *NativeID) (ExternalID, error) {
	return NewExternalID(t, value, native)
}
