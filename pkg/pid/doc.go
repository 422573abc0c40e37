// Package pid provides persistent identifiers for repository objects.
//
// Every repository object (bitstream, bundle, item, collection, community,
// person, group) receives exactly one native identifier when it is created.
// Objects may additionally carry external identifiers issued by pluggable
// schemes such as handles or DOIs.
//
// # Core Concepts
//
//  1. NativeID: UUID-keyed identifier issued by this system. Optionally
//     carries the (resource type, resource id) pair of the object it names.
//
//  2. ExternalType: descriptor of a registered external scheme. It owns the
//     namespace, the pieces needed to build a resolvable URL, and the rules
//     for recognising its values inside request paths.
//
//  3. ExternalID: namespace-qualified value of an external scheme, bound to a
//     NativeID once it has been registered against an object.
//
// # String Forms
//
//	id.Canonical()   // "uuid:550e8400-..." or "hdl:123456789/100"
//	id.URLForm()     // "uuid/550e8400-..." or "hdl/123456789/100"
//	ext.ExternalURL() // "http://hdl.handle.net/123456789/100"
//
// Parsing is the exact inverse of Canonical and URLForm:
//
//	native, ok, err := pid.ParseNativeCanonical("uuid:550e8400-e29b-41d4-a716-446655440000")
//	ext, ok, err := registry.ParseExternalCanonical("hdl:123456789/100")
//
// Values produced by parsing are never bound to an object. Binding happens
// through a Store lookup (see package resolve).
//
// All identifier values are immutable. Methods that enrich an identifier
// return a new value.
package pid
