package pid

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const nativeCanonicalPrefix = NativeNamespace + ":"

var (
	nativeURLMarker = regexp.MustCompile(`(?i)uuid/`)

	// uuidShape is the hyphenated 8-4-4-4-12 form. uuid.Parse alone also
	// accepts urn, braced and unhyphenated forms.
	uuidShape = regexp.MustCompile(
		`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// hexToken splits a path into maximal runs of hex digits and hyphens.
	hexToken = regexp.MustCompile(`[0-9a-fA-F-]+`)
)

// parseUUIDToken parses s only when it is exactly a hyphenated, non-nil UUID.
func parseUUIDToken(s string) (uuid.UUID, bool) {
	if !uuidShape.MatchString(s) {
		return uuid.Nil, false
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, false
	}
	return u, true
}

// ParseNativeCanonical parses "uuid:{uuid}". It reports false without error
// when s does not carry the "uuid:" prefix, and returns a
// *MalformedIdentifierError when the prefix is present but the remainder is
// not a hyphenated 8-4-4-4-12 UUID. The nil UUID never identifies an object
// and is also malformed. The result is unresolved.
func ParseNativeCanonical(s string) (NativeID, bool, error) {
	if !strings.HasPrefix(s, nativeCanonicalPrefix) {
		return NativeID{}, false, nil
	}
	u, ok := parseUUIDToken(strings.TrimPrefix(s, nativeCanonicalPrefix))
	if !ok {
		return NativeID{}, false, &MalformedIdentifierError{Kind: NativeNamespace, Input: s}
	}
	return NewUnresolvedNativeID(u), true, nil
}

// ExtractNativeFromURL finds a native identifier in a request path such as
// "/items/uuid/3fa85f64-5717-4562-b3fc-2c963f66afa6/edit". Candidates are
// the hex tokens after the first "uuid/" marker (case-insensitive), up to
// any query or fragment; the leftmost token that is exactly a non-nil UUID
// wins. It reports false when the path holds none.
func ExtractNativeFromURL(path string) (NativeID, bool) {
	loc := nativeURLMarker.FindStringIndex(path)
	if loc == nil {
		return NativeID{}, false
	}
	rest := path[loc[1]:]
	if end := strings.IndexAny(rest, "?#"); end >= 0 {
		rest = rest[:end]
	}

	for _, tok := range hexToken.FindAllString(rest, -1) {
		if u, ok := parseUUIDToken(strings.Trim(tok, "-")); ok {
			return NewUnresolvedNativeID(u), true
		}
	}
	return NativeID{}, false
}

// ParseExternalCanonical parses "{namespace}:{value}". Types are tried in
// registration order and the first whose namespace prefixes s wins. It
// reports false without error when no namespace matches, and returns a
// *MalformedIdentifierError when the winning type rejects the value. The
// result is unbound.
func (r *Registry) ParseExternalCanonical(s string) (ExternalID, bool, error) {
	for t := range r.All() {
		prefix := t.Namespace() + ":"
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		id, err := NewExternalID(t, strings.TrimPrefix(s, prefix), nil)
		if err != nil {
			return ExternalID{}, false, err
		}
		return id, true, nil
	}
	return ExternalID{}, false, nil
}

// ExtractExternalFromURL asks each registered type, in order, to find its
// value in path. The first structural match wins. The result is unbound.
func (r *Registry) ExtractExternalFromURL(path string) (ExternalID, bool) {
	for t := range r.All() {
		value, ok := t.ExtractValue(path)
		if !ok {
			continue
		}
		id, err := NewExternalID(t, value, nil)
		if err != nil {
			continue
		}
		return id, true
	}
	return ExternalID{}, false
}
