package pid

// PreferredIdentifier picks the identifier used to present obj. When
// preferredNamespace is set and obj has a bound external identifier in that
// namespace, that identifier is returned; otherwise the native identifier
// is. It never modifies obj.
func PreferredIdentifier(obj IdentifiedObject, preferredNamespace string) Resolvable {
	if preferredNamespace != "" {
		for _, ext := range obj.ExternalIdentifiers() {
			if ext.Namespace() == preferredNamespace && ext.HasNativeIdentifier() {
				return ext
			}
		}
	}
	return obj.NativeIdentifier()
}
