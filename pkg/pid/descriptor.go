package pid

import "fmt"

const (
	// DefaultProtocolActivator separates protocol and base URI.
	DefaultProtocolActivator = "://"

	// DefaultBaseSeparator separates base URI and identifier value.
	DefaultBaseSeparator = "/"
)

// ExternalType describes a registered external identifier scheme.
//
// Implementations are immutable once registered. Concrete kinds embed
// Descriptor for the shared fields and implement Kind, ValidateValue and
// ExtractValue themselves.
type ExternalType interface {
	// Kind names the concrete scheme implementation (e.g., "handle").
	Kind() string

	// Namespace is the canonical-form prefix and registry key (e.g., "hdl").
	Namespace() string

	Protocol() string
	ProtocolActivator() string
	BaseURI() string
	BaseSeparator() string

	// RetainTombstone reports whether identifiers of this kind are kept as
	// tombstones when their object is removed.
	RetainTombstone() bool

	// ValidateValue checks that value is well formed for this scheme.
	ValidateValue(value string) error

	// ExtractValue finds a value of this scheme inside a request path.
	// It reports false when the path holds no structural match.
	ExtractValue(path string) (string, bool)
}

// DescriptorConfig holds the fields of a Descriptor. Empty ProtocolActivator
// and BaseSeparator fall back to the defaults.
type DescriptorConfig struct {
	Namespace         string
	Protocol          string
	ProtocolActivator string
	BaseURI           string
	BaseSeparator     string

	// DropTombstone disables tombstone retention. Identifiers retain
	// tombstones unless a kind opts out.
	DropTombstone bool
}

// Descriptor carries the fields shared by every ExternalType.
type Descriptor struct {
	namespace         string
	protocol          string
	protocolActivator string
	baseURI           string
	baseSeparator     string
	retainTombstone   bool
}

// NewDescriptor validates cfg and applies defaults.
func NewDescriptor(cfg DescriptorConfig) (Descriptor, error) {
	if cfg.Namespace == "" {
		return Descriptor{}, fmt.Errorf("namespace cannot be empty")
	}
	if cfg.Namespace == NativeNamespace {
		return Descriptor{}, fmt.Errorf("namespace %q is reserved for native identifiers", NativeNamespace)
	}
	for _, r := range cfg.Namespace {
		if r == ':' || r == '/' {
			return Descriptor{}, fmt.Errorf("namespace %q cannot contain ':' or '/'", cfg.Namespace)
		}
	}

	d := Descriptor{
		namespace:         cfg.Namespace,
		protocol:          cfg.Protocol,
		protocolActivator: cfg.ProtocolActivator,
		baseURI:           cfg.BaseURI,
		baseSeparator:     cfg.BaseSeparator,
		retainTombstone:   !cfg.DropTombstone,
	}
	if d.protocolActivator == "" {
		d.protocolActivator = DefaultProtocolActivator
	}
	if d.baseSeparator == "" {
		d.baseSeparator = DefaultBaseSeparator
	}
	return d, nil
}

func (d Descriptor) Namespace() string         { return d.namespace }
func (d Descriptor) Protocol() string          { return d.protocol }
func (d Descriptor) ProtocolActivator() string { return d.protocolActivator }
func (d Descriptor) BaseURI() string           { return d.baseURI }
func (d Descriptor) BaseSeparator() string     { return d.baseSeparator }
func (d Descriptor) RetainTombstone() bool     { return d.retainTombstone }

// SameType reports whether a and b describe the same scheme. Instances of
// the same kind and namespace are equal regardless of identity.
func SameType(a, b ExternalType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Namespace() == b.Namespace()
}
