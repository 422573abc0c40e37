// Package handle implements the Handle System identifier scheme.
//
// A handle value is "{prefix}/{suffix}", e.g. "123456789/100". Its canonical
// form is "hdl:123456789/100" and its URL form "hdl/123456789/100".
package handle

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

const (
	// Kind names this scheme implementation.
	Kind = "handle"

	// DefaultNamespace is the namespace handles are registered under.
	DefaultNamespace = "hdl"
)

var (
	valuePattern  = regexp.MustCompile(`^[0-9A-Za-z.]+/[^\s/?#]+$`)
	prefixPattern = regexp.MustCompile(`^[0-9A-Za-z.]+$`)
)

// Type is the handle ExternalType.
type Type struct {
	pid.Descriptor
	urlPattern *regexp.Regexp
}

var _ pid.ExternalType = (*Type)(nil)

// NewType creates a handle type. An empty namespace defaults to "hdl".
func NewType(cfg pid.DescriptorConfig) (*Type, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	d, err := pid.NewDescriptor(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid handle type: %w", err)
	}
	return &Type{
		Descriptor: d,
		urlPattern: regexp.MustCompile(
			`(?:^|/)` + regexp.QuoteMeta(d.Namespace()) + `/([0-9A-Za-z.]+/[^\s/?#]+)`),
	}, nil
}

// Kind returns "handle".
func (t *Type) Kind() string { return Kind }

// ValidateValue checks for the "{prefix}/{suffix}" shape.
func (t *Type) ValidateValue(value string) error {
	if !valuePattern.MatchString(value) {
		return fmt.Errorf("handle must have the form prefix/suffix: %q", value)
	}
	return nil
}

// ExtractValue finds "{namespace}/{prefix}/{suffix}" in a request path.
func (t *Type) ExtractValue(path string) (string, bool) {
	m := t.urlPattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SuffixSource hands out unique handle suffixes.
type SuffixSource interface {
	NextSuffix(ctx context.Context, prefix string) (string, error)
}

// Assigner mints a new handle for every created object.
type Assigner struct {
	typ    *Type
	prefix string
	source SuffixSource
}

// NewAssigner creates an assigner issuing handles under prefix.
func NewAssigner(t *Type, prefix string, source SuffixSource) (*Assigner, error) {
	if t == nil {
		return nil, fmt.Errorf("handle type is required")
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if !prefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("invalid handle prefix: %q", prefix)
	}
	if source == nil {
		return nil, fmt.Errorf("suffix source is required")
	}
	return &Assigner{typ: t, prefix: prefix, source: source}, nil
}

// Type returns the handle type this assigner issues.
func (a *Assigner) Type() pid.ExternalType { return a.typ }

// Prefix returns the handle prefix.
func (a *Assigner) Prefix() string { return a.prefix }

// Mint issues "{prefix}/{suffix}" bound to native.
func (a *Assigner) Mint(ctx context.Context, obj pid.Object, native pid.NativeID) (pid.ExternalID, error) {
	suffix, err := a.source.NextSuffix(ctx, a.prefix)
	if err != nil {
		return pid.ExternalID{}, fmt.Errorf("failed to allocate handle suffix: %w", err)
	}
	return pid.NewExternalID(a.typ, a.prefix+"/"+suffix, &native)
}
