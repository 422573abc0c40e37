// Package doi implements the Digital Object Identifier scheme.
//
// A DOI value is "10.{registrant}/{suffix}", e.g. "10.5072/FK2-abc". DOIs
// are resolvable but not minted locally, so there is no assigner.
package doi

import (
	"fmt"
	"regexp"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

const (
	// Kind names this scheme implementation.
	Kind = "doi"

	// DefaultNamespace is the namespace DOIs are registered under.
	DefaultNamespace = "doi"
)

var valuePattern = regexp.MustCompile(`^10\.[0-9]{4,9}(?:\.[0-9]+)*/[^\s/?#]+$`)

// Type is the DOI ExternalType.
type Type struct {
	pid.Descriptor
	urlPattern *regexp.Regexp
}

var _ pid.ExternalType = (*Type)(nil)

// NewType creates a DOI type. An empty namespace defaults to "doi".
func NewType(cfg pid.DescriptorConfig) (*Type, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	d, err := pid.NewDescriptor(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid doi type: %w", err)
	}
	return &Type{
		Descriptor: d,
		urlPattern: regexp.MustCompile(
			`(?:^|/)` + regexp.QuoteMeta(d.Namespace()) + `/(10\.[0-9]{4,9}(?:\.[0-9]+)*/[^\s/?#]+)`),
	}, nil
}

// Kind returns "doi".
func (t *Type) Kind() string { return Kind }

// ValidateValue checks for the "10.{registrant}/{suffix}" shape.
func (t *Type) ValidateValue(value string) error {
	if !valuePattern.MatchString(value) {
		return fmt.Errorf("DOI must have the form 10.NNNN/suffix: %q", value)
	}
	return nil
}

// ExtractValue finds "{namespace}/10.{registrant}/{suffix}" in a request path.
func (t *Type) ExtractValue(path string) (string, bool) {
	m := t.urlPattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}
