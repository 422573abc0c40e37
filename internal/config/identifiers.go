package config

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/persistid/pkg/mint"
	"github.com/hashicorp-forge/persistid/pkg/pid"
	"github.com/hashicorp-forge/persistid/pkg/pid/doi"
	"github.com/hashicorp-forge/persistid/pkg/pid/handle"
)

// Identifiers configures the registered external identifier schemes.
//
//	identifiers {
//	  preferred_namespace = "hdl"
//
//	  scheme "hdl" {
//	    kind     = "handle"
//	    protocol = "https"
//	    base_uri = "hdl.handle.net"
//	    prefix   = "123456789"
//	    assign   = true
//	  }
//	}
//
// Schemes are registered in file order; on resolution the first match wins.
type Identifiers struct {
	PreferredNamespace string    `hcl:"preferred_namespace,optional"`
	Schemes            []*Scheme `hcl:"scheme,block"`
}

// Scheme configures one external identifier type.
type Scheme struct {
	Namespace string `hcl:"namespace,label"`
	Kind      string `hcl:"kind"`

	Protocol          string `hcl:"protocol,optional"`
	ProtocolActivator string `hcl:"protocol_activator,optional"`
	BaseURI           string `hcl:"base_uri,optional"`
	BaseSeparator     string `hcl:"base_separator,optional"`

	// RetainTombstone defaults to true.
	RetainTombstone *bool `hcl:"retain_tombstone,optional"`

	// Assign mints an identifier of this scheme for every created object.
	// Only handle schemes can be assigned locally.
	Assign bool   `hcl:"assign,optional"`
	Prefix string `hcl:"prefix,optional"`
}

// DefaultIdentifiers registers handles and DOIs with their public resolvers.
// Neither is assigned.
func DefaultIdentifiers() *Identifiers {
	return &Identifiers{
		PreferredNamespace: handle.DefaultNamespace,
		Schemes: []*Scheme{
			{
				Namespace: handle.DefaultNamespace,
				Kind:      handle.Kind,
				Protocol:  "https",
				BaseURI:   "hdl.handle.net",
			},
			{
				Namespace: doi.DefaultNamespace,
				Kind:      doi.Kind,
				Protocol:  "https",
				BaseURI:   "doi.org",
			},
		},
	}
}

// Validate checks every scheme and the preferred namespace.
func (ids Identifiers) Validate() error {
	var result *multierror.Error

	seen := make(map[string]bool, len(ids.Schemes))
	for _, s := range ids.Schemes {
		if s == nil {
			continue
		}
		if err := s.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("scheme %q: %w", s.Namespace, err))
		}
		if seen[s.Namespace] {
			result = multierror.Append(result, fmt.Errorf("scheme %q: declared more than once", s.Namespace))
		}
		seen[s.Namespace] = true
	}

	if ids.PreferredNamespace != "" &&
		ids.PreferredNamespace != pid.NativeNamespace &&
		!seen[ids.PreferredNamespace] {
		result = multierror.Append(result, fmt.Errorf(
			"preferred_namespace %q is not a declared scheme", ids.PreferredNamespace))
	}

	return result.ErrorOrNil()
}

// Validate checks a single scheme block.
func (s Scheme) Validate() error {
	isHandle := s.Kind == handle.Kind
	return validation.ValidateStruct(&s,
		validation.Field(&s.Namespace, validation.Required,
			validation.NotIn(pid.NativeNamespace).Error("is reserved for native identifiers")),
		validation.Field(&s.Kind, validation.Required, validation.In(handle.Kind, doi.Kind)),
		validation.Field(&s.Assign,
			validation.When(!isHandle, validation.Empty.Error("is only supported for handle schemes"))),
		validation.Field(&s.Prefix,
			validation.When(isHandle && s.Assign, validation.Required)),
	)
}

func (s Scheme) descriptorConfig() pid.DescriptorConfig {
	cfg := pid.DescriptorConfig{
		Namespace:         s.Namespace,
		Protocol:          s.Protocol,
		ProtocolActivator: s.ProtocolActivator,
		BaseURI:           s.BaseURI,
		BaseSeparator:     s.BaseSeparator,
	}
	if s.RetainTombstone != nil {
		cfg.DropTombstone = !*s.RetainTombstone
	}
	return cfg
}

// NewType builds the ExternalType this scheme describes.
func (s Scheme) NewType() (pid.ExternalType, error) {
	switch s.Kind {
	case handle.Kind:
		t, err := handle.NewType(s.descriptorConfig())
		if err != nil {
			return nil, err
		}
		return t, nil
	case doi.Kind:
		t, err := doi.NewType(s.descriptorConfig())
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown identifier kind %q", s.Kind)
	}
}

// BuildRegistry registers every configured scheme in declaration order.
func (ids Identifiers) BuildRegistry() (*pid.Registry, error) {
	types := make([]pid.ExternalType, 0, len(ids.Schemes))
	for _, s := range ids.Schemes {
		t, err := s.NewType()
		if err != nil {
			return nil, fmt.Errorf("scheme %q: %w", s.Namespace, err)
		}
		types = append(types, t)
	}
	return pid.NewRegistry(types...)
}

// BuildAssigners creates an assigner for every scheme with assign = true,
// using the types already registered in reg.
func (ids Identifiers) BuildAssigners(reg *pid.Registry, source handle.SuffixSource) ([]mint.Assigner, error) {
	var assigners []mint.Assigner
	for _, s := range ids.Schemes {
		if !s.Assign {
			continue
		}

		t, ok := reg.ByNamespace(s.Namespace)
		if !ok {
			return nil, fmt.Errorf("scheme %q is not registered", s.Namespace)
		}
		ht, ok := t.(*handle.Type)
		if !ok {
			return nil, fmt.Errorf("scheme %q of kind %q cannot be assigned", s.Namespace, t.Kind())
		}

		a, err := handle.NewAssigner(ht, s.Prefix, source)
		if err != nil {
			return nil, fmt.Errorf("scheme %q: %w", s.Namespace, err)
		}
		assigners = append(assigners, a)
	}
	return assigners, nil
}
