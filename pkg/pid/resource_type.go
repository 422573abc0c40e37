package pid

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// ResourceType identifies the kind of repository object a native
// identifier names. The set is closed.
type ResourceType int

const (
	// ResourceTypeUnknown marks a native identifier whose object has not
	// been looked up yet.
	ResourceTypeUnknown ResourceType = -1

	ResourceTypeBitstream  ResourceType = 0
	ResourceTypeBundle     ResourceType = 1
	ResourceTypeItem       ResourceType = 2
	ResourceTypeCollection ResourceType = 3
	ResourceTypeCommunity  ResourceType = 4
	ResourceTypeGroup      ResourceType = 6
	ResourceTypePerson     ResourceType = 7
)

// UnknownResourceID pairs with ResourceTypeUnknown.
const UnknownResourceID int64 = -1

var resourceTypeNames = map[ResourceType]string{
	ResourceTypeUnknown:    "unknown",
	ResourceTypeBitstream:  "bitstream",
	ResourceTypeBundle:     "bundle",
	ResourceTypeItem:       "item",
	ResourceTypeCollection: "collection",
	ResourceTypeCommunity:  "community",
	ResourceTypeGroup:      "group",
	ResourceTypePerson:     "person",
}

// ValidResourceTypes returns all known resource types in enumeration order.
func ValidResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceTypeBitstream,
		ResourceTypeBundle,
		ResourceTypeItem,
		ResourceTypeCollection,
		ResourceTypeCommunity,
		ResourceTypeGroup,
		ResourceTypePerson,
	}
}

// IsValid returns true if rt is one of the known, concrete resource types.
func (rt ResourceType) IsValid() bool {
	switch rt {
	case ResourceTypeBitstream, ResourceTypeBundle, ResourceTypeItem,
		ResourceTypeCollection, ResourceTypeCommunity, ResourceTypeGroup,
		ResourceTypePerson:
		return true
	default:
		return false
	}
}

// String returns the lowercase name of the resource type.
func (rt ResourceType) String() string {
	if name, ok := resourceTypeNames[rt]; ok {
		return name
	}
	return fmt.Sprintf("resource-type(%d)", int(rt))
}

// ParseResourceType parses a resource type name. Matching ignores case and
// word separators, so "Bitstream", "BITSTREAM" and "bitstream" are equal.
// The eperson alias is accepted for ResourceTypePerson.
func ParseResourceType(s string) (ResourceType, error) {
	name := strings.ReplaceAll(strcase.ToSnake(strings.TrimSpace(s)), "_", "")
	if name == "eperson" {
		return ResourceTypePerson, nil
	}
	for rt, n := range resourceTypeNames {
		if rt != ResourceTypeUnknown && n == name {
			return rt, nil
		}
	}
	return ResourceTypeUnknown, fmt.Errorf("invalid resource type: %q (valid: %v)", s, ValidResourceTypes())
}

// MarshalJSON implements json.Marshaler.
func (rt ResourceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(rt.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (rt *ResourceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("resource type must be a string: %w", err)
	}
	if s == "" || s == "unknown" {
		*rt = ResourceTypeUnknown
		return nil
	}
	parsed, err := ParseResourceType(s)
	if err != nil {
		return err
	}
	*rt = parsed
	return nil
}
