package doi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

func TestNewType(t *testing.T) {
	dt, err := NewType(pid.DescriptorConfig{Protocol: "https", BaseURI: "doi.org", DropTombstone: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, dt.Namespace())
	assert.Equal(t, Kind, dt.Kind())
	assert.False(t, dt.RetainTombstone())
}

func TestType_ValidateValue(t *testing.T) {
	dt, err := NewType(pid.DescriptorConfig{})
	require.NoError(t, err)

	for _, v := range []string{"10.5072/FK2-abc", "10.1000.10/xyz", "10.123456789/a"} {
		assert.NoError(t, dt.ValidateValue(v), v)
	}
	for _, v := range []string{"", "11.5072/x", "10.50/x", "10.5072/", "10.5072"} {
		assert.Error(t, dt.ValidateValue(v), v)
	}
}

func TestType_ExtractValue(t *testing.T) {
	dt, err := NewType(pid.DescriptorConfig{})
	require.NoError(t, err)

	v, ok := dt.ExtractValue("/resolve/doi/10.5072/FK2-abc")
	assert.True(t, ok)
	assert.Equal(t, "10.5072/FK2-abc", v)

	_, ok = dt.ExtractValue("/resolve/doi/123/abc")
	assert.False(t, ok)
}

func TestType_ExternalURL(t *testing.T) {
	dt, err := NewType(pid.DescriptorConfig{Protocol: "https", BaseURI: "doi.org"})
	require.NoError(t, err)

	id, err := pid.NewExternalID(dt, "10.5072/FK2-abc", nil)
	require.NoError(t, err)

	u, err := id.ExternalURL()
	require.NoError(t, err)
	assert.Equal(t, "https://doi.org/10.5072/FK2-abc", u)
	assert.Equal(t, "doi/10.5072/FK2-abc", id.URLForm())
}
