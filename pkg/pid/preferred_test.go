package pid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

type fakeObject struct {
	native    pid.NativeID
	externals []pid.ExternalID
}

func (o *fakeObject) ResourceType() pid.ResourceType        { return pid.ResourceTypeItem }
func (o *fakeObject) ResourceID() int64                     { return 1 }
func (o *fakeObject) NativeIdentifier() pid.NativeID        { return o.native }
func (o *fakeObject) ExternalIdentifiers() []pid.ExternalID { return o.externals }

func TestPreferredIdentifier(t *testing.T) {
	r := newRegistry(t)
	ht, _ := r.ByNamespace("hdl")
	dt, _ := r.ByNamespace("doi")

	native, err := pid.MustParseNativeID(testUUID).WithResource(pid.ResourceTypeItem, 1)
	require.NoError(t, err)

	hdlID, err := pid.NewExternalID(ht, "123456789/100", &native)
	require.NoError(t, err)
	doiID, err := pid.NewExternalID(dt, "10.5072/FK2.abc", &native)
	require.NoError(t, err)

	obj := &fakeObject{native: native, externals: []pid.ExternalID{doiID, hdlID}}

	t.Run("preferred namespace present", func(t *testing.T) {
		got := pid.PreferredIdentifier(obj, "hdl")
		assert.Equal(t, "hdl:123456789/100", got.Canonical())
		_, isExternal := got.(pid.ExternalID)
		assert.True(t, isExternal)
	})

	t.Run("no preferred namespace", func(t *testing.T) {
		got := pid.PreferredIdentifier(obj, "")
		assert.Equal(t, native.Canonical(), got.Canonical())
	})

	t.Run("preferred namespace absent", func(t *testing.T) {
		got := pid.PreferredIdentifier(obj, "ark")
		assert.Equal(t, native.Canonical(), got.Canonical())
	})

	t.Run("unbound identifier is skipped", func(t *testing.T) {
		unbound, err := pid.NewExternalID(ht, "123456789/200", nil)
		require.NoError(t, err)
		o := &fakeObject{native: native, externals: []pid.ExternalID{unbound}}
		assert.Equal(t, native.Canonical(), pid.PreferredIdentifier(o, "hdl").Canonical())
	})

	t.Run("object is not modified", func(t *testing.T) {
		_ = pid.PreferredIdentifier(obj, "hdl")
		assert.Len(t, obj.externals, 2)
		assert.Equal(t, "doi", obj.externals[0].Namespace())
	})
}
