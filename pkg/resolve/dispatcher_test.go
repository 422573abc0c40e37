package resolve_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/persistid/pkg/pid"
	"github.com/hashicorp-forge/persistid/pkg/resolve"
)

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	for _, rt := range pid.ValidResourceTypes() {
		t.Run(rt.String(), func(t *testing.T) {
			f := &fakeFetcher{objects: map[pid.ResourceType]map[int64]bool{rt: {5: true}}}
			d := resolve.NewDispatcher(f)

			obj, ok, err := d.Dispatch(ctx, rt, 5)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, rt, obj.ResourceType())
			assert.Equal(t, rt, f.called)

			_, ok, err = d.Dispatch(ctx, rt, 6)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	for _, rt := range []pid.ResourceType{pid.ResourceTypeUnknown, 5, 8, 100} {
		t.Run("fatal "+rt.String(), func(t *testing.T) {
			d := resolve.NewDispatcher(&fakeFetcher{})

			_, ok, err := d.Dispatch(ctx, rt, 1)
			assert.False(t, ok)

			var fatal *pid.FatalDispatchError
			require.ErrorAs(t, err, &fatal)
			assert.Equal(t, rt, fatal.ResourceType)
			assert.ErrorIs(t, err, pid.ErrFatalDispatch)
		})
	}
}
