package pid

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Is(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"malformed", &MalformedIdentifierError{Kind: "uuid", Input: "uuid:x"}, ErrMalformedIdentifier},
		{"state", &IdentifierStateError{Canonical: "hdl:1/2"}, ErrIdentifierState},
		{"not found", &ResourceNotFoundError{UUID: testUUID, ResourceType: ResourceTypeUnknown}, ErrResourceNotFound},
		{"dispatch", &FatalDispatchError{ResourceType: ResourceType(5)}, ErrFatalDispatch},
		{"storage", &StorageError{Op: "retrieve native", Err: cause}, ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.target)
			assert.NotEmpty(t, tt.err.Error())
		})
	}

	t.Run("storage error unwraps its cause", func(t *testing.T) {
		err := &StorageError{Op: "retrieve native", Err: cause}
		assert.ErrorIs(t, err, cause)
	})
}
