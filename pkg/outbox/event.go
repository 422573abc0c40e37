package outbox

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// IdentifierEvent is the payload of an identifier outbox entry.
type IdentifierEvent struct {
	Identifier   string `mapstructure:"identifier" json:"identifier"`
	Namespace    string `mapstructure:"namespace" json:"namespace"`
	URLForm      string `mapstructure:"urlForm" json:"urlForm"`
	NativeUUID   string `mapstructure:"nativeUuid" json:"nativeUuid"`
	ResourceType string `mapstructure:"resourceType" json:"resourceType"`
	ResourceID   int64  `mapstructure:"resourceId" json:"resourceId"`
	ExternalURL  string `mapstructure:"externalUrl,omitempty" json:"externalUrl,omitempty"`
}

// NewIdentifierEvent describes id, which must be backed by native.
func NewIdentifierEvent(id pid.Resolvable, native pid.NativeID) IdentifierEvent {
	ev := IdentifierEvent{
		Identifier:   id.Canonical(),
		Namespace:    id.Namespace(),
		URLForm:      id.URLForm(),
		NativeUUID:   native.UUID().String(),
		ResourceType: native.ResourceType().String(),
		ResourceID:   native.ResourceID(),
	}
	if ext, ok := id.(pid.ExternalID); ok {
		// Not every type has a resolvable URL.
		if u, err := ext.ExternalURL(); err == nil {
			ev.ExternalURL = u
		}
	}
	return ev
}

// Map encodes the event as an outbox payload.
func (e IdentifierEvent) Map() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := mapstructure.Decode(e, &out); err != nil {
		return nil, fmt.Errorf("failed to encode identifier event: %w", err)
	}
	return out, nil
}

// DecodeIdentifierEvent decodes an outbox payload. Numbers that went
// through JSON are accepted as floats.
func DecodeIdentifierEvent(payload map[string]interface{}) (IdentifierEvent, error) {
	var ev IdentifierEvent
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &ev,
	})
	if err != nil {
		return IdentifierEvent{}, err
	}
	if err := dec.Decode(payload); err != nil {
		return IdentifierEvent{}, fmt.Errorf("failed to decode identifier event: %w", err)
	}
	return ev, nil
}

// Message is the Kafka record value produced by the relay.
type Message struct {
	ID            uint                   `json:"id"`
	EventType     string                 `json:"eventType"`
	Identifier    string                 `json:"identifier"`
	NativeUUID    string                 `json:"nativeUuid"`
	IdempotentKey string                 `json:"idempotentKey"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
}
