package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// External identifier status values.
const (
	ExternalIdentifierStatusActive     = "active"
	ExternalIdentifierStatusTombstoned = "tombstoned"
)

// ExternalIdentifier is the stored form of a pid.ExternalID. A tombstoned
// row keeps its namespace and value but is no longer bound to a native
// identifier.
type ExternalIdentifier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Namespace string `gorm:"type:varchar(32);not null;uniqueIndex:idx_external_identifiers_ns_value" json:"namespace"`
	Value     string `gorm:"type:varchar(500);not null;uniqueIndex:idx_external_identifiers_ns_value" json:"value"`

	NativeUUID *uuid.UUID `gorm:"type:uuid;index:idx_external_identifiers_native_uuid" json:"nativeUuid,omitempty"`

	Status string `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	// Status values:
	// - "active": bound and resolvable
	// - "tombstoned": object removed, value reserved

	TombstonedAt *time.Time `json:"tombstonedAt,omitempty"`
}

// TableName specifies the table name.
func (ExternalIdentifier) TableName() string {
	return "external_identifiers"
}

// NewExternalIdentifier converts a bound external identifier into its row.
func NewExternalIdentifier(e pid.ExternalID) (*ExternalIdentifier, error) {
	native, err := e.NativeIdentifier()
	if err != nil {
		return nil, err
	}
	u := native.UUID()
	return &ExternalIdentifier{
		Namespace:  e.Namespace(),
		Value:      e.Value(),
		NativeUUID: &u,
		Status:     ExternalIdentifierStatusActive,
	}, nil
}

// Validate validates the row.
func (ei ExternalIdentifier) Validate() error {
	return validation.ValidateStruct(&ei,
		validation.Field(&ei.Namespace, validation.Required, validation.Length(1, 32)),
		validation.Field(&ei.Value, validation.Required, validation.Length(1, 500)),
		validation.Field(&ei.Status, validation.Required, validation.In(
			ExternalIdentifierStatusActive,
			ExternalIdentifierStatusTombstoned,
		)),
		validation.Field(&ei.NativeUUID,
			validation.When(ei.Status == ExternalIdentifierStatusActive, validation.Required),
			validation.When(ei.Status == ExternalIdentifierStatusTombstoned, validation.Nil),
		),
	)
}

// BeforeCreate sets the default status and validates the row.
func (ei *ExternalIdentifier) BeforeCreate(tx *gorm.DB) error {
	if ei.Status == "" {
		ei.Status = ExternalIdentifierStatusActive
	}
	return ei.Validate()
}

// IsTombstoned reports whether the row has been tombstoned.
func (ei ExternalIdentifier) IsTombstoned() bool {
	return ei.Status == ExternalIdentifierStatusTombstoned
}

// PID converts the row into a pid.ExternalID of type t. The result is bound
// to native when the row is active.
func (ei ExternalIdentifier) PID(t pid.ExternalType, native pid.NativeID) (pid.ExternalID, error) {
	if t.Namespace() != ei.Namespace {
		return pid.ExternalID{}, fmt.Errorf(
			"identifier type %q does not match stored namespace %q", t.Namespace(), ei.Namespace)
	}
	if ei.IsTombstoned() || ei.NativeUUID == nil {
		return pid.NewExternalID(t, ei.Value, nil)
	}
	if native.UUID() != *ei.NativeUUID {
		return pid.ExternalID{}, fmt.Errorf(
			"native identifier %s does not match stored uuid %s", native.UUID(), *ei.NativeUUID)
	}
	return pid.NewExternalID(t, ei.Value, &native)
}

// Tombstone unbinds the row and marks it tombstoned.
func (ei *ExternalIdentifier) Tombstone(db *gorm.DB) error {
	now := time.Now()
	ei.Status = ExternalIdentifierStatusTombstoned
	ei.NativeUUID = nil
	ei.TombstonedAt = &now

	return db.Model(ei).Updates(map[string]interface{}{
		"status":        ExternalIdentifierStatusTombstoned,
		"native_uuid":   nil,
		"tombstoned_at": now,
		"updated_at":    now,
	}).Error
}

// GetExternalIdentifier returns the row for (namespace, value) in any
// status.
func GetExternalIdentifier(db *gorm.DB, namespace, value string) (*ExternalIdentifier, error) {
	var ei ExternalIdentifier
	err := db.Where("namespace = ? AND value = ?", namespace, value).
		First(&ei).Error
	if err != nil {
		return nil, err
	}
	return &ei, nil
}

// GetActiveExternalIdentifiersByNativeUUID returns the active rows bound to
// u, oldest first.
func GetActiveExternalIdentifiersByNativeUUID(db *gorm.DB, u uuid.UUID) ([]ExternalIdentifier, error) {
	var rows []ExternalIdentifier
	err := db.Where("native_uuid = ? AND status = ?", u, ExternalIdentifierStatusActive).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
