package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// NativeIdentifier is the stored form of a pid.NativeID. Each repository
// object has at most one.
type NativeIdentifier struct {
	UUID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"uuid"`
	ResourceType int       `gorm:"not null;uniqueIndex:idx_native_identifiers_resource" json:"resourceType"`
	ResourceID   int64     `gorm:"not null;uniqueIndex:idx_native_identifiers_resource" json:"resourceId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName specifies the table name.
func (NativeIdentifier) TableName() string {
	return "native_identifiers"
}

// NewNativeIdentifier converts a bound native identifier into its row.
func NewNativeIdentifier(n pid.NativeID) (*NativeIdentifier, error) {
	if n.IsZero() {
		return nil, fmt.Errorf("native identifier is required")
	}
	if !n.HasResource() {
		return nil, fmt.Errorf("native identifier %s has no resource", n.Canonical())
	}
	return &NativeIdentifier{
		UUID:         n.UUID(),
		ResourceType: int(n.ResourceType()),
		ResourceID:   n.ResourceID(),
	}, nil
}

// Validate validates the row.
func (ni NativeIdentifier) Validate() error {
	return validation.ValidateStruct(&ni,
		validation.Field(&ni.UUID, validation.By(notNilUUID)),
		validation.Field(&ni.ResourceType, validation.By(validResourceType)),
		validation.Field(&ni.ResourceID, validation.Min(int64(0))),
	)
}

// BeforeCreate validates the row before insert.
func (ni *NativeIdentifier) BeforeCreate(tx *gorm.DB) error {
	return ni.Validate()
}

// PID converts the row back into a pid.NativeID.
func (ni NativeIdentifier) PID() (pid.NativeID, error) {
	return pid.NewNativeID(ni.UUID, pid.ResourceType(ni.ResourceType), ni.ResourceID)
}

// GetNativeIdentifierByUUID returns the row for u.
func GetNativeIdentifierByUUID(db *gorm.DB, u uuid.UUID) (*NativeIdentifier, error) {
	var ni NativeIdentifier
	if err := db.Where("uuid = ?", u).First(&ni).Error; err != nil {
		return nil, err
	}
	return &ni, nil
}

// GetNativeIdentifierByResource returns the row for an object.
func GetNativeIdentifierByResource(db *gorm.DB, rt pid.ResourceType, id int64) (*NativeIdentifier, error) {
	var ni NativeIdentifier
	err := db.Where("resource_type = ? AND resource_id = ?", int(rt), id).
		First(&ni).Error
	if err != nil {
		return nil, err
	}
	return &ni, nil
}

func notNilUUID(value interface{}) error {
	u, ok := value.(uuid.UUID)
	if !ok {
		return fmt.Errorf("must be a UUID")
	}
	if u == uuid.Nil {
		return fmt.Errorf("cannot be the nil UUID")
	}
	return nil
}

func validResourceType(value interface{}) error {
	rt, ok := value.(int)
	if !ok {
		return fmt.Errorf("must be an integer")
	}
	if !pid.ResourceType(rt).IsValid() {
		return fmt.Errorf("unknown resource type %d", rt)
	}
	return nil
}
