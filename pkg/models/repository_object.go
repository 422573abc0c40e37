package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// RepositoryObject is a minimal stored repository object: a bitstream,
// bundle, item, collection, community, group or person. Its identifiers
// live in their own tables and are attached by the store after loading.
type RepositoryObject struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Type int    `gorm:"column:resource_type;not null;index:idx_repository_objects_type" json:"resourceType"`
	Name string `gorm:"type:varchar(500)" json:"name"`

	native   pid.NativeID
	external []pid.ExternalID
}

var (
	_ pid.IdentifiedObject = (*RepositoryObject)(nil)
	_ pid.Assignable       = (*RepositoryObject)(nil)
)

// TableName specifies the table name.
func (RepositoryObject) TableName() string {
	return "repository_objects"
}

// NewRepositoryObject creates an unsaved object of type rt.
func NewRepositoryObject(rt pid.ResourceType, name string) *RepositoryObject {
	return &RepositoryObject{Type: int(rt), Name: name}
}

// Validate validates the object.
func (o RepositoryObject) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Type, validation.By(validResourceType)),
		validation.Field(&o.Name, validation.Length(0, 500)),
	)
}

// BeforeCreate validates the object before insert.
func (o *RepositoryObject) BeforeCreate(tx *gorm.DB) error {
	return o.Validate()
}

// ResourceType returns the object's resource type.
func (o *RepositoryObject) ResourceType() pid.ResourceType {
	return pid.ResourceType(o.Type)
}

// ResourceID returns the object's storage id.
func (o *RepositoryObject) ResourceID() int64 {
	return o.ID
}

// NativeIdentifier returns the attached native identifier, which is the
// zero value until one is assigned or loaded.
func (o *RepositoryObject) NativeIdentifier() pid.NativeID {
	return o.native
}

// AssignNativeIdentifier attaches n to the object.
func (o *RepositoryObject) AssignNativeIdentifier(n pid.NativeID) {
	o.native = n
}

// ExternalIdentifiers returns a copy of the attached external identifiers.
func (o *RepositoryObject) ExternalIdentifiers() []pid.ExternalID {
	return append([]pid.ExternalID(nil), o.external...)
}

// AttachExternalIdentifiers appends ids to the attached external
// identifiers.
func (o *RepositoryObject) AttachExternalIdentifiers(ids ...pid.ExternalID) {
	o.external = append(o.external, ids...)
}

// GetRepositoryObject returns the live object of type rt with id id.
func GetRepositoryObject(db *gorm.DB, rt pid.ResourceType, id int64) (*RepositoryObject, error) {
	var o RepositoryObject
	err := db.Where("id = ? AND resource_type = ?", id, int(rt)).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindObjectsWithoutNativeIdentifier returns up to limit live objects with
// no native identifier, ordered by id and starting after afterID.
func FindObjectsWithoutNativeIdentifier(db *gorm.DB, afterID int64, limit int) ([]RepositoryObject, error) {
	var objs []RepositoryObject
	err := db.
		Where("id > ?", afterID).
		Where("NOT EXISTS (?)", nativeIdentifierSubquery(db)).
		Order("id ASC").
		Limit(limit).
		Find(&objs).Error
	return objs, err
}

// CountObjectsWithoutNativeIdentifier counts live objects with no native
// identifier.
func CountObjectsWithoutNativeIdentifier(db *gorm.DB) (int64, error) {
	var count int64
	err := db.
		Model(&RepositoryObject{}).
		Where("NOT EXISTS (?)", nativeIdentifierSubquery(db)).
		Count(&count).Error
	return count, err
}

func nativeIdentifierSubquery(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&NativeIdentifier{}).
		Select("1").
		Where("native_identifiers.resource_type = repository_objects.resource_type").
		Where("native_identifiers.resource_id = repository_objects.id")
}
