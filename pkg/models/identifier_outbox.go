package models

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentifierOutbox stores identifier lifecycle events until the relay has
// produced them to Kafka. Rows are written in the same transaction as the
// identifier change they describe.
type IdentifierOutbox struct {
	ID uint `gorm:"primaryKey" json:"id"`

	NativeUUID uuid.UUID `gorm:"type:uuid;not null;index:idx_identifier_outbox_native_uuid" json:"nativeUuid"`
	Identifier string    `gorm:"type:varchar(600);not null" json:"identifier"` // Canonical form

	// Idempotency key: {event_type}:{identifier}:{content_hash}
	IdempotentKey string `gorm:"type:varchar(800);not null;uniqueIndex" json:"idempotentKey"`
	ContentHash   string `gorm:"type:varchar(64);not null" json:"contentHash"`

	EventType string `gorm:"type:varchar(50);not null" json:"eventType"` // 'identifier.minted', 'identifier.tombstoned', 'identifier.deleted'

	Payload map[string]interface{} `gorm:"serializer:json;type:jsonb;not null" json:"payload"`

	// Outbox state
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_identifier_outbox_status" json:"status"` // 'pending', 'published', 'failed'
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	PublishAttempts int        `gorm:"default:0" json:"publishAttempts"`
	LastError       string     `gorm:"type:text" json:"lastError,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name.
func (IdentifierOutbox) TableName() string {
	return "identifier_outbox"
}

// Identifier event types.
const (
	IdentifierEventMinted     = "identifier.minted"
	IdentifierEventTombstoned = "identifier.tombstoned"
	IdentifierEventDeleted    = "identifier.deleted"
)

// OutboxStatus constants
const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
	OutboxStatusFailed    = "failed"
)

// GenerateIdempotentKey creates the unique key for an identifier event.
func GenerateIdempotentKey(eventType, identifier, contentHash string) string {
	return fmt.Sprintf("%s:%s:%s", eventType, identifier, contentHash)
}

// ComputeContentHash computes the SHA-256 hash of an event payload.
func ComputeContentHash(payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// BeforeCreate hook to ensure required fields.
func (o *IdentifierOutbox) BeforeCreate(tx *gorm.DB) error {
	if o.NativeUUID == uuid.Nil {
		return fmt.Errorf("native_uuid is required")
	}
	if o.Identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if o.ContentHash == "" {
		return fmt.Errorf("content_hash is required")
	}
	if o.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if o.Payload == nil {
		return fmt.Errorf("payload is required")
	}

	if o.IdempotentKey == "" {
		o.IdempotentKey = GenerateIdempotentKey(o.EventType, o.Identifier, o.ContentHash)
	}
	if o.Status == "" {
		o.Status = OutboxStatusPending
	}

	return nil
}

// NewIdentifierOutboxEntry creates an outbox entry for one identifier.
func NewIdentifierOutboxEntry(nativeUUID uuid.UUID, identifier, eventType string, payload map[string]interface{}) (*IdentifierOutbox, error) {
	contentHash, err := ComputeContentHash(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to compute content hash: %w", err)
	}

	return &IdentifierOutbox{
		NativeUUID:    nativeUUID,
		Identifier:    identifier,
		ContentHash:   contentHash,
		IdempotentKey: GenerateIdempotentKey(eventType, identifier, contentHash),
		EventType:     eventType,
		Payload:       payload,
		Status:        OutboxStatusPending,
	}, nil
}

// FindPendingOutboxEntries returns the oldest pending entries.
func FindPendingOutboxEntries(db *gorm.DB, limit int) ([]IdentifierOutbox, error) {
	var entries []IdentifierOutbox
	err := db.
		Where("status = ?", OutboxStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// GetFailedOutboxEntries returns the oldest failed entries.
func GetFailedOutboxEntries(db *gorm.DB, limit int) ([]IdentifierOutbox, error) {
	var entries []IdentifierOutbox
	err := db.
		Where("status = ?", OutboxStatusFailed).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// CountOutboxByStatus counts entries in a status.
func CountOutboxByStatus(db *gorm.DB, status string) (int64, error) {
	var count int64
	err := db.Model(&IdentifierOutbox{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// MarkAsPublished marks the outbox entry as successfully published.
func (o *IdentifierOutbox) MarkAsPublished(db *gorm.DB) error {
	now := time.Now()
	o.Status = OutboxStatusPublished
	o.PublishedAt = &now

	return db.Model(o).Updates(map[string]interface{}{
		"status":       OutboxStatusPublished,
		"published_at": now,
		"updated_at":   now,
	}).Error
}

// MarkAsFailed marks the outbox entry as failed with error details.
func (o *IdentifierOutbox) MarkAsFailed(db *gorm.DB, err error) error {
	o.PublishAttempts++
	o.Status = OutboxStatusFailed
	o.LastError = err.Error()

	return db.Model(o).Updates(map[string]interface{}{
		"status":           OutboxStatusFailed,
		"publish_attempts": o.PublishAttempts,
		"last_error":       err.Error(),
		"updated_at":       time.Now(),
	}).Error
}

// Retry resets the outbox entry to pending.
func (o *IdentifierOutbox) Retry(db *gorm.DB) error {
	o.Status = OutboxStatusPending
	o.LastError = ""

	return db.Model(o).Updates(map[string]interface{}{
		"status":     OutboxStatusPending,
		"last_error": "",
		"updated_at": time.Now(),
	}).Error
}

// DeleteOldPublishedEntries removes published entries older than olderThan.
func DeleteOldPublishedEntries(db *gorm.DB, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := db.
		Where("status = ? AND published_at < ?", OutboxStatusPublished, cutoff).
		Delete(&IdentifierOutbox{})

	return result.RowsAffected, result.Error
}

// GetOutboxByIdempotentKey retrieves an outbox entry by its idempotent key.
func GetOutboxByIdempotentKey(db *gorm.DB, key string) (*IdentifierOutbox, error) {
	var entry IdentifierOutbox
	err := db.Where("idempotent_key = ?", key).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
