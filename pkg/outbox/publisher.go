// Package outbox records identifier lifecycle events in the database and
// relays them to Kafka.
package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/models"
	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// Publisher writes identifier events to the outbox. Call it inside the
// transaction that changes the identifiers.
type Publisher struct {
	logger hclog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(logger hclog.Logger) *Publisher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Publisher{logger: logger.Named("outbox-publisher")}
}

// PublishMinted records that id was issued for native.
func (p *Publisher) PublishMinted(ctx context.Context, tx *gorm.DB, native pid.NativeID, id pid.Resolvable) error {
	return p.publish(ctx, tx, native, id, models.IdentifierEventMinted)
}

// PublishTombstoned records that ext was tombstoned.
func (p *Publisher) PublishTombstoned(ctx context.Context, tx *gorm.DB, native pid.NativeID, ext pid.ExternalID) error {
	return p.publish(ctx, tx, native, ext, models.IdentifierEventTombstoned)
}

// PublishDeleted records that ext was deleted.
func (p *Publisher) PublishDeleted(ctx context.Context, tx *gorm.DB, native pid.NativeID, ext pid.ExternalID) error {
	return p.publish(ctx, tx, native, ext, models.IdentifierEventDeleted)
}

func (p *Publisher) publish(ctx context.Context, tx *gorm.DB, native pid.NativeID, id pid.Resolvable, eventType string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if native.IsZero() {
		return fmt.Errorf("native identifier is required")
	}

	payload, err := NewIdentifierEvent(id, native).Map()
	if err != nil {
		return err
	}

	entry, err := models.NewIdentifierOutboxEntry(native.UUID(), id.Canonical(), eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to create outbox entry: %w", err)
	}

	existing, err := models.GetOutboxByIdempotentKey(tx.WithContext(ctx), entry.IdempotentKey)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for existing outbox entry: %w", err)
	}
	if existing != nil {
		p.logger.Debug("skipping duplicate outbox entry",
			"idempotent_key", entry.IdempotentKey,
			"existing_id", existing.ID,
		)
		return nil
	}

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create outbox entry: %w", err)
	}

	p.logger.Debug("published identifier event to outbox",
		"event_type", eventType,
		"identifier", id.Canonical(),
		"native_uuid", native.UUID(),
		"outbox_id", entry.ID,
	)
	return nil
}
