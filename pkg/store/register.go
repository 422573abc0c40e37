package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/models"
	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// CreateObject inserts a new repository object.
func (s *Store) CreateObject(ctx context.Context, obj *models.RepositoryObject) error {
	if err := s.db.WithContext(ctx).Create(obj).Error; err != nil {
		return storageError("create object", err)
	}
	return nil
}

// Register stores native and externals in one transaction together with a
// minted event for each. native may already be stored for the same object;
// a different native identifier for that object is an error. Every external
// identifier must be bound to native.
func (s *Store) Register(ctx context.Context, native pid.NativeID, externals ...pid.ExternalID) error {
	nativeRow, err := models.NewNativeIdentifier(native)
	if err != nil {
		return fmt.Errorf("invalid native identifier: %w", err)
	}

	extRows := make([]*models.ExternalIdentifier, 0, len(externals))
	for _, ext := range externals {
		bound, err := ext.NativeIdentifier()
		if err != nil {
			return err
		}
		if !bound.Equal(native) {
			return fmt.Errorf("external identifier %s is bound to %s, not %s",
				ext.Canonical(), bound.Canonical(), native.Canonical())
		}
		row, err := models.NewExternalIdentifier(ext)
		if err != nil {
			return err
		}
		extRows = append(extRows, row)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := models.GetNativeIdentifierByResource(tx, native.ResourceType(), native.ResourceID())
		switch {
		case isNotFound(err):
			if err := tx.Create(nativeRow).Error; err != nil {
				return fmt.Errorf("error creating native identifier: %w", err)
			}
			if err := s.publisher.PublishMinted(ctx, tx, native, native); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("error looking up native identifier: %w", err)
		case existing.UUID != native.UUID():
			return fmt.Errorf("%s %d already has native identifier uuid:%s",
				native.ResourceType(), native.ResourceID(), existing.UUID)
		}

		for i, row := range extRows {
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("error creating external identifier %s: %w",
					externals[i].Canonical(), err)
			}
			if err := s.publisher.PublishMinted(ctx, tx, native, externals[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageError("register identifiers", err)
	}

	s.logger.Debug("registered identifiers",
		"uuid", native.UUID(),
		"resource_type", native.ResourceType(),
		"resource_id", native.ResourceID(),
		"external_count", len(externals),
	)
	return nil
}

// Remove retires ext according to its tombstone policy. A retained
// identifier is unbound and kept as a tombstone so its value is never
// reissued; otherwise the row is deleted. Removing an identifier that is
// not stored, or is already tombstoned, reports false.
func (s *Store) Remove(ctx context.Context, ext pid.ExternalID) (bool, error) {
	removed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := models.GetExternalIdentifier(tx, ext.Namespace(), ext.Value())
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error looking up external identifier: %w", err)
		}
		if row.IsTombstoned() || row.NativeUUID == nil {
			return nil
		}

		nativeRow, err := models.GetNativeIdentifierByUUID(tx, *row.NativeUUID)
		if err != nil {
			return fmt.Errorf("error looking up native identifier: %w", err)
		}
		native, err := nativeRow.PID()
		if err != nil {
			return err
		}
		bound := ext.WithNativeIdentifier(native)

		if ext.RetainTombstone() {
			if err := row.Tombstone(tx); err != nil {
				return fmt.Errorf("error tombstoning external identifier: %w", err)
			}
			if err := s.publisher.PublishTombstoned(ctx, tx, native, bound); err != nil {
				return err
			}
		} else {
			if err := tx.Delete(row).Error; err != nil {
				return fmt.Errorf("error deleting external identifier: %w", err)
			}
			if err := s.publisher.PublishDeleted(ctx, tx, native, bound); err != nil {
				return err
			}
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, storageError("remove identifier", err)
	}

	if removed {
		s.logger.Info("removed external identifier",
			"identifier", ext.Canonical(),
			"tombstone", ext.RetainTombstone(),
		)
	}
	return removed, nil
}

// ExternalIdentifiers returns the active external identifiers bound to
// native. Rows in namespaces that are no longer configured are skipped.
func (s *Store) ExternalIdentifiers(ctx context.Context, native pid.NativeID) ([]pid.ExternalID, error) {
	rows, err := models.GetActiveExternalIdentifiersByNativeUUID(s.db.WithContext(ctx), native.UUID())
	if err != nil {
		return nil, storageError("list external identifiers", err)
	}

	ids := make([]pid.ExternalID, 0, len(rows))
	for _, row := range rows {
		t, ok := s.registry.ByNamespace(row.Namespace)
		if !ok {
			s.logger.Warn("skipping identifier in unconfigured namespace",
				"namespace", row.Namespace,
				"value", row.Value,
			)
			continue
		}
		id, err := row.PID(t, native)
		if err != nil {
			s.logger.Warn("skipping invalid stored identifier",
				"namespace", row.Namespace,
				"value", row.Value,
				"error", err,
			)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
