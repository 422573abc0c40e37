// Package store persists identifiers and repository objects with gorm.
//
// Store implements pid.Store, resolve.Fetcher and handle.SuffixSource.
// Every identifier change is written together with an outbox event in one
// transaction.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/models"
	"github.com/hashicorp-forge/persistid/pkg/outbox"
	"github.com/hashicorp-forge/persistid/pkg/pid"
	"github.com/hashicorp-forge/persistid/pkg/pid/handle"
	"github.com/hashicorp-forge/persistid/pkg/resolve"
)

var (
	_ pid.Store           = (*Store)(nil)
	_ resolve.Fetcher     = (*Store)(nil)
	_ handle.SuffixSource = (*Store)(nil)
)

// Store is the gorm-backed storage collaborator.
type Store struct {
	db        *gorm.DB
	registry  *pid.Registry
	publisher *outbox.Publisher
	logger    hclog.Logger
}

// New creates a Store. The registry maps stored namespaces back to types
// when objects are loaded with their identifiers.
func New(db *gorm.DB, registry *pid.Registry, logger hclog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{
		db:        db,
		registry:  registry,
		publisher: outbox.NewPublisher(logger),
		logger:    logger.Named("store"),
	}, nil
}

func storageError(op string, err error) error {
	return &pid.StorageError{Op: op, Err: err}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// RetrieveExternal returns the active identifier (t, value) bound to its
// native identifier. Tombstoned identifiers are not returned.
func (s *Store) RetrieveExternal(ctx context.Context, t pid.ExternalType, value string) (pid.ExternalID, bool, error) {
	db := s.db.WithContext(ctx)

	row, err := models.GetExternalIdentifier(db, t.Namespace(), value)
	if isNotFound(err) {
		return pid.ExternalID{}, false, nil
	}
	if err != nil {
		return pid.ExternalID{}, false, storageError("retrieve external identifier", err)
	}
	if row.IsTombstoned() || row.NativeUUID == nil {
		return pid.ExternalID{}, false, nil
	}

	native, ok, err := s.retrieveNative(db, *row.NativeUUID)
	if err != nil || !ok {
		return pid.ExternalID{}, ok, err
	}

	ext, err := row.PID(t, native)
	if err != nil {
		return pid.ExternalID{}, false, storageError("decode external identifier", err)
	}
	return ext, true, nil
}

// RetrieveNative returns the native identifier u with its resource filled
// in.
func (s *Store) RetrieveNative(ctx context.Context, u uuid.UUID) (pid.NativeID, bool, error) {
	return s.retrieveNative(s.db.WithContext(ctx), u)
}

func (s *Store) retrieveNative(db *gorm.DB, u uuid.UUID) (pid.NativeID, bool, error) {
	row, err := models.GetNativeIdentifierByUUID(db, u)
	if isNotFound(err) {
		return pid.NativeID{}, false, nil
	}
	if err != nil {
		return pid.NativeID{}, false, storageError("retrieve native identifier", err)
	}

	n, err := row.PID()
	if err != nil {
		return pid.NativeID{}, false, storageError("decode native identifier", err)
	}
	return n, true, nil
}

// RetrieveNativeByResource returns the native identifier of an object.
func (s *Store) RetrieveNativeByResource(ctx context.Context, rt pid.ResourceType, id int64) (pid.NativeID, bool, error) {
	row, err := models.GetNativeIdentifierByResource(s.db.WithContext(ctx), rt, id)
	if isNotFound(err) {
		return pid.NativeID{}, false, nil
	}
	if err != nil {
		return pid.NativeID{}, false, storageError("retrieve native identifier by resource", err)
	}

	n, err := row.PID()
	if err != nil {
		return pid.NativeID{}, false, storageError("decode native identifier", err)
	}
	return n, true, nil
}

// IsTombstoned reports whether (t, value) is a tombstoned identifier.
func (s *Store) IsTombstoned(ctx context.Context, t pid.ExternalType, value string) (bool, error) {
	row, err := models.GetExternalIdentifier(s.db.WithContext(ctx), t.Namespace(), value)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, storageError("retrieve external identifier", err)
	}
	return row.IsTombstoned(), nil
}

// NextSuffix allocates the next handle suffix under prefix.
func (s *Store) NextSuffix(ctx context.Context, prefix string) (string, error) {
	var next int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		next, err = models.NextSequenceValue(tx, prefix)
		return err
	})
	if err != nil {
		return "", storageError("allocate suffix", err)
	}
	return strconv.FormatInt(next, 10), nil
}
