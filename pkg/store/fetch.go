package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/models"
	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// FetchObject loads a live object with its identifiers attached.
func (s *Store) FetchObject(ctx context.Context, rt pid.ResourceType, id int64) (*models.RepositoryObject, bool, error) {
	obj, err := models.GetRepositoryObject(s.db.WithContext(ctx), rt, id)
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError("fetch "+rt.String(), err)
	}

	native, ok, err := s.RetrieveNativeByResource(ctx, rt, id)
	if err != nil {
		return nil, false, err
	}
	if ok {
		obj.AssignNativeIdentifier(native)

		externals, err := s.ExternalIdentifiers(ctx, native)
		if err != nil {
			return nil, false, err
		}
		obj.AttachExternalIdentifiers(externals...)
	}
	return obj, true, nil
}

func (s *Store) fetch(ctx context.Context, rt pid.ResourceType, id int64) (pid.Object, bool, error) {
	obj, ok, err := s.FetchObject(ctx, rt, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return obj, true, nil
}

// FetchBitstream loads a bitstream.
func (s *Store) FetchBitstream(ctx context.Context, id int64) (pid.Object, bool, error) {
	return s.fetch(ctx, pid.ResourceTypeBitstream, id)
}

// FetchBundle loads a bundle.
func (s *Store) FetchBundle(ctx context.Context, id int64) (pid.Object, bool, error) {
	return s.fetch(ctx, pid.ResourceTypeBundle, id)
}

// FetchItem loads an item.
func (s *Store) FetchItem(ctx context.Context, id int64) (pid.Object, bool, error) {
	return s.fetch(ctx, pid.ResourceTypeItem, id)
}

// FetchCollection loads a collection.
func (s *Store) FetchCollection(ctx context.Context, id int64) (pid.Object, bool, error) {
	return s.fetch(ctx, pid.ResourceTypeCollection, id)
}

// FetchCommunity loads a community.
func (s *Store) FetchCommunity(ctx context.Context, id int64) (pid.Object, bool, error) {
	return s.fetch(ctx, pid.ResourceTypeCommunity, id)
}

// FetchGroup loads a group.
func (s *Store) FetchGroup(ctx context.Context, id int64) (pid.Object, bool, error) {
	return s.fetch(ctx, pid.ResourceTypeGroup, id)
}

// FetchPerson loads a person.
func (s *Store) FetchPerson(ctx context.Context, id int64) (pid.Object, bool, error) {
	return s.fetch(ctx, pid.ResourceTypePerson, id)
}

// ObjectsWithoutNativeIdentifier returns up to limit objects that have no
// native identifier yet, with ids greater than afterID.
func (s *Store) ObjectsWithoutNativeIdentifier(ctx context.Context, afterID int64, limit int) ([]models.RepositoryObject, error) {
	objs, err := models.FindObjectsWithoutNativeIdentifier(s.db.WithContext(ctx), afterID, limit)
	if err != nil {
		return nil, storageError("list objects without native identifier", err)
	}
	return objs, nil
}

// CountObjectsWithoutNativeIdentifier counts objects that have no native
// identifier yet.
func (s *Store) CountObjectsWithoutNativeIdentifier(ctx context.Context) (int64, error) {
	n, err := models.CountObjectsWithoutNativeIdentifier(s.db.WithContext(ctx))
	if err != nil {
		return 0, storageError("count objects without native identifier", err)
	}
	return n, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}
