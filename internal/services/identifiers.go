// Package services wires the identifier store, minter and resolver into the
// operations the CLI exposes.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/internal/config"
	"github.com/hashicorp-forge/persistid/pkg/mint"
	"github.com/hashicorp-forge/persistid/pkg/models"
	"github.com/hashicorp-forge/persistid/pkg/pid"
	"github.com/hashicorp-forge/persistid/pkg/resolve"
	"github.com/hashicorp-forge/persistid/pkg/store"
)

// IdentifierService mints, resolves and retires persistent identifiers for
// repository objects.
type IdentifierService struct {
	registry  *pid.Registry
	store     *store.Store
	minter    *mint.Minter
	resolver  *resolve.Resolver
	preferred string
	logger    hclog.Logger
}

// NewIdentifierService builds the registry and assigners described by ids
// and connects them to db.
func NewIdentifierService(db *gorm.DB, ids *config.Identifiers, logger hclog.Logger) (*IdentifierService, error) {
	if ids == nil {
		ids = config.DefaultIdentifiers()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	registry, err := ids.BuildRegistry()
	if err != nil {
		return nil, fmt.Errorf("error building identifier registry: %w", err)
	}
	for _, ns := range registry.Duplicates() {
		logger.Warn("namespace registered more than once; first registration wins", "namespace", ns)
	}

	st, err := store.New(db, registry, logger)
	if err != nil {
		return nil, err
	}

	assigners, err := ids.BuildAssigners(registry, st)
	if err != nil {
		return nil, fmt.Errorf("error building assigners: %w", err)
	}
	minter, err := mint.New(assigners, mint.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	resolver, err := resolve.New(resolve.Config{
		Registry: registry,
		Store:    st,
		Fetcher:  st,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("identifier service ready",
		"schemes", registry.Len(), "assigners", len(minter.Assigners()),
		"preferred", ids.PreferredNamespace)

	return &IdentifierService{
		registry:  registry,
		store:     st,
		minter:    minter,
		resolver:  resolver,
		preferred: ids.PreferredNamespace,
		logger:    logger.Named("identifiers"),
	}, nil
}

func (s *IdentifierService) Registry() *pid.Registry     { return s.registry }
func (s *IdentifierService) Store() *store.Store         { return s.store }
func (s *IdentifierService) Resolver() *resolve.Resolver { return s.resolver }
func (s *IdentifierService) PreferredNamespace() string  { return s.preferred }

// AssignerPrefixes maps each assigned namespace to the prefix new values are
// issued under. Assigners without a prefix map to "".
func (s *IdentifierService) AssignerPrefixes() map[string]string {
	prefixes := make(map[string]string)
	for _, a := range s.minter.Assigners() {
		prefix := ""
		if p, ok := a.(interface{ Prefix() string }); ok {
			prefix = p.Prefix()
		}
		prefixes[a.Type().Namespace()] = prefix
	}
	return prefixes
}

// CreateObject stores a new repository object and assigns its identifiers.
// When some assigners fail the object is still returned, carrying the
// identifiers that were minted, together with the assigner errors.
func (s *IdentifierService) CreateObject(ctx context.Context, rt pid.ResourceType, name string) (*models.RepositoryObject, error) {
	obj := models.NewRepositoryObject(rt, name)
	if err := s.store.CreateObject(ctx, obj); err != nil {
		return nil, err
	}

	if err := s.AssignIdentifiers(ctx, obj); err != nil {
		var assignErr *mint.AssignerError
		if errors.As(err, &assignErr) {
			return obj, err
		}
		return nil, err
	}
	return obj, nil
}

// AssignIdentifiers mints a native identifier and every configured external
// identifier for obj, and registers them. Externals that fail to mint are
// reported in the returned error; the rest are still registered.
func (s *IdentifierService) AssignIdentifiers(ctx context.Context, obj *models.RepositoryObject) error {
	native, err := s.minter.MintNative(obj)
	if err != nil {
		return err
	}

	externals, mintErr := s.minter.MintAllExternal(ctx, obj)
	if err := s.store.Register(ctx, native, externals...); err != nil {
		return err
	}
	obj.AttachExternalIdentifiers(externals...)

	s.logger.Info("assigned identifiers",
		"uuid", native.UUID(),
		"resource_type", obj.ResourceType(),
		"resource_id", obj.ResourceID(),
		"externals", len(externals),
	)
	return mintErr
}

// Resolve parses raw as a URL path or canonical string and binds it.
func (s *IdentifierService) Resolve(ctx context.Context, raw string) (pid.Resolvable, bool, error) {
	return s.resolver.Resolve(ctx, raw)
}

// ResolveObject resolves raw to the live object it identifies, loaded with
// its identifiers.
func (s *IdentifierService) ResolveObject(ctx context.Context, raw string) (*models.RepositoryObject, bool, error) {
	obj, ok, err := s.resolver.ResolveResource(ctx, raw)
	if err != nil || !ok {
		return nil, ok, err
	}
	ro, isRepo := obj.(*models.RepositoryObject)
	if !isRepo {
		return nil, false, fmt.Errorf("unexpected object type %T", obj)
	}
	return ro, true, nil
}

// Preferred returns the identifier used to present obj.
func (s *IdentifierService) Preferred(obj pid.IdentifiedObject) pid.Resolvable {
	return pid.PreferredIdentifier(obj, s.preferred)
}

// Remove retires the external identifier named by the canonical string raw.
// Native identifiers cannot be removed.
func (s *IdentifierService) Remove(ctx context.Context, raw string) (bool, error) {
	id, ok, err := s.resolver.ResolveCanonical(ctx, raw)
	if err != nil || !ok {
		return false, err
	}
	ext, isExternal := id.(pid.ExternalID)
	if !isExternal {
		return false, fmt.Errorf("%s is a native identifier and cannot be removed", id.Canonical())
	}
	return s.store.Remove(ctx, ext)
}

// BackfillResult summarises a BackfillNative run.
type BackfillResult struct {
	Processed int64
	Assigned  int64
	Failed    int64
}

// BackfillNative assigns identifiers to objects created without them,
// batchSize objects at a time. When dryRun is set nothing is written.
// progress, when not nil, is called after each batch.
func (s *IdentifierService) BackfillNative(
	ctx context.Context,
	batchSize int,
	dryRun bool,
	progress func(BackfillResult),
) (BackfillResult, error) {
	var result BackfillResult
	if batchSize < 1 {
		return result, fmt.Errorf("batch size must be at least 1")
	}

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		objs, err := s.store.ObjectsWithoutNativeIdentifier(ctx, afterID, batchSize)
		if err != nil {
			return result, err
		}
		if len(objs) == 0 {
			return result, nil
		}

		for i := range objs {
			obj := &objs[i]
			afterID = obj.ID
			result.Processed++

			if dryRun {
				result.Assigned++
				continue
			}

			if err := s.AssignIdentifiers(ctx, obj); err != nil {
				var assignErr *mint.AssignerError
				if !errors.As(err, &assignErr) {
					s.logger.Error("error assigning identifiers",
						"resource_type", obj.ResourceType(),
						"resource_id", obj.ID,
						"error", err,
					)
					result.Failed++
					continue
				}
				s.logger.Warn("some external identifiers were not assigned",
					"resource_id", obj.ID,
					"error", err,
				)
			}
			result.Assigned++
		}

		if progress != nil {
			progress(result)
		}
	}
}
