package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"photo-ingest-service/internal/domain"
)

// ErrEntityNotFound is returned for unknown entity IDs.
var ErrEntityNotFound = errors.New("entity not found")

// Photo set origin labels for the read path.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

// EntityPhotos is the read-path view of an entity's photo set.
type EntityPhotos struct {
	Entity      *domain.Entity
	Photos      []domain.StoredPhoto
	BestQuality int

	// Source reports which tier served the set: cache or database.
	Source string

	// NeedsMigration is set when the entity holds provider references that
	// were never migrated, so the caller knows stored URLs are missing
	// because migration has not run, not because the entity has no photos.
	NeedsMigration bool
}

// PhotoService serves entity photo sets through the two-tier cache with a
// database fallback.
type PhotoService struct {
	entities domain.EntityRepository
	photos   domain.PhotoRepository
	cache    PhotoSetCache
	logger   *zap.Logger
}

// NewPhotoService creates a photo read service.
func NewPhotoService(
	entities domain.EntityRepository,
	photos domain.PhotoRepository,
	cache PhotoSetCache,
	logger *zap.Logger,
) *PhotoService {
	return &PhotoService{
		entities: entities,
		photos:   photos,
		cache:    cache,
		logger:   logger,
	}
}

// GetEntityPhotos returns the entity's stored photo set.
//
// A fresh cache record is served directly. On a miss or a stale record the
// database is read and the cache lazily repopulated. The database is the
// source of truth: a stale cache record never overrides an empty database.
func (s *PhotoService) GetEntityPhotos(ctx context.Context, entityID string) (*EntityPhotos, error) {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("loading entity %s: %w", entityID, err)
	}
	if entity == nil {
		return nil, ErrEntityNotFound
	}

	set, fresh, err := s.cache.Get(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("reading cache for %s: %w", entityID, err)
	}

	if set != nil && fresh {
		return &EntityPhotos{
			Entity:      entity,
			Photos:      set.Photos,
			BestQuality: set.BestQuality,
			Source:      SourceCache,
		}, nil
	}

	photos, err := s.photos.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing stored photos for %s: %w", entityID, err)
	}

	if len(photos) > 0 {
		refreshed := domain.NewCachedPhotoSet(entityID, photos, time.Now().UTC())
		if err := s.cache.Put(ctx, refreshed); err != nil {
			s.logger.Warn("cache repopulation failed",
				zap.String("entity_id", entityID),
				zap.Error(err),
			)
		}

		return &EntityPhotos{
			Entity:      entity,
			Photos:      photos,
			BestQuality: refreshed.BestQuality,
			Source:      SourceDatabase,
		}, nil
	}

	// Nothing stored yet. Flag entities whose references simply have not
	// been migrated.
	return &EntityPhotos{
		Entity:         entity,
		Photos:         []domain.StoredPhoto{},
		Source:         SourceDatabase,
		NeedsMigration: entity.HasOutstandingRefs(),
	}, nil
}

// InvalidateEntity drops the entity's cache record. The next read rebuilds
// it from the database.
func (s *PhotoService) InvalidateEntity(ctx context.Context, entityID string) error {
	return s.cache.Invalidate(ctx, entityID)
}

// CacheStats returns the derived view over the persisted cache tier.
func (s *PhotoService) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	return s.cache.Stats(ctx)
}
