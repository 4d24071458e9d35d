// Package service contains the application services orchestrating domain
// logic, persistence, caching and the external photo provider.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"photo-ingest-service/internal/domain"
)

// ErrSourceNotConfigured is returned when migration is invoked without
// provider credentials. This is an infrastructure error surfaced once per
// invocation, not a per-photo failure.
var ErrSourceNotConfigured = errors.New("photo source not configured")

// PhotoProvider extends the photo source with a credential check.
type PhotoProvider interface {
	domain.PhotoSource

	// Configured reports whether the provider holds a usable credential.
	Configured() bool
}

// PhotoSetCache is the two-tier cache surface the services need.
// Implementation: internal/cache.TwoTier
type PhotoSetCache interface {
	Get(ctx context.Context, entityID string) (*domain.CachedPhotoSet, bool, error)
	Put(ctx context.Context, set *domain.CachedPhotoSet) error
	Invalidate(ctx context.Context, entityID string) error
	Stats(ctx context.Context) (*domain.CacheStats, error)
}

// MigrationService moves an entity's provider photo references into durable
// storage: download, upload under a deterministic key, score, record.
type MigrationService struct {
	source        PhotoProvider
	store         domain.ObjectStore
	photos        domain.PhotoRepository
	cache         PhotoSetCache
	downloadDelay time.Duration
	logger        *zap.Logger
}

// NewMigrationService creates a migration service.
// downloadDelay paces successive provider downloads within one entity.
func NewMigrationService(
	source PhotoProvider,
	store domain.ObjectStore,
	photos domain.PhotoRepository,
	cache PhotoSetCache,
	downloadDelay time.Duration,
	logger *zap.Logger,
) *MigrationService {
	return &MigrationService{
		source:        source,
		store:         store,
		photos:        photos,
		cache:         cache,
		downloadDelay: downloadDelay,
		logger:        logger,
	}
}

// MigrateEntity migrates all outstanding references of one entity.
//
// Per-reference failures are skipped and logged, never fatal: the reference
// simply stays unmigrated and a later run retries it. Each successful
// reference is written with upsert semantics, so re-running a partially
// migrated entity is safe. The whole operation is cancelled between
// references when ctx is done.
func (s *MigrationService) MigrateEntity(ctx context.Context, entity *domain.Entity) (*domain.MigrationResult, error) {
	if !s.source.Configured() {
		return nil, ErrSourceNotConfigured
	}

	result := &domain.MigrationResult{
		EntityID:  entity.ID,
		Attempted: len(entity.PhotoRefs),
	}

	for i, ref := range entity.PhotoRefs {
		if i > 0 && s.downloadDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.downloadDelay):
			}
		}

		photo, err := s.migrateReference(ctx, entity, ref)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}

			s.logger.Warn("reference migration failed, skipping",
				zap.String("entity_id", entity.ID),
				zap.String("reference_id", ref.ReferenceID),
				zap.Error(err),
			)

			continue
		}

		result.StoredPhotos = append(result.StoredPhotos, *photo)
	}

	if len(result.StoredPhotos) > 0 {
		s.refreshCache(ctx, entity.ID)
	}

	s.logger.Info("entity migration finished",
		zap.String("entity_id", entity.ID),
		zap.Int("attempted", result.Attempted),
		zap.Int("migrated", len(result.StoredPhotos)),
	)

	return result, nil
}

// migrateReference moves a single reference into durable storage.
func (s *MigrationService) migrateReference(ctx context.Context, entity *domain.Entity, ref domain.PhotoReference) (*domain.StoredPhoto, error) {
	payload, err := s.source.Download(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("downloading: %w", err)
	}

	key := storageKey(entity.ID, s.source.Name(), ref.ReferenceID, payload.ContentType)

	storedURL, err := s.store.Put(ctx, key, payload.Data, payload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("storing: %w", err)
	}

	quality := domain.QualityScore(domain.ValidationResult{
		IsValid:       true,
		ContentType:   payload.ContentType,
		FileSizeBytes: int64(len(payload.Data)),
	})

	photo := &domain.StoredPhoto{
		EntityID:     entity.ID,
		ReferenceID:  ref.ReferenceID,
		StoredURL:    storedURL,
		Width:        ref.Width,
		Height:       ref.Height,
		QualityScore: quality,
		UploadedAt:   time.Now().UTC(),
	}

	if err := s.photos.UpsertStoredPhoto(ctx, photo); err != nil {
		return nil, fmt.Errorf("recording stored photo: %w", err)
	}

	return photo, nil
}

// refreshCache rewrites the entity's cache record from the database so the
// read path sees the migration result immediately. Best-effort: a cache
// write failure never fails the migration.
func (s *MigrationService) refreshCache(ctx context.Context, entityID string) {
	photos, err := s.photos.ListByEntity(ctx, entityID)
	if err != nil {
		s.logger.Warn("cache refresh read failed",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)

		return
	}

	set := domain.NewCachedPhotoSet(entityID, photos, time.Now().UTC())
	if err := s.cache.Put(ctx, set); err != nil {
		s.logger.Warn("cache refresh write failed",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

// storageKey builds the deterministic object key for a reference:
// {entityID}/{providerNamespace}/{referenceID}.{ext}. Deterministic keys make
// re-migration overwrite instead of accumulate.
func storageKey(entityID, namespace, referenceID, contentType string) string {
	return fmt.Sprintf("%s/%s/%s.%s", entityID, namespace, referenceID, fileExtension(contentType))
}

// fileExtension derives a file extension from a content type, defaulting to
// jpg for unknown or missing types.
func fileExtension(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}

	switch ct {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	default:
		return "jpg"
	}
}
