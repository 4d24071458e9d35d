package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"photo-ingest-service/internal/domain"
)

// Repository implements domain.EntityRepository and domain.PhotoRepository
// using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a single entity by its internal ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	var model EntityModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Not found
		}

		return nil, fmt.Errorf("getting entity by id: %w", err)
	}

	return model.ToDomain(), nil
}

// Upsert creates or updates an entity.
func (r *Repository) Upsert(ctx context.Context, entity *domain.Entity) error {
	model := EntityFromDomain(entity)
	model.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "type", "provider_id", "categories", "photo_refs", "updated_at",
		}),
	}).Create(model).Error

	if err != nil {
		return fmt.Errorf("upserting entity: %w", err)
	}

	// Update the domain object with database-generated fields
	entity.ID = model.ID
	entity.CreatedAt = model.CreatedAt
	entity.UpdatedAt = model.UpdatedAt

	return nil
}

// SelectPendingPhotoMigration returns up to limit entities that still need
// durable photos: photo-bearing type, outstanding provider references, and
// no stored_photos rows. Oldest first, so a crashed run resumes where the
// backlog is deepest.
func (r *Repository) SelectPendingPhotoMigration(ctx context.Context, limit int) ([]*domain.Entity, error) {
	types := domain.PhotoBearingTypes()
	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}

	var models []EntityModel
	err := r.db.WithContext(ctx).
		Where("type IN ?", typeNames).
		Where("photo_refs IS NOT NULL AND jsonb_array_length(photo_refs) > 0").
		Where("NOT EXISTS (SELECT 1 FROM stored_photos sp WHERE sp.entity_id = entities.id)").
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("selecting entities pending photo migration: %w", err)
	}

	entities := make([]*domain.Entity, len(models))
	for i := range models {
		entities[i] = models[i].ToDomain()
	}

	return entities, nil
}

// UpsertStoredPhoto creates or overwrites the row keyed by
// (entity_id, reference_id). A re-run refreshes stored_url, dimensions,
// quality and uploaded_at in place.
func (r *Repository) UpsertStoredPhoto(ctx context.Context, photo *domain.StoredPhoto) error {
	model := StoredPhotoFromDomain(photo)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entity_id"}, {Name: "reference_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stored_url", "width", "height", "quality_score", "uploaded_at",
		}),
	}).Create(model).Error

	if err != nil {
		return fmt.Errorf("upserting stored photo: %w", err)
	}

	return nil
}

// ListByEntity returns all stored photos for an entity, best quality first.
func (r *Repository) ListByEntity(ctx context.Context, entityID string) ([]domain.StoredPhoto, error) {
	var models []StoredPhotoModel
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("quality_score DESC, reference_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing stored photos: %w", err)
	}

	photos := make([]domain.StoredPhoto, len(models))
	for i := range models {
		photos[i] = models[i].ToDomain()
	}

	return photos, nil
}

// Count returns the total number of stored photos.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&StoredPhotoModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting stored photos: %w", err)
	}

	return count, nil
}
