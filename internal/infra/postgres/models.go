package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"photo-ingest-service/internal/domain"
)

// PhotoRefList stores outstanding provider references as a JSONB column.
type PhotoRefList []domain.PhotoReference

// Value implements driver.Valuer for JSONB serialization.
func (l PhotoRefList) Value() (driver.Value, error) {
	if l == nil {
		l = PhotoRefList{}
	}

	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB deserialization.
func (l *PhotoRefList) Scan(value interface{}) error {
	if value == nil {
		*l = PhotoRefList{}

		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported photo_refs column type %T", value)
	}

	return json.Unmarshal(data, l)
}

// EntityModel is the GORM model for the entities table.
type EntityModel struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string         `gorm:"type:varchar(300);not null"`
	Type       string         `gorm:"type:varchar(20);not null;index"`
	ProviderID string         `gorm:"type:varchar(50);not null;index"`
	Categories pq.StringArray `gorm:"type:text[]"`
	PhotoRefs  PhotoRefList   `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for EntityModel.
func (EntityModel) TableName() string {
	return "entities"
}

// ToDomain converts EntityModel to domain.Entity.
func (m *EntityModel) ToDomain() *domain.Entity {
	return &domain.Entity{
		ID:         m.ID,
		Name:       m.Name,
		Type:       domain.EntityType(m.Type),
		ProviderID: m.ProviderID,
		Categories: m.Categories,
		PhotoRefs:  m.PhotoRefs,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// EntityFromDomain creates an EntityModel from domain.Entity.
func EntityFromDomain(e *domain.Entity) *EntityModel {
	return &EntityModel{
		ID:         e.ID,
		Name:       e.Name,
		Type:       string(e.Type),
		ProviderID: e.ProviderID,
		Categories: e.Categories,
		PhotoRefs:  e.PhotoRefs,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// StoredPhotoModel is the GORM model for the stored_photos table.
// (entity_id, reference_id) is the idempotence key: migration re-runs
// overwrite the row rather than duplicating it.
type StoredPhotoModel struct {
	EntityID     string    `gorm:"type:uuid;not null;primaryKey"`
	ReferenceID  string    `gorm:"type:varchar(300);not null;primaryKey"`
	StoredURL    string    `gorm:"type:text;not null"`
	Width        int       `gorm:"default:0"`
	Height       int       `gorm:"default:0"`
	QualityScore int       `gorm:"default:0"`
	UploadedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for StoredPhotoModel.
func (StoredPhotoModel) TableName() string {
	return "stored_photos"
}

// ToDomain converts StoredPhotoModel to domain.StoredPhoto.
func (m *StoredPhotoModel) ToDomain() domain.StoredPhoto {
	return domain.StoredPhoto{
		EntityID:     m.EntityID,
		ReferenceID:  m.ReferenceID,
		StoredURL:    m.StoredURL,
		Width:        m.Width,
		Height:       m.Height,
		QualityScore: m.QualityScore,
		UploadedAt:   m.UploadedAt,
	}
}

// StoredPhotoFromDomain creates a StoredPhotoModel from domain.StoredPhoto.
func StoredPhotoFromDomain(p *domain.StoredPhoto) *StoredPhotoModel {
	return &StoredPhotoModel{
		EntityID:     p.EntityID,
		ReferenceID:  p.ReferenceID,
		StoredURL:    p.StoredURL,
		Width:        p.Width,
		Height:       p.Height,
		QualityScore: p.QualityScore,
		UploadedAt:   p.UploadedAt,
	}
}

// PhotoObjectModel is the GORM model for the photo_objects table, the
// durable blob store behind stable photo URLs. The deterministic key is the
// primary key, which is what makes uploads idempotent upserts.
type PhotoObjectModel struct {
	Key         string    `gorm:"type:varchar(600);primaryKey"`
	Data        []byte    `gorm:"type:bytea;not null"`
	ContentType string    `gorm:"type:varchar(100);not null"`
	SizeBytes   int64     `gorm:"default:0"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for PhotoObjectModel.
func (PhotoObjectModel) TableName() string {
	return "photo_objects"
}
