// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// EntityType represents the kind of entity that can carry photos.
type EntityType string

const (
	EntityTypePlace   EntityType = "place"
	EntityTypeProduct EntityType = "product"
	EntityTypeBrand   EntityType = "brand"
)

// PhotoBearingTypes lists the entity types that can have provider photos.
// Other types (e.g. user-generated entities) never enter the migration queue.
func PhotoBearingTypes() []EntityType {
	return []EntityType{EntityTypePlace, EntityTypeProduct, EntityTypeBrand}
}

// PhotoReference is an opaque handle issued by an external photo provider.
// It is not a URL: the provider resolves it to image bytes on demand, and may
// invalidate it at any time. Immutable once issued.
type PhotoReference struct {
	ReferenceID string `json:"reference_id"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Attribution string `json:"attribution,omitempty"`
}

// Entity represents a photo-bearing entity (place, product, brand).
// The application layer owning profiles/reviews is out of scope; this core
// only needs the identity, the provider linkage and the outstanding
// references still waiting for durable storage.
type Entity struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Type       EntityType       `json:"type"`
	ProviderID string           `json:"provider_id"`
	Categories []string         `json:"categories,omitempty"`
	PhotoRefs  []PhotoReference `json:"photo_refs,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasOutstandingRefs reports whether the entity still holds provider
// references that could be migrated.
func (e *Entity) HasOutstandingRefs() bool {
	return len(e.PhotoRefs) > 0
}

// StoredPhoto is a durably stored photo with a stable public URL.
// A row exists for (EntityID, ReferenceID) if and only if the reference was
// downloaded and uploaded successfully at least once; re-migration overwrites
// the same row.
type StoredPhoto struct {
	EntityID     string    `json:"entity_id"`
	ReferenceID  string    `json:"reference_id"`
	StoredURL    string    `json:"stored_url"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	QualityScore int       `json:"quality_score"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// MigrationResult is the outcome of migrating one entity's references.
// Len(StoredPhotos) may be less than Attempted: per-reference failures are
// skipped, not fatal.
type MigrationResult struct {
	EntityID     string        `json:"entity_id"`
	StoredPhotos []StoredPhoto `json:"stored_photos"`
	Attempted    int           `json:"attempted"`
}

// MigrationJobResult summarizes a single batch run. Transient; never
// persisted beyond logs.
type MigrationJobResult struct {
	MigratedCount  int  `json:"migrated"`
	FailedCount    int  `json:"failed"`
	TotalAttempted int  `json:"total"`
	HasMore        bool `json:"has_more"`
}

// CachedPhotoSet is the unit stored in the two-tier cache: the last-known
// photo set for an entity plus the moment it was recorded. Freshness is
// judged against CachedAt, never against the cache backend's own expiry.
type CachedPhotoSet struct {
	EntityID    string        `json:"entity_id"`
	Photos      []StoredPhoto `json:"photos"`
	BestQuality int           `json:"best_quality"`
	CachedAt    time.Time     `json:"cached_at"`
}

// Age returns how long ago the set was cached.
func (s *CachedPhotoSet) Age(now time.Time) time.Duration {
	return now.Sub(s.CachedAt)
}

// IsFresh reports whether the set is still within the given TTL.
func (s *CachedPhotoSet) IsFresh(now time.Time, ttl time.Duration) bool {
	return s.Age(now) <= ttl
}

// NewCachedPhotoSet builds a cache record from stored photos, deriving the
// best quality score across the set.
func NewCachedPhotoSet(entityID string, photos []StoredPhoto, now time.Time) *CachedPhotoSet {
	best := 0
	for _, p := range photos {
		if p.QualityScore > best {
			best = p.QualityScore
		}
	}

	return &CachedPhotoSet{
		EntityID:    entityID,
		Photos:      photos,
		BestQuality: best,
		CachedAt:    now,
	}
}

// CacheStats is a derived, read-only view over the persisted cache tier.
type CacheStats struct {
	TotalEntries     int            `json:"total_entries"`
	ExpiredEntries   int            `json:"expired_entries"`
	DistinctEntities int            `json:"distinct_entities"`
	ByQualityBucket  map[string]int `json:"by_quality_bucket"`
}
