package domain

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by ObjectStore.Get for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

// EntityRepository defines persistence operations for photo-bearing entities.
// Implementations: internal/infra/postgres/repository.go
type EntityRepository interface {
	// GetByID retrieves a single entity by its internal ID.
	GetByID(ctx context.Context, id string) (*Entity, error)

	// Upsert creates or updates an entity.
	Upsert(ctx context.Context, entity *Entity) error

	// SelectPendingPhotoMigration returns up to limit entities that are of a
	// photo-bearing type, still hold outstanding provider references, and
	// have no stored photos yet. This predicate shrinks as migration
	// progresses, which is what makes repeated batch runs converge.
	SelectPendingPhotoMigration(ctx context.Context, limit int) ([]*Entity, error)
}

// PhotoRepository defines persistence operations for durably stored photos.
// Implementations: internal/infra/postgres/repository.go
type PhotoRepository interface {
	// UpsertStoredPhoto creates or overwrites the row keyed by
	// (entity_id, reference_id). Never duplicates.
	UpsertStoredPhoto(ctx context.Context, photo *StoredPhoto) error

	// ListByEntity returns all stored photos for an entity.
	ListByEntity(ctx context.Context, entityID string) ([]StoredPhoto, error)

	// Count returns the total number of stored photos.
	Count(ctx context.Context) (int64, error)
}

// ObjectStore is the durable blob store behind stable photo URLs.
// Implementations: internal/infra/postgres/objectstore.go
type ObjectStore interface {
	// Put writes the object at key with upsert semantics and returns its
	// stable public URL. Re-running a put for the same key overwrites.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get returns the object's bytes and content type.
	// Returns ErrObjectNotFound for unknown keys.
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// Cache defines the persisted cache tier operations.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil (no error) if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Scan returns all stored keys matching the pattern, with the
	// implementation's namespace prefix stripped.
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// PhotoPayload is a downloaded image body with its declared content type.
type PhotoPayload struct {
	Data        []byte
	ContentType string
}

// PhotoSource defines the external photo provider boundary.
// Implementations: internal/infra/provider/places/
type PhotoSource interface {
	// Name returns the provider identifier, also used as the namespace
	// segment of storage keys.
	Name() string

	// PhotoURL builds the canonical, fixed-resolution download URL for a
	// reference. One URL per reference; no multi-resolution variants.
	PhotoURL(ref PhotoReference) string

	// Download fetches the full image body for a reference.
	Download(ctx context.Context, ref PhotoReference) (*PhotoPayload, error)

	// HealthCheck verifies the provider is reachable and credentialed.
	HealthCheck(ctx context.Context) error
}
