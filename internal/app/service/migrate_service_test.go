package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"photo-ingest-service/internal/domain"
)

// fakeSource implements PhotoProvider with scripted per-reference outcomes.
type fakeSource struct {
	configured bool
	payloads   map[string]*domain.PhotoPayload
	failures   map[string]error
	downloads  []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		configured: true,
		payloads:   map[string]*domain.PhotoPayload{},
		failures:   map[string]error{},
	}
}

func (f *fakeSource) Name() string     { return "places" }
func (f *fakeSource) Configured() bool { return f.configured }

func (f *fakeSource) PhotoURL(ref domain.PhotoReference) string {
	return "http://provider.test/v1/photo?ref=" + ref.ReferenceID
}

func (f *fakeSource) Download(_ context.Context, ref domain.PhotoReference) (*domain.PhotoPayload, error) {
	f.downloads = append(f.downloads, ref.ReferenceID)

	if err, ok := f.failures[ref.ReferenceID]; ok {
		return nil, err
	}
	if p, ok := f.payloads[ref.ReferenceID]; ok {
		return p, nil
	}

	return &domain.PhotoPayload{Data: []byte("image-bytes"), ContentType: "image/jpeg"}, nil
}

func (f *fakeSource) HealthCheck(context.Context) error { return nil }

// fakeObjectStore records puts in memory and serves stable URLs.
type fakeObjectStore struct {
	objects map[string][]byte
	types   map[string]string
	failAll bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if f.failAll {
		return "", errors.New("storage unavailable")
	}

	f.objects[key] = data
	f.types[key] = contentType

	return "http://localhost:8080/photos/" + key, nil
}

func (f *fakeObjectStore) Get(_ context.Context, key string) ([]byte, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", domain.ErrObjectNotFound
	}

	return data, f.types[key], nil
}

// fakePhotoRepo stores photos keyed by (entity, reference).
type fakePhotoRepo struct {
	photos map[string]domain.StoredPhoto
}

func newFakePhotoRepo() *fakePhotoRepo {
	return &fakePhotoRepo{photos: map[string]domain.StoredPhoto{}}
}

func (f *fakePhotoRepo) UpsertStoredPhoto(_ context.Context, photo *domain.StoredPhoto) error {
	f.photos[photo.EntityID+"/"+photo.ReferenceID] = *photo
	return nil
}

func (f *fakePhotoRepo) ListByEntity(_ context.Context, entityID string) ([]domain.StoredPhoto, error) {
	var out []domain.StoredPhoto
	for _, p := range f.photos {
		if p.EntityID == entityID {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].QualityScore > out[j].QualityScore })

	return out, nil
}

func (f *fakePhotoRepo) Count(context.Context) (int64, error) {
	return int64(len(f.photos)), nil
}

// fakeCache records puts and invalidations.
type fakeCache struct {
	sets        map[string]*domain.CachedPhotoSet
	fresh       map[string]bool
	puts        []string
	invalidated []string
	gets        int
}

func newFakeCache() *fakeCache {
	return &fakeCache{sets: map[string]*domain.CachedPhotoSet{}, fresh: map[string]bool{}}
}

func (f *fakeCache) Get(_ context.Context, entityID string) (*domain.CachedPhotoSet, bool, error) {
	f.gets++
	return f.sets[entityID], f.fresh[entityID], nil
}

func (f *fakeCache) Put(_ context.Context, set *domain.CachedPhotoSet) error {
	f.sets[set.EntityID] = set
	f.fresh[set.EntityID] = true
	f.puts = append(f.puts, set.EntityID)

	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, entityID string) error {
	delete(f.sets, entityID)
	delete(f.fresh, entityID)
	f.invalidated = append(f.invalidated, entityID)

	return nil
}

func (f *fakeCache) Stats(context.Context) (*domain.CacheStats, error) {
	return &domain.CacheStats{TotalEntries: len(f.sets), ByQualityBucket: map[string]int{}}, nil
}

func migrationEntity(refs ...string) *domain.Entity {
	photoRefs := make([]domain.PhotoReference, len(refs))
	for i, r := range refs {
		photoRefs[i] = domain.PhotoReference{ReferenceID: r, Width: 800, Height: 600}
	}

	return &domain.Entity{
		ID:         "entity-1",
		Name:       "Test Place",
		Type:       domain.EntityTypePlace,
		ProviderID: "places",
		PhotoRefs:  photoRefs,
	}
}

// TestMigrationService_MigrateEntity_Success tests the full path: download,
// store under a deterministic key, score, record, refresh cache.
func TestMigrationService_MigrateEntity_Success(t *testing.T) {
	source := newFakeSource()
	store := newFakeObjectStore()
	repo := newFakePhotoRepo()
	cache := newFakeCache()

	svc := NewMigrationService(source, store, repo, cache, 0, zap.NewNop())

	result, err := svc.MigrateEntity(context.Background(), migrationEntity("ref-1", "ref-2"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempted)
	require.Len(t, result.StoredPhotos, 2)

	// Deterministic storage keys: {entity}/{provider}/{ref}.{ext}
	assert.Contains(t, store.objects, "entity-1/places/ref-1.jpg")
	assert.Contains(t, store.objects, "entity-1/places/ref-2.jpg")

	first := result.StoredPhotos[0]
	assert.Equal(t, "http://localhost:8080/photos/entity-1/places/ref-1.jpg", first.StoredURL)
	assert.Equal(t, 800, first.Width)
	assert.Equal(t, 600, first.Height)
	assert.Equal(t, 60, first.QualityScore, "small jpeg scores base + type bonus")
	assert.False(t, first.UploadedAt.IsZero())

	// Cache refreshed with the full set
	require.Len(t, cache.puts, 1)
	require.NotNil(t, cache.sets["entity-1"])
	assert.Len(t, cache.sets["entity-1"].Photos, 2)
}

// TestMigrationService_MigrateEntity_ExtensionFromContentType tests that the
// object key extension follows the downloaded content type.
func TestMigrationService_MigrateEntity_ExtensionFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		wantKey     string
	}{
		{"image/webp", "entity-1/places/ref-1.webp"},
		{"image/png", "entity-1/places/ref-1.png"},
		{"image/jpeg; charset=binary", "entity-1/places/ref-1.jpg"},
		{"image/svg+xml", "entity-1/places/ref-1.svg"},
		{"", "entity-1/places/ref-1.jpg"},
		{"application/octet-stream", "entity-1/places/ref-1.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			source := newFakeSource()
			source.payloads["ref-1"] = &domain.PhotoPayload{
				Data:        []byte("image-bytes"),
				ContentType: tt.contentType,
			}
			store := newFakeObjectStore()

			svc := NewMigrationService(source, store, newFakePhotoRepo(), newFakeCache(), 0, zap.NewNop())

			_, err := svc.MigrateEntity(context.Background(), migrationEntity("ref-1"))
			require.NoError(t, err)
			assert.Contains(t, store.objects, tt.wantKey)
		})
	}
}

// TestMigrationService_MigrateEntity_PartialFailure tests that a failing
// reference is skipped and the rest of the entity still migrates.
func TestMigrationService_MigrateEntity_PartialFailure(t *testing.T) {
	source := newFakeSource()
	source.failures["ref-2"] = errors.New("provider returned status 403")
	repo := newFakePhotoRepo()
	cache := newFakeCache()

	svc := NewMigrationService(source, newFakeObjectStore(), repo, cache, 0, zap.NewNop())

	result, err := svc.MigrateEntity(context.Background(), migrationEntity("ref-1", "ref-2", "ref-3"))
	require.NoError(t, err, "per-reference failures are not fatal")

	assert.Equal(t, 3, result.Attempted)
	assert.Len(t, result.StoredPhotos, 2)
	assert.Equal(t, []string{"ref-1", "ref-2", "ref-3"}, source.downloads)

	// Only the successes are recorded
	photos, _ := repo.ListByEntity(context.Background(), "entity-1")
	assert.Len(t, photos, 2)

	// Partial success still refreshes the cache
	assert.Len(t, cache.puts, 1)
}

// TestMigrationService_MigrateEntity_StorageFailure tests that an upload
// failure skips the reference without recording it.
func TestMigrationService_MigrateEntity_StorageFailure(t *testing.T) {
	store := newFakeObjectStore()
	store.failAll = true
	repo := newFakePhotoRepo()
	cache := newFakeCache()

	svc := NewMigrationService(newFakeSource(), store, repo, cache, 0, zap.NewNop())

	result, err := svc.MigrateEntity(context.Background(), migrationEntity("ref-1"))
	require.NoError(t, err)

	assert.Empty(t, result.StoredPhotos)

	photos, _ := repo.ListByEntity(context.Background(), "entity-1")
	assert.Empty(t, photos)

	// Nothing migrated, nothing to refresh
	assert.Empty(t, cache.puts)
}

// TestMigrationService_MigrateEntity_NotConfigured tests the credential
// guard: no credential, no downloads.
func TestMigrationService_MigrateEntity_NotConfigured(t *testing.T) {
	source := newFakeSource()
	source.configured = false

	svc := NewMigrationService(source, newFakeObjectStore(), newFakePhotoRepo(), newFakeCache(), 0, zap.NewNop())

	_, err := svc.MigrateEntity(context.Background(), migrationEntity("ref-1"))
	require.ErrorIs(t, err, ErrSourceNotConfigured)
	assert.Empty(t, source.downloads)
}

// TestMigrationService_MigrateEntity_ContextCancelled tests that
// cancellation stops the run instead of being skipped like a photo failure.
func TestMigrationService_MigrateEntity_ContextCancelled(t *testing.T) {
	source := newFakeSource()
	source.failures["ref-2"] = fmt.Errorf("downloading: %w", context.Canceled)

	svc := NewMigrationService(source, newFakeObjectStore(), newFakePhotoRepo(), newFakeCache(), 0, zap.NewNop())

	result, err := svc.MigrateEntity(context.Background(), migrationEntity("ref-1", "ref-2", "ref-3"))
	require.ErrorIs(t, err, context.Canceled)

	// ref-1 succeeded before the cancellation, ref-3 never ran
	assert.Len(t, result.StoredPhotos, 1)
	assert.Equal(t, []string{"ref-1", "ref-2"}, source.downloads)
}

// TestMigrationService_MigrateEntity_Idempotent tests that re-running an
// already migrated entity overwrites rows instead of duplicating them.
func TestMigrationService_MigrateEntity_Idempotent(t *testing.T) {
	source := newFakeSource()
	repo := newFakePhotoRepo()

	svc := NewMigrationService(source, newFakeObjectStore(), repo, newFakeCache(), 0, zap.NewNop())

	entity := migrationEntity("ref-1", "ref-2")

	_, err := svc.MigrateEntity(context.Background(), entity)
	require.NoError(t, err)
	_, err = svc.MigrateEntity(context.Background(), entity)
	require.NoError(t, err)

	photos, _ := repo.ListByEntity(context.Background(), "entity-1")
	assert.Len(t, photos, 2, "re-migration must not duplicate")
}

// TestMigrationService_DownloadDelay tests pacing between references.
func TestMigrationService_DownloadDelay(t *testing.T) {
	source := newFakeSource()

	svc := NewMigrationService(source, newFakeObjectStore(), newFakePhotoRepo(), newFakeCache(), 30*time.Millisecond, zap.NewNop())

	start := time.Now()
	_, err := svc.MigrateEntity(context.Background(), migrationEntity("ref-1", "ref-2", "ref-3"))
	require.NoError(t, err)

	// Two inter-reference gaps
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
