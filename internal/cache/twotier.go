// Package cache implements the two-tier photo cache: an in-process memory
// tier for burst deduplication in front of a persisted Redis tier.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"photo-ingest-service/internal/domain"
)

// photoSetKey namespaces photo set records within the persisted tier.
const photoSetKeyPrefix = "photos:"

// Config holds two-tier cache tuning.
type Config struct {
	// MemoryTTL bounds how long a record is served without touching the
	// persisted tier. Seconds, not hours.
	MemoryTTL time.Duration

	// MemoryCleanup is the sweep interval of the memory tier.
	MemoryCleanup time.Duration

	// PersistedTTL is the freshness window. A record older than this is
	// served as stale and the caller is expected to refresh it.
	PersistedTTL time.Duration
}

// TwoTier layers a short-lived memory cache over the persisted tier.
//
// Freshness is always judged from the record's CachedAt against PersistedTTL,
// never from either backend's own expiry. The persisted tier keeps records
// for twice the freshness window so stale entries stay observable (and
// countable in stats) instead of silently vanishing at the freshness
// boundary.
type TwoTier struct {
	memory       *gocache.Cache
	persisted    domain.Cache
	persistedTTL time.Duration
	logger       *zap.Logger

	// now is swappable in tests.
	now func() time.Time
}

// New creates a two-tier cache over the given persisted tier.
func New(persisted domain.Cache, cfg Config, logger *zap.Logger) *TwoTier {
	memoryTTL := cfg.MemoryTTL
	if memoryTTL <= 0 {
		memoryTTL = 30 * time.Second
	}

	cleanup := cfg.MemoryCleanup
	if cleanup <= 0 {
		cleanup = time.Minute
	}

	persistedTTL := cfg.PersistedTTL
	if persistedTTL <= 0 {
		persistedTTL = 48 * time.Hour
	}

	return &TwoTier{
		memory:       gocache.New(memoryTTL, cleanup),
		persisted:    persisted,
		persistedTTL: persistedTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// Get returns the cached photo set for an entity and whether it is still
// fresh. A nil set means a full miss in both tiers.
//
// A persisted-tier read error degrades to a miss: the caller falls back to
// the database, it does not fail the request.
func (c *TwoTier) Get(ctx context.Context, entityID string) (*domain.CachedPhotoSet, bool, error) {
	if cached, ok := c.memory.Get(entityID); ok {
		set := cached.(*domain.CachedPhotoSet)

		c.logger.Debug("memory tier hit",
			zap.String("entity_id", entityID),
			zap.Duration("age", set.Age(c.now())),
		)

		return set, set.IsFresh(c.now(), c.persistedTTL), nil
	}

	data, err := c.persisted.Get(ctx, photoSetKeyPrefix+entityID)
	if err != nil {
		c.logger.Warn("persisted tier read failed, degrading to miss",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)

		return nil, false, nil
	}
	if data == nil {
		return nil, false, nil
	}

	var set domain.CachedPhotoSet
	if err := json.Unmarshal(data, &set); err != nil {
		// Corrupt record: drop it and report a miss
		_ = c.persisted.Delete(ctx, photoSetKeyPrefix+entityID)

		c.logger.Warn("dropping corrupt cache record",
			zap.String("entity_id", entityID),
			zap.Error(err),
		)

		return nil, false, nil
	}

	// Promote to the memory tier for the burst window
	c.memory.SetDefault(entityID, &set)

	return &set, set.IsFresh(c.now(), c.persistedTTL), nil
}

// Put records the photo set in both tiers.
func (c *TwoTier) Put(ctx context.Context, set *domain.CachedPhotoSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling photo set: %w", err)
	}

	// Keep the record beyond the freshness window so staleness is observable
	if err := c.persisted.Set(ctx, photoSetKeyPrefix+set.EntityID, data, 2*c.persistedTTL); err != nil {
		return fmt.Errorf("writing persisted tier: %w", err)
	}

	c.memory.SetDefault(set.EntityID, set)

	return nil
}

// Invalidate drops the entity's record from both tiers.
func (c *TwoTier) Invalidate(ctx context.Context, entityID string) error {
	c.memory.Delete(entityID)

	if err := c.persisted.Delete(ctx, photoSetKeyPrefix+entityID); err != nil {
		return fmt.Errorf("deleting from persisted tier: %w", err)
	}

	return nil
}

// Stats derives a read-only view over the persisted tier: entry counts,
// staleness and quality distribution. The memory tier is a subset of the
// persisted tier and is not counted separately.
func (c *TwoTier) Stats(ctx context.Context) (*domain.CacheStats, error) {
	keys, err := c.persisted.Scan(ctx, photoSetKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scanning persisted tier: %w", err)
	}

	stats := &domain.CacheStats{
		ByQualityBucket: map[string]int{},
	}

	entities := map[string]struct{}{}
	now := c.now()

	for _, key := range keys {
		data, err := c.persisted.Get(ctx, key)
		if err != nil || data == nil {
			// Key expired between scan and read; skip
			continue
		}

		var set domain.CachedPhotoSet
		if err := json.Unmarshal(data, &set); err != nil {
			continue
		}

		stats.TotalEntries++
		if !set.IsFresh(now, c.persistedTTL) {
			stats.ExpiredEntries++
		}

		entities[set.EntityID] = struct{}{}
		stats.ByQualityBucket[domain.QualityBucket(set.BestQuality)]++
	}

	stats.DistinctEntities = len(entities)

	return stats, nil
}
