// Package job provides background job runners and schedulers.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"photo-ingest-service/internal/app/service"
	"photo-ingest-service/internal/domain"
)

// Migrator migrates one entity's outstanding references.
// Implementation: service.MigrationService
type Migrator interface {
	MigrateEntity(ctx context.Context, entity *domain.Entity) (*domain.MigrationResult, error)
}

// MigrationRunner processes migration-pending entities in bounded batches.
//
// Each run selects entities that still have outstanding references and no
// stored photos, migrates them one at a time with pacing in between, and
// reports whether more work remains. Because migrated entities drop out of
// the selection predicate, repeated runs converge instead of reprocessing.
type MigrationRunner struct {
	entities    domain.EntityRepository
	migrator    Migrator
	batchSize   int
	entityDelay time.Duration
	logger      *zap.Logger
}

// RunnerConfig holds migration runner settings.
type RunnerConfig struct {
	BatchSize   int
	EntityDelay time.Duration
}

// NewMigrationRunner creates a migration runner.
func NewMigrationRunner(
	entities domain.EntityRepository,
	migrator Migrator,
	cfg RunnerConfig,
	logger *zap.Logger,
) *MigrationRunner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}

	return &MigrationRunner{
		entities:    entities,
		migrator:    migrator,
		batchSize:   cfg.BatchSize,
		entityDelay: cfg.EntityDelay,
		logger:      logger,
	}
}

// RunBatch executes one bounded migration batch at the configured size.
func (r *MigrationRunner) RunBatch(ctx context.Context) (*domain.MigrationJobResult, error) {
	return r.RunBatchSize(ctx, r.batchSize)
}

// RunBatchSize executes one migration batch of up to size entities. A
// non-positive size falls back to the configured batch size.
//
// An entity counts as migrated when at least one of its references was
// stored: the selection predicate no longer matches it, so the batch job is
// done with it and any references that failed are picked up only by an
// explicit per-entity re-run. A missing provider credential aborts the whole
// run; per-entity failures do not.
func (r *MigrationRunner) RunBatchSize(ctx context.Context, size int) (*domain.MigrationJobResult, error) {
	if size <= 0 {
		size = r.batchSize
	}

	selected, err := r.entities.SelectPendingPhotoMigration(ctx, size)
	if err != nil {
		return nil, fmt.Errorf("selecting pending entities: %w", err)
	}

	result := &domain.MigrationJobResult{
		TotalAttempted: len(selected),
		HasMore:        len(selected) == size,
	}

	if len(selected) == 0 {
		r.logger.Debug("no entities pending photo migration")

		return result, nil
	}

	r.logger.Info("starting migration batch",
		zap.Int("batch_size", size),
		zap.Int("selected", len(selected)),
	)

	for i, entity := range selected {
		if i > 0 && r.entityDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(r.entityDelay):
			}
		}

		migrated, err := r.migrator.MigrateEntity(ctx, entity)
		if err != nil {
			if errors.Is(err, service.ErrSourceNotConfigured) {
				return result, err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}

			result.FailedCount++
			r.logger.Warn("entity migration failed",
				zap.String("entity_id", entity.ID),
				zap.Error(err),
			)

			continue
		}

		if len(migrated.StoredPhotos) > 0 {
			result.MigratedCount++
		} else {
			result.FailedCount++
		}
	}

	r.logger.Info("migration batch finished",
		zap.Int("migrated", result.MigratedCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("total", result.TotalAttempted),
		zap.Bool("has_more", result.HasMore),
	)

	return result, nil
}
