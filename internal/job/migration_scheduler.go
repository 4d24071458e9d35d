package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"photo-ingest-service/internal/domain"
	"photo-ingest-service/pkg/locker"
)

// MigrationScheduler runs periodic migration batches with distributed
// locking so only one instance processes the queue at a time.
type MigrationScheduler struct {
	runner   *MigrationRunner
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	locker   locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SchedulerConfig holds migration scheduler configuration.
type SchedulerConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewMigrationScheduler creates a scheduler around the batch runner.
func NewMigrationScheduler(
	runner *MigrationRunner,
	cfg SchedulerConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *MigrationScheduler {
	return &MigrationScheduler{
		runner:   runner,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
		locker:   locker,
	}
}

// Start begins the background migration job.
func (s *MigrationScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting migration scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler.
func (s *MigrationScheduler) Stop() {
	s.logger.Info("stopping migration scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("migration scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *MigrationScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.executeBatch()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeBatch()
		}
	}
}

// executeBatch drains migration batches under the distributed lock until the
// queue is empty or the run timeout hits.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: lock held for the full interval to prevent duplicate runs
//   - Failure before any work: lock released so another instance can retry
func (s *MigrationScheduler) executeBatch() {
	const lockKey = "photo:migration:lock"

	acquired, err := s.locker.Acquire(s.ctx, lockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		s.logger.Debug("another instance is running migration, skipping execution")

		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	var total domain.MigrationJobResult

	for {
		result, err := s.runner.RunBatch(ctx)
		if err != nil {
			if total.TotalAttempted == 0 {
				// Release lock immediately on error (allow immediate retry)
				if relErr := s.locker.Release(s.ctx, lockKey); relErr != nil {
					s.logger.Error("failed to release lock after batch error", zap.Error(relErr))
				}

				s.logger.Warn("migration batch failed, lock released for retry",
					zap.Error(err),
				)

				return
			}

			s.logger.Warn("migration drain stopped early", zap.Error(err))

			break
		}

		total.MigratedCount += result.MigratedCount
		total.FailedCount += result.FailedCount
		total.TotalAttempted += result.TotalAttempted
		total.HasMore = result.HasMore

		if !result.HasMore {
			break
		}

		// Failed entities stay in the selection set; a batch with zero
		// progress would reselect them and spin until the timeout.
		if result.MigratedCount == 0 {
			s.logger.Warn("migration drain made no progress, stopping",
				zap.Int("failed", result.FailedCount),
			)

			break
		}
	}

	// Lock expires naturally after the interval (cooldown period)
	s.logger.Info("migration run completed, lock held for cooldown",
		zap.Int("migrated", total.MigratedCount),
		zap.Int("failed", total.FailedCount),
		zap.Int("total", total.TotalAttempted),
		zap.Bool("has_more", total.HasMore),
		zap.Duration("cooldown", s.interval),
	)
}
