package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"photo-ingest-service/internal/app/service"
	"photo-ingest-service/internal/domain"
)

// fakeEntityRepo serves a scripted pending queue.
type fakeEntityRepo struct {
	pending   []*domain.Entity
	selectErr error
}

func (f *fakeEntityRepo) GetByID(_ context.Context, id string) (*domain.Entity, error) {
	for _, e := range f.pending {
		if e.ID == id {
			return e, nil
		}
	}

	return nil, nil
}

func (f *fakeEntityRepo) Upsert(context.Context, *domain.Entity) error { return nil }

func (f *fakeEntityRepo) SelectPendingPhotoMigration(_ context.Context, limit int) ([]*domain.Entity, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}

	return f.pending, nil
}

// fakeMigrator records migrated entities with scripted outcomes.
type fakeMigrator struct {
	migrated []string
	errs     map[string]error
	empty    map[string]bool
}

func (f *fakeMigrator) MigrateEntity(_ context.Context, entity *domain.Entity) (*domain.MigrationResult, error) {
	f.migrated = append(f.migrated, entity.ID)

	if err, ok := f.errs[entity.ID]; ok {
		return nil, err
	}

	result := &domain.MigrationResult{EntityID: entity.ID, Attempted: len(entity.PhotoRefs)}
	if !f.empty[entity.ID] {
		result.StoredPhotos = []domain.StoredPhoto{{EntityID: entity.ID, ReferenceID: "ref-1"}}
	}

	return result, nil
}

func pendingEntity(id string) *domain.Entity {
	return &domain.Entity{
		ID:        id,
		Name:      "Entity " + id,
		Type:      domain.EntityTypePlace,
		PhotoRefs: []domain.PhotoReference{{ReferenceID: "ref-1"}},
	}
}

// TestMigrationRunner_RunBatch tests a full batch over the pending queue.
func TestMigrationRunner_RunBatch(t *testing.T) {
	repo := &fakeEntityRepo{pending: []*domain.Entity{
		pendingEntity("e-1"), pendingEntity("e-2"), pendingEntity("e-3"),
	}}
	migrator := &fakeMigrator{}

	runner := NewMigrationRunner(repo, migrator, RunnerConfig{BatchSize: 10}, zap.NewNop())

	result, err := runner.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.MigratedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, 3, result.TotalAttempted)
	assert.False(t, result.HasMore, "queue shorter than batch size means done")
	assert.Equal(t, []string{"e-1", "e-2", "e-3"}, migrator.migrated)
}

// TestMigrationRunner_RunBatch_HasMore tests the has-more signal when the
// selection fills the batch.
func TestMigrationRunner_RunBatch_HasMore(t *testing.T) {
	repo := &fakeEntityRepo{pending: []*domain.Entity{
		pendingEntity("e-1"), pendingEntity("e-2"), pendingEntity("e-3"),
	}}
	migrator := &fakeMigrator{}

	runner := NewMigrationRunner(repo, migrator, RunnerConfig{BatchSize: 2}, zap.NewNop())

	result, err := runner.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalAttempted)
	assert.True(t, result.HasMore)
	assert.Len(t, migrator.migrated, 2)
}

// TestMigrationRunner_RunBatch_Empty tests a drained queue.
func TestMigrationRunner_RunBatch_Empty(t *testing.T) {
	runner := NewMigrationRunner(&fakeEntityRepo{}, &fakeMigrator{}, RunnerConfig{BatchSize: 10}, zap.NewNop())

	result, err := runner.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalAttempted)
	assert.False(t, result.HasMore)
}

// TestMigrationRunner_RunBatch_EntityFailureContinues tests that one failing
// entity does not stop the batch.
func TestMigrationRunner_RunBatch_EntityFailureContinues(t *testing.T) {
	repo := &fakeEntityRepo{pending: []*domain.Entity{
		pendingEntity("e-1"), pendingEntity("e-2"), pendingEntity("e-3"),
	}}
	migrator := &fakeMigrator{errs: map[string]error{"e-2": errors.New("provider unavailable")}}

	runner := NewMigrationRunner(repo, migrator, RunnerConfig{BatchSize: 10}, zap.NewNop())

	result, err := runner.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.MigratedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []string{"e-1", "e-2", "e-3"}, migrator.migrated)
}

// TestMigrationRunner_RunBatch_NoStoredPhotosCountsFailed tests that an
// entity whose every reference failed counts as failed.
func TestMigrationRunner_RunBatch_NoStoredPhotosCountsFailed(t *testing.T) {
	repo := &fakeEntityRepo{pending: []*domain.Entity{pendingEntity("e-1")}}
	migrator := &fakeMigrator{empty: map[string]bool{"e-1": true}}

	runner := NewMigrationRunner(repo, migrator, RunnerConfig{BatchSize: 10}, zap.NewNop())

	result, err := runner.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.MigratedCount)
	assert.Equal(t, 1, result.FailedCount)
}

// TestMigrationRunner_RunBatch_MissingCredentialAborts tests that a missing
// provider credential stops the run instead of failing every entity.
func TestMigrationRunner_RunBatch_MissingCredentialAborts(t *testing.T) {
	repo := &fakeEntityRepo{pending: []*domain.Entity{
		pendingEntity("e-1"), pendingEntity("e-2"),
	}}
	migrator := &fakeMigrator{errs: map[string]error{"e-1": service.ErrSourceNotConfigured}}

	runner := NewMigrationRunner(repo, migrator, RunnerConfig{BatchSize: 10}, zap.NewNop())

	_, err := runner.RunBatch(context.Background())
	require.ErrorIs(t, err, service.ErrSourceNotConfigured)
	assert.Equal(t, []string{"e-1"}, migrator.migrated, "run aborts at the first credential error")
}

// TestMigrationRunner_RunBatch_SelectError tests selection failure.
func TestMigrationRunner_RunBatch_SelectError(t *testing.T) {
	repo := &fakeEntityRepo{selectErr: errors.New("connection refused")}

	runner := NewMigrationRunner(repo, &fakeMigrator{}, RunnerConfig{BatchSize: 10}, zap.NewNop())

	_, err := runner.RunBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selecting pending entities")
}

// TestMigrationRunner_EntityDelay tests pacing between entities.
func TestMigrationRunner_EntityDelay(t *testing.T) {
	repo := &fakeEntityRepo{pending: []*domain.Entity{
		pendingEntity("e-1"), pendingEntity("e-2"), pendingEntity("e-3"),
	}}

	runner := NewMigrationRunner(repo, &fakeMigrator{}, RunnerConfig{
		BatchSize:   10,
		EntityDelay: 30 * time.Millisecond,
	}, zap.NewNop())

	start := time.Now()
	_, err := runner.RunBatch(context.Background())
	require.NoError(t, err)

	// Two inter-entity gaps
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
