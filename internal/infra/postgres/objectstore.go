package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"photo-ingest-service/internal/domain"
)

// ObjectStore implements domain.ObjectStore on top of the photo_objects
// table. The deterministic key is the primary key; Put is an ON CONFLICT
// upsert, so re-running a migration for the same reference overwrites the
// object instead of duplicating it.
//
// Public URLs are formed by prefixing the key with the configured base URL;
// the HTTP server serves the bytes back at that path.
type ObjectStore struct {
	db            *gorm.DB
	publicBaseURL string
	logger        *zap.Logger
}

// NewObjectStore creates a postgres-backed object store.
func NewObjectStore(db *gorm.DB, publicBaseURL string, logger *zap.Logger) *ObjectStore {
	return &ObjectStore{
		db:            db,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Put writes the object at key with upsert semantics and returns its stable
// public URL.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	model := &PhotoObjectModel{
		Key:         key,
		Data:        data,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"data", "content_type", "size_bytes", "updated_at",
		}),
	}).Create(model).Error

	if err != nil {
		s.logger.Error("object store put failed",
			zap.String("key", key),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)

		return "", fmt.Errorf("storing object %s: %w", key, err)
	}

	s.logger.Debug("object stored",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
		zap.String("content_type", contentType),
	)

	return s.PublicURL(key), nil
}

// Get returns the object's bytes and content type.
func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var model PhotoObjectModel
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", domain.ErrObjectNotFound
		}

		return nil, "", fmt.Errorf("reading object %s: %w", key, err)
	}

	return model.Data, model.ContentType, nil
}

// PublicURL returns the stable public URL for a key.
func (s *ObjectStore) PublicURL(key string) string {
	return s.publicBaseURL + "/" + key
}
