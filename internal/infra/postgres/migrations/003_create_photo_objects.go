package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createPhotoObjectsTable creates the durable blob store behind stable
// photo URLs.
func createPhotoObjectsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "003_create_photo_objects",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS photo_objects (
					key VARCHAR(600) PRIMARY KEY,
					data BYTEA NOT NULL,
					content_type VARCHAR(100) NOT NULL,
					size_bytes BIGINT DEFAULT 0,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS photo_objects;").Error
		},
	}
}
