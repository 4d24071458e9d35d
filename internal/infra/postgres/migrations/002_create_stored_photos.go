package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createStoredPhotosTable creates the stored_photos table.
// The composite primary key (entity_id, reference_id) backs the idempotent
// upsert: a row exists iff the reference was migrated successfully at least
// once.
func createStoredPhotosTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_stored_photos",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS stored_photos (
					entity_id UUID NOT NULL,
					reference_id VARCHAR(300) NOT NULL,
					stored_url TEXT NOT NULL,
					width INTEGER DEFAULT 0,
					height INTEGER DEFAULT 0,
					quality_score INTEGER DEFAULT 0,
					uploaded_at TIMESTAMP NOT NULL,

					PRIMARY KEY (entity_id, reference_id)
				);
			`).Error
			if err != nil {
				return err
			}

			return tx.Exec(
				"CREATE INDEX IF NOT EXISTS idx_stored_photos_entity_id ON stored_photos(entity_id);",
			).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS stored_photos;").Error
		},
	}
}
