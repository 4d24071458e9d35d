package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createEntitiesTable creates the entities table with all indexes.
func createEntitiesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_entities",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS entities (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name VARCHAR(300) NOT NULL,
					type VARCHAR(20) NOT NULL,
					provider_id VARCHAR(50) NOT NULL,
					categories TEXT[] DEFAULT '{}',

					-- Outstanding provider photo references (opaque handles)
					photo_refs JSONB DEFAULT '[]'::jsonb,

					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);",
				"CREATE INDEX IF NOT EXISTS idx_entities_provider_id ON entities(provider_id);",
				"CREATE INDEX IF NOT EXISTS idx_entities_created_at ON entities(created_at);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS entities;").Error
		},
	}
}
