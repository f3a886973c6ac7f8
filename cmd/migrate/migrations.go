package main

import (
	"gorm.io/gorm"

	"github.com/bimflow/engine/internal/models"
)

// registerModels returns all models that need migration
func registerModels() []interface{} {
	return []interface{}{
		// Projects
		&models.Project{},

		// Delivery plans
		&models.TIDP{},
		&models.Container{},

		// Aggregation
		&models.MIDP{},
		&models.Snapshot{},
	}
}

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB) error {
	models := registerModels()

	// Run AutoMigrate for all models
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}

	// Run custom migrations
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		enableUUIDExtension,
		addContainerIndexes,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

// enableUUIDExtension ensures UUID generation is available
func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// addContainerIndexes adds custom indexes for performance
func addContainerIndexes(db *gorm.DB) error {
	// Dependency resolution looks containers up by their business id
	// within one TIDP set.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_containers_tidp_container_id
		ON containers(tidp_id, container_id)
	`).Error; err != nil {
		return err
	}

	return nil
}
