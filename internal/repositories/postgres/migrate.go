package postgres

import (
	"gorm.io/gorm"

	"github.com/yoockh/careerguide/internal/models"
)

// AutoMigrateAll enables pgvector and creates or updates every table.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&models.Document{},
		&models.Conversation{},
		&models.ConversationHistory{},
		&models.IngestionRun{},
	)
}
