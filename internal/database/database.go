package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/models"
)

// Connect opens the Postgres connection used by the API
func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs schema migrations for all persisted models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Track{},
		&models.Playlist{},
		&models.PlaylistTrack{},
		&models.ListeningEvent{},
		&models.GenerationRequest{},
		&models.GenerationRequestTrack{},
	)
}
