package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/models"
)

var testDBCounter atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Track{},
		&models.Playlist{},
		&models.PlaylistTrack{},
		&models.GenerationRequest{},
		&models.GenerationRequestTrack{},
		&models.ListeningEvent{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, Name: "Test Listener"}
	if err := user.HashPassword("correct-horse"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCatalogTrack(t *testing.T, db *gorm.DB, title, genre string, moods []string, popularity int) models.Track {
	t.Helper()
	track := models.Track{
		Title:      title,
		Artist:     "Catalog Artist",
		Genre:      genre,
		Moods:      datatypes.NewJSONSlice(moods),
		Popularity: popularity,
		IsActive:   true,
	}
	if err := db.Create(&track).Error; err != nil {
		t.Fatalf("seed track: %v", err)
	}
	return track
}
