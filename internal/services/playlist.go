package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmonia-app/harmonia-api/internal/models"
)

// PlaylistService owns playlist CRUD and keeps the derived genre/mood tags in
// step with the track set. Recomputation is an explicit step triggered on
// track-set mutation, never a side effect of an unrelated save.
type PlaylistService struct {
	db *gorm.DB
}

// NewPlaylistService creates the playlist service
func NewPlaylistService(db *gorm.DB) *PlaylistService {
	return &PlaylistService{db: db}
}

// Create persists a new empty playlist for the owner
func (s *PlaylistService) Create(ctx context.Context, ownerID uint, name, description string, isPublic bool) (*models.Playlist, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	playlist := &models.Playlist{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		IsPublic:    isPublic,
	}
	if err := s.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return nil, err
	}
	return playlist, nil
}

// GetVisible loads a playlist the viewer may see: their own, or any public one
func (s *PlaylistService) GetVisible(ctx context.Context, playlistID, viewerID uint) (*models.Playlist, error) {
	playlist, err := s.get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.OwnerID != viewerID && !playlist.IsPublic {
		return nil, &NotFoundError{Resource: "playlist", ID: playlistID}
	}
	return playlist, nil
}

// GetOwned loads a playlist and verifies the caller owns it
func (s *PlaylistService) GetOwned(ctx context.Context, playlistID, userID uint) (*models.Playlist, error) {
	playlist, err := s.get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.OwnerID != userID {
		return nil, &OwnershipError{Resource: "playlist", ID: playlistID}
	}
	return playlist, nil
}

// ListByOwner returns the user's playlists ordered by recency
func (s *PlaylistService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Playlist, error) {
	var playlists []models.Playlist
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&playlists).Error
	return playlists, err
}

// Update changes playlist metadata (not its track set)
func (s *PlaylistService) Update(ctx context.Context, playlistID, userID uint, name, description *string, isPublic *bool) (*models.Playlist, error) {
	playlist, err := s.GetOwned(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" {
			return nil, &ValidationError{Field: "name", Message: "must not be empty"}
		}
		playlist.Name = *name
	}
	if description != nil {
		playlist.Description = *description
	}
	if isPublic != nil {
		playlist.IsPublic = *isPublic
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(playlist).Error; err != nil {
		return nil, err
	}
	return playlist, nil
}

// Delete removes a playlist owned by the caller along with its track rows
func (s *PlaylistService) Delete(ctx context.Context, playlistID, userID uint) error {
	playlist, err := s.GetOwned(ctx, playlistID, userID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlist.ID).Delete(&models.PlaylistTrack{}).Error; err != nil {
			return err
		}
		return tx.Delete(playlist).Error
	})
}

// AddTrack appends a track to the playlist and recomputes the derived tags
func (s *PlaylistService) AddTrack(ctx context.Context, playlistID, userID, trackID uint) (*models.Playlist, error) {
	playlist, err := s.GetOwned(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}

	var track models.Track
	if err := s.db.WithContext(ctx).First(&track, trackID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "track", ID: trackID}
		}
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PlaylistTrack{}).Where("playlist_id = ?", playlist.ID).Count(&count).Error; err != nil {
			return err
		}
		entry := models.PlaylistTrack{
			PlaylistID: playlist.ID,
			TrackID:    track.ID,
			Position:   int(count),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return s.recomputeTags(tx, playlist)
	})
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

// RemoveTrack drops a track from the playlist, compacts positions and
// recomputes the derived tags
func (s *PlaylistService) RemoveTrack(ctx context.Context, playlistID, userID, trackID uint) (*models.Playlist, error) {
	playlist, err := s.GetOwned(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ? AND track_id = ?", playlist.ID, trackID).
			Delete(&models.PlaylistTrack{}).Error; err != nil {
			return err
		}

		var entries []models.PlaylistTrack
		if err := tx.Where("playlist_id = ?", playlist.ID).Order("position ASC").Find(&entries).Error; err != nil {
			return err
		}
		for i := range entries {
			if entries[i].Position != i {
				entries[i].Position = i
				if err := tx.Save(&entries[i]).Error; err != nil {
					return err
				}
			}
		}
		return s.recomputeTags(tx, playlist)
	})
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

func (s *PlaylistService) get(ctx context.Context, playlistID uint) (*models.Playlist, error) {
	var playlist models.Playlist
	err := s.db.WithContext(ctx).
		Preload("Tracks", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Tracks.Track").
		First(&playlist, playlistID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "playlist", ID: playlistID}
		}
		return nil, err
	}
	return &playlist, nil
}

func (s *PlaylistService) recomputeTags(tx *gorm.DB, playlist *models.Playlist) error {
	var tracks []models.Track
	err := tx.
		Joins("JOIN playlist_tracks ON playlist_tracks.track_id = tracks.id").
		Where("playlist_tracks.playlist_id = ?", playlist.ID).
		Order("playlist_tracks.position ASC").
		Find(&tracks).Error
	if err != nil {
		return err
	}
	playlist.RecomputeTags(tracks)
	return tx.Omit(clause.Associations).Save(playlist).Error
}
