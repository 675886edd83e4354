package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmonia-app/harmonia-api/internal/logger"
	"github.com/harmonia-app/harmonia-api/internal/models"
)

// Materializer converts a successful match-set into a persisted playlist
// owned by the requesting user
type Materializer struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMaterializer creates a materializer backed by the given database
func NewMaterializer(db *gorm.DB) *Materializer {
	return &Materializer{db: db, now: time.Now}
}

// Materialize creates a private, AI-flagged playlist from the matched tracks
// and links it back onto the originating request. Name resolution order:
// caller-supplied name, analyzer-suggested title, dated fallback.
//
// Playlist creation, track rows and request linkage run in one transaction.
// If the transaction commits but a later observer finds a playlist without
// request linkage (e.g. after a partial restore), that is a recoverable
// inconsistency to reconcile, not a fatal error.
func (m *Materializer) Materialize(
	ctx context.Context,
	request *models.GenerationRequest,
	tracks []models.Track,
	ownerID uint,
	suggestedName, suggestedDescription string,
) (*models.Playlist, error) {
	if len(tracks) == 0 {
		return nil, &ValidationError{Field: "tracks", Message: "cannot materialize an empty track set"}
	}

	now := m.now()
	playlist := &models.Playlist{
		OwnerID:             ownerID,
		Name:                m.resolveName(request, suggestedName),
		Description:         m.resolveDescription(request, suggestedDescription),
		IsPublic:            false,
		IsAIGenerated:       true,
		GeneratedFromPrompt: request.PromptText,
		GeneratedAt:         &now,
	}
	playlist.RecomputeTags(tracks)

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(playlist).Error; err != nil {
			return err
		}

		entries := make([]models.PlaylistTrack, len(tracks))
		for i, track := range tracks {
			entries[i] = models.PlaylistTrack{
				PlaylistID: playlist.ID,
				TrackID:    track.ID,
				Position:   i,
			}
		}
		if err := tx.Create(&entries).Error; err != nil {
			return err
		}

		request.ProducedPlaylistID = &playlist.ID
		return tx.Omit(clause.Associations).Save(request).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to materialize playlist: %w", err)
	}

	logger.Info("Playlist materialized from generation request", logger.Fields{
		"request_id_db": request.ID,
		"playlist_id":   playlist.ID,
		"track_count":   len(tracks),
	})
	return playlist, nil
}

func (m *Materializer) resolveName(request *models.GenerationRequest, suggestedName string) string {
	if suggestedName != "" {
		return suggestedName
	}
	if request.SuggestedTitle != "" {
		return request.SuggestedTitle
	}
	return fmt.Sprintf("AI Mix %s", m.now().Format("Jan 2, 2006"))
}

func (m *Materializer) resolveDescription(request *models.GenerationRequest, suggestedDescription string) string {
	if suggestedDescription != "" {
		return suggestedDescription
	}
	return request.SuggestedDescription
}
