package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Playlist is a user-owned, ordered collection of tracks
type Playlist struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OwnerID uint `gorm:"not null;index" json:"owner_id"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"-"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `gorm:"default:false" json:"is_public"`

	IsAIGenerated       bool       `gorm:"default:false" json:"is_ai_generated"`
	GeneratedFromPrompt string     `gorm:"size:500" json:"generated_from_prompt,omitempty"`
	GeneratedAt         *time.Time `json:"generated_at,omitempty"`

	// Derived from constituent tracks; recomputed explicitly on track-set
	// mutation, never inside the persistence write path
	Genres datatypes.JSONSlice[string] `json:"genres"`
	Moods  datatypes.JSONSlice[string] `json:"moods"`

	Tracks []PlaylistTrack `gorm:"foreignKey:PlaylistID" json:"tracks,omitempty"`
}

// PlaylistTrack is one entry in a playlist, ordered by Position
type PlaylistTrack struct {
	ID         uint  `gorm:"primarykey" json:"-"`
	PlaylistID uint  `gorm:"not null;index" json:"-"`
	TrackID    uint  `gorm:"not null" json:"track_id"`
	Track      Track `gorm:"foreignKey:TrackID" json:"track"`
	Position   int   `gorm:"not null" json:"position"`
}

// RecomputeTags rebuilds the playlist's derived genre and mood sets from the
// given tracks. Order of first appearance is preserved.
func (p *Playlist) RecomputeTags(tracks []Track) {
	seenGenres := make(map[string]bool)
	seenMoods := make(map[string]bool)
	genres := make([]string, 0, len(tracks))
	moods := make([]string, 0, len(tracks))

	for _, track := range tracks {
		if track.Genre != "" && !seenGenres[track.Genre] {
			seenGenres[track.Genre] = true
			genres = append(genres, track.Genre)
		}
		for _, mood := range track.Moods {
			if !seenMoods[mood] {
				seenMoods[mood] = true
				moods = append(moods, mood)
			}
		}
	}

	p.Genres = genres
	p.Moods = moods
}
