package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Track is one catalog entry. Only active tracks are eligible for matching.
type Track struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title  string `gorm:"not null;index" json:"title"`
	Artist string `gorm:"not null;index" json:"artist"`
	Album  string `json:"album,omitempty"`

	Genre string                      `gorm:"index" json:"genre"` // one of the genre vocabulary
	Moods datatypes.JSONSlice[string] `json:"moods"`              // subset of the mood vocabulary
	Tags  datatypes.JSONSlice[string] `json:"tags"`

	DurationSeconds int   `json:"duration_seconds"`
	Popularity      int   `gorm:"default:0;index" json:"popularity"` // 0-100
	PlayCount       int64 `gorm:"default:0" json:"play_count"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`

	// Video-platform metadata, filled best-effort at import time
	YouTubeVideoID string `json:"youtube_video_id,omitempty"`
	ThumbnailURL   string `json:"thumbnail_url,omitempty"`
}

// HasAnyMood reports whether the track declares at least one of the given moods
func (t *Track) HasAnyMood(moods []string) bool {
	for _, want := range moods {
		for _, have := range t.Moods {
			if have == want {
				return true
			}
		}
	}
	return false
}

// MatchesKeyword reports whether the keyword appears case-insensitively in the
// track's title, artist or tags
func (t *Track) MatchesKeyword(keyword string) bool {
	kw := strings.ToLower(keyword)
	if kw == "" {
		return false
	}
	if strings.Contains(strings.ToLower(t.Title), kw) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Artist), kw) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), kw) {
			return true
		}
	}
	return false
}
