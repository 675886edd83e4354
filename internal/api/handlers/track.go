package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/middleware"
	"github.com/harmonia-app/harmonia-api/internal/models"
)

const moodFilterScanLimit = 500

type TrackHandler struct {
	db *gorm.DB
}

func NewTrackHandler(db *gorm.DB) *TrackHandler {
	return &TrackHandler{db: db}
}

// List returns active catalog tracks with optional filtering and sorting.
// Moods live in a JSON column, so the mood filter scans a bounded
// popularity-ordered window and filters in process.
func (h *TrackHandler) List(c *gin.Context) {
	limit, offset := paginationParams(c)

	query := h.db.Model(&models.Track{}).Where("is_active = ?", true)

	if genre := strings.ToLower(strings.TrimSpace(c.Query("genre"))); genre != "" {
		query = query.Where("LOWER(genre) = ?", genre)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(artist) LIKE ?", pattern, pattern)
	}

	switch c.DefaultQuery("sort", sortPopularity) {
	case sortRecent:
		query = query.Order("created_at DESC")
	case sortTitle:
		query = query.Order("title ASC")
	default:
		query = query.Order("popularity DESC, play_count DESC")
	}

	mood := strings.ToLower(strings.TrimSpace(c.Query("mood")))
	if mood != "" {
		var window []models.Track
		if err := query.Limit(moodFilterScanLimit).Find(&window).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tracks"})
			return
		}

		filtered := make([]models.Track, 0, len(window))
		for _, track := range window {
			if track.HasAnyMood([]string{mood}) {
				filtered = append(filtered, track)
			}
		}

		total := len(filtered)
		if offset > total {
			offset = total
		}
		end := offset + limit
		if end > total {
			end = total
		}

		c.JSON(http.StatusOK, gin.H{
			"tracks": filtered[offset:end],
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
		return
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tracks"})
		return
	}

	var tracks []models.Track
	if err := query.Limit(limit).Offset(offset).Find(&tracks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tracks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracks": tracks,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Get returns a single active track by ID
func (h *TrackHandler) Get(c *gin.Context) {
	trackID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	var track models.Track
	if err := h.db.Where("is_active = ?", true).First(&track, trackID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"track": track})
}

type RecordPlayRequest struct {
	SecondsPlayed int `json:"seconds_played"`
}

// RecordPlay registers one playback: bumps the track play counter and appends
// a listening event for the caller
func (h *TrackHandler) RecordPlay(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	trackID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	var req RecordPlayRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var track models.Track
	if err := h.db.Where("is_active = ?", true).First(&track, trackID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	event := models.ListeningEvent{
		UserID:        userID,
		TrackID:       track.ID,
		PlayedAt:      time.Now(),
		SecondsPlayed: req.SecondsPlayed,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Track{}).Where("id = ?", track.ID).
			UpdateColumn("play_count", gorm.Expr("play_count + 1")).Error; err != nil {
			return err
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record play"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// parseIDParam reads a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
