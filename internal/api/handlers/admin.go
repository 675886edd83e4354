package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/models"
	"github.com/harmonia-app/harmonia-api/internal/services"
)

const activeStatusTrue = "true"

type AdminHandler struct {
	db        *gorm.DB
	videoMeta *services.VideoMetadataService
}

func NewAdminHandler(db *gorm.DB, videoMeta *services.VideoMetadataService) *AdminHandler {
	return &AdminHandler{db: db, videoMeta: videoMeta}
}

// ListUsers returns all users, optionally filtered by role or active status
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var users []models.User

	role := c.Query("role")
	isActive := c.Query("is_active")

	query := h.db.Model(&models.User{})

	if role != "" {
		query = query.Where("role = ?", role)
	}

	if isActive != "" {
		query = query.Where("is_active = ?", isActive == activeStatusTrue)
	}

	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateUserRole updates a user's role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=admin user"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Role = req.Role
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully", "user": user})
}

// ToggleUserActive toggles a user's active status
func (h *AdminHandler) ToggleUserActive(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.IsActive = !user.IsActive
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User status updated", "user": user})
}

type CreateTrackRequest struct {
	Title           string   `json:"title" binding:"required,max=200"`
	Artist          string   `json:"artist" binding:"required,max=200"`
	Album           string   `json:"album" binding:"max=200"`
	Genre           string   `json:"genre" binding:"required"`
	Moods           []string `json:"moods"`
	Tags            []string `json:"tags"`
	DurationSeconds int      `json:"duration_seconds" binding:"min=0"`
	Popularity      int      `json:"popularity" binding:"min=0,max=100"`
	YouTubeVideoID  string   `json:"youtube_video_id"`
}

type UpdateTrackRequest struct {
	Title           *string  `json:"title" binding:"omitempty,max=200"`
	Artist          *string  `json:"artist" binding:"omitempty,max=200"`
	Album           *string  `json:"album" binding:"omitempty,max=200"`
	Genre           *string  `json:"genre"`
	Moods           []string `json:"moods"`
	Tags            []string `json:"tags"`
	DurationSeconds *int     `json:"duration_seconds" binding:"omitempty,min=0"`
	Popularity      *int     `json:"popularity" binding:"omitempty,min=0,max=100"`
	IsActive        *bool    `json:"is_active"`
}

// CreateTrack adds a track to the catalog. Unknown moods are rejected so the
// matcher vocabulary stays closed. Video metadata is looked up when no video
// ID is supplied.
func (h *AdminHandler) CreateTrack(c *gin.Context) {
	var req CreateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genre := strings.ToLower(strings.TrimSpace(req.Genre))
	if !models.IsValidGenre(genre) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown genre", "allowed": models.Genres})
		return
	}

	moods := make([]string, 0, len(req.Moods))
	for _, mood := range req.Moods {
		mood = strings.ToLower(strings.TrimSpace(mood))
		if !models.IsValidMood(mood) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown mood: " + mood, "allowed": models.Moods})
			return
		}
		moods = append(moods, mood)
	}

	track := models.Track{
		Title:           req.Title,
		Artist:          req.Artist,
		Album:           req.Album,
		Genre:           genre,
		Moods:           datatypes.NewJSONSlice(moods),
		Tags:            datatypes.NewJSONSlice(req.Tags),
		DurationSeconds: req.DurationSeconds,
		Popularity:      req.Popularity,
		IsActive:        true,
		YouTubeVideoID:  req.YouTubeVideoID,
	}

	if track.YouTubeVideoID == "" && h.videoMeta.Enabled() {
		h.videoMeta.Enrich(c.Request.Context(), &track)
	}

	if err := h.db.Create(&track).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create track"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"track": track})
}

// UpdateTrack modifies catalog track fields, including deactivation
func (h *AdminHandler) UpdateTrack(c *gin.Context) {
	trackID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	var req UpdateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var track models.Track
	if err := h.db.First(&track, trackID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	if req.Title != nil {
		track.Title = *req.Title
	}
	if req.Artist != nil {
		track.Artist = *req.Artist
	}
	if req.Album != nil {
		track.Album = *req.Album
	}
	if req.Genre != nil {
		genre := strings.ToLower(strings.TrimSpace(*req.Genre))
		if !models.IsValidGenre(genre) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown genre", "allowed": models.Genres})
			return
		}
		track.Genre = genre
	}
	if req.Moods != nil {
		moods := make([]string, 0, len(req.Moods))
		for _, mood := range req.Moods {
			mood = strings.ToLower(strings.TrimSpace(mood))
			if !models.IsValidMood(mood) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown mood: " + mood, "allowed": models.Moods})
				return
			}
			moods = append(moods, mood)
		}
		track.Moods = datatypes.NewJSONSlice(moods)
	}
	if req.Tags != nil {
		track.Tags = datatypes.NewJSONSlice(req.Tags)
	}
	if req.DurationSeconds != nil {
		track.DurationSeconds = *req.DurationSeconds
	}
	if req.Popularity != nil {
		track.Popularity = *req.Popularity
	}
	if req.IsActive != nil {
		track.IsActive = *req.IsActive
	}

	if err := h.db.Save(&track).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update track"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"track": track})
}

// DeleteTrack soft-deletes a catalog track
func (h *AdminHandler) DeleteTrack(c *gin.Context) {
	trackID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	var track models.Track
	if err := h.db.First(&track, trackID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	if err := h.db.Delete(&track).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete track"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Track deleted"})
}

// RefreshTrackVideo re-runs the video metadata lookup for a track
func (h *AdminHandler) RefreshTrackVideo(c *gin.Context) {
	trackID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	if !h.videoMeta.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Video metadata lookup is not configured"})
		return
	}

	var track models.Track
	if err := h.db.First(&track, trackID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	h.videoMeta.Enrich(c.Request.Context(), &track)
	if err := h.db.Save(&track).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save track"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"track": track})
}
