package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/middleware"
	"github.com/harmonia-app/harmonia-api/internal/models"
	"github.com/harmonia-app/harmonia-api/internal/services"
)

type UserHandler struct {
	db        *gorm.DB
	analytics *services.AnalyticsService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		db:        db,
		analytics: services.NewAnalyticsService(db),
	}
}

// GetProfile returns the current user's profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"name":       user.Name,
			"role":       user.Role,
			"is_active":  user.IsActive,
			"created_at": user.CreatedAt,
		},
	})
}

// GetStats returns listening and generation statistics for the current user
func (h *UserHandler) GetStats(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var playCount int64
	if err := h.db.Model(&models.ListeningEvent{}).Where("user_id = ?", userID).Count(&playCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listening stats"})
		return
	}

	var secondsPlayed int64
	if err := h.db.Model(&models.ListeningEvent{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(seconds_played), 0)").
		Scan(&secondsPlayed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listening stats"})
		return
	}

	var playlistCount int64
	if err := h.db.Model(&models.Playlist{}).Where("owner_id = ?", userID).Count(&playlistCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get playlist stats"})
		return
	}

	generations, err := h.analytics.SuccessCounters(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get generation stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plays":          playCount,
		"seconds_played": secondsPlayed,
		"playlists":      playlistCount,
		"generations":    generations,
	})
}

// GetListeningHistory returns the current user's recent plays, newest first
func (h *UserHandler) GetListeningHistory(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, offset := paginationParams(c)

	var total int64
	if err := h.db.Model(&models.ListeningEvent{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listening history"})
		return
	}

	var events []models.ListeningEvent
	if err := h.db.Where("user_id = ?", userID).
		Preload("Track").
		Order("played_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listening history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// paginationParams reads limit/offset query params with sane bounds
func paginationParams(c *gin.Context) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 && v <= maxPageSize {
		limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
