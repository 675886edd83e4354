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

type GenerationHandler struct {
	genService *services.GenerationService
	analytics  *services.AnalyticsService
}

func NewGenerationHandler(db *gorm.DB, genService *services.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		genService: genService,
		analytics:  services.NewAnalyticsService(db),
	}
}

type GenerateRequest struct {
	PromptText          string `json:"prompt_text" binding:"required"`
	RequestKind         string `json:"request_kind"` // playlist_generation (default), track_recommendation, mood_analysis
	DesiredPlaylistName string `json:"desired_playlist_name"`
	PersistAsPlaylist   *bool  `json:"persist_as_playlist"` // defaults to true when omitted
}

type RateRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type RegenerateRequest struct {
	PersistAsPlaylist *bool `json:"persist_as_playlist"` // defaults to true when omitted
}

// Generate runs the AI playlist generation pipeline for the caller's prompt
func (h *GenerationHandler) Generate(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := models.RequestKind(req.RequestKind)
	if req.RequestKind != "" && !kind.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request kind"})
		return
	}

	persist := true
	if req.PersistAsPlaylist != nil {
		persist = *req.PersistAsPlaylist
	}

	result, err := h.genService.Generate(c.Request.Context(), services.GenerateInput{
		UserID:              userID,
		PromptText:          req.PromptText,
		Kind:                kind,
		DesiredPlaylistName: req.DesiredPlaylistName,
		PersistAsPlaylist:   persist,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := gin.H{
		"request":  result.Request,
		"criteria": result.Criteria,
		"tracks":   result.Tracks,
	}
	if result.Playlist != nil {
		response["playlist"] = result.Playlist
	}

	c.JSON(http.StatusCreated, response)
}

// History returns the caller's generation requests, newest first
func (h *GenerationHandler) History(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, offset := paginationParams(c)

	requests, total, err := h.genService.Tracker().ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetRequest returns one generation request owned by the caller, with its
// matched tracks
func (h *GenerationHandler) GetRequest(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	requestID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	request, err := h.genService.Tracker().GetOwned(c.Request.Context(), requestID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// Regenerate re-runs a prior request's prompt as a fresh pipeline run
func (h *GenerationHandler) Regenerate(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	requestID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var req RegenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	persist := true
	if req.PersistAsPlaylist != nil {
		persist = *req.PersistAsPlaylist
	}

	result, err := h.genService.Regenerate(c.Request.Context(), userID, requestID, persist)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := gin.H{
		"request":  result.Request,
		"criteria": result.Criteria,
		"tracks":   result.Tracks,
	}
	if result.Playlist != nil {
		response["playlist"] = result.Playlist
	}

	c.JSON(http.StatusCreated, response)
}

// Rate attaches a star rating and optional comment to a prior request
func (h *GenerationHandler) Rate(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	requestID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.genService.Rate(c.Request.Context(), userID, requestID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// Analytics returns aggregate generation insights: popular prompts and
// mood/genre distributions
func (h *GenerationHandler) Analytics(c *gin.Context) {
	limit := 10
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		limit = v
	}

	prompts, err := h.analytics.PopularPrompts(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	distributions, err := h.analytics.MoodGenreDistributions(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"popular_prompts": prompts,
		"moods":           distributions.Moods,
		"genres":          distributions.Genres,
	})
}
