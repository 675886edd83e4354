package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harmonia-app/harmonia-api/internal/models"
	"github.com/harmonia-app/harmonia-api/internal/prompt"
	"github.com/harmonia-app/harmonia-api/internal/services"
)

// respondServiceError translates service-layer errors into HTTP responses.
// Unknown errors get a generic 500 so internals never leak to clients.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var ownershipErr *services.OwnershipError
	var rateLimitedErr *services.RateLimitedError
	var analysisErr *prompt.AnalysisError
	var transitionErr *models.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &ownershipErr):
		c.JSON(http.StatusForbidden, gin.H{"error": ownershipErr.Error()})
	case errors.As(err, &rateLimitedErr):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rateLimitedErr.Error()})
	case errors.As(err, &analysisErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Prompt analysis is temporarily unavailable, please try again"})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
