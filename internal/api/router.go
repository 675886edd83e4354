package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/api/handlers"
	apimiddleware "github.com/harmonia-app/harmonia-api/internal/api/middleware"
	"github.com/harmonia-app/harmonia-api/internal/config"
	"github.com/harmonia-app/harmonia-api/internal/metrics"
	"github.com/harmonia-app/harmonia-api/internal/middleware"
	"github.com/harmonia-app/harmonia-api/internal/services"
)

// RouterDeps carries the shared services the route handlers need
type RouterDeps struct {
	GenerationService *services.GenerationService
	EmailService      *services.EmailService
	VideoMetadata     *services.VideoMetadataService
	Metrics           *metrics.Client
}

func SetupRouter(db *gorm.DB, cfg *config.Config, deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Metrics))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Auth routes (public)
	auth := router.Group("/api/auth")
	{
		authHandler := handlers.NewAuthHandler(db, cfg, deps.EmailService)
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Protected API routes v1 (require JWT)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(db, cfg))
	{
		// User/profile endpoints
		userHandler := handlers.NewUserHandler(db)
		v1.GET("/me", userHandler.GetProfile)
		v1.GET("/me/stats", userHandler.GetStats)
		v1.GET("/me/history", userHandler.GetListeningHistory)

		// Catalog endpoints
		trackHandler := handlers.NewTrackHandler(db)
		v1.GET("/tracks", trackHandler.List)
		v1.GET("/tracks/:id", trackHandler.Get)
		v1.POST("/tracks/:id/play", trackHandler.RecordPlay)

		// Playlist endpoints
		playlistHandler := handlers.NewPlaylistHandler(db)
		v1.POST("/playlists", playlistHandler.Create)
		v1.GET("/playlists", playlistHandler.List)
		v1.GET("/playlists/:id", playlistHandler.Get)
		v1.PUT("/playlists/:id", playlistHandler.Update)
		v1.DELETE("/playlists/:id", playlistHandler.Delete)
		v1.POST("/playlists/:id/tracks", playlistHandler.AddTrack)
		v1.DELETE("/playlists/:id/tracks/:trackId", playlistHandler.RemoveTrack)

		// AI generation endpoints
		generationHandler := handlers.NewGenerationHandler(db, deps.GenerationService)
		v1.POST("/ai/generate", generationHandler.Generate)
		v1.GET("/ai/history", generationHandler.History)
		v1.GET("/ai/requests/:id", generationHandler.GetRequest)
		v1.POST("/ai/requests/:id/regenerate", generationHandler.Regenerate)
		v1.POST("/ai/requests/:id/rate", generationHandler.Rate)
		v1.GET("/ai/analytics", generationHandler.Analytics)
	}

	// Admin API routes (admin only)
	admin := router.Group("/api/admin")
	admin.Use(middleware.JWTAuth(db, cfg), middleware.AdminRequired())
	{
		adminHandler := handlers.NewAdminHandler(db, deps.VideoMetadata)
		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
		admin.PUT("/users/:id/toggle-active", adminHandler.ToggleUserActive)

		admin.POST("/tracks", adminHandler.CreateTrack)
		admin.PUT("/tracks/:id", adminHandler.UpdateTrack)
		admin.DELETE("/tracks/:id", adminHandler.DeleteTrack)
		admin.POST("/tracks/:id/refresh-video", adminHandler.RefreshTrackVideo)
	}

	return router
}
