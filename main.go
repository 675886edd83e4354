package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/harmonia-app/harmonia-api/internal/api"
	"github.com/harmonia-app/harmonia-api/internal/config"
	"github.com/harmonia-app/harmonia-api/internal/database"
	"github.com/harmonia-app/harmonia-api/internal/llm"
	"github.com/harmonia-app/harmonia-api/internal/metrics"
	"github.com/harmonia-app/harmonia-api/internal/observability"
	"github.com/harmonia-app/harmonia-api/internal/prompt"
	"github.com/harmonia-app/harmonia-api/internal/services"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "harmonia-api@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize Langfuse for LLM tracing
	observability.InitializeLangfuse(ctx, cfg)

	// Initialize CloudWatch metrics (degrades to no-op when disabled)
	cwMetrics, err := metrics.NewClient(ctx, cfg.Environment, cfg.CloudWatchEnabled)
	if err != nil {
		log.Printf("Failed to initialize CloudWatch metrics: %v", err)
	}

	// Redis client for rate limiting (optional)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL:", err)
		}
		redisClient = redis.NewClient(redisOpts)
	} else {
		log.Println("⚠️  Redis not configured, generation rate limiting disabled")
	}

	// LLM provider for the configured model
	providerFactory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	provider, err := providerFactory.GetProvider(ctx, cfg.AIModel)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to create LLM provider:", err)
	}

	// AI generation pipeline
	genService := services.NewGenerationService(db, services.GenerationServiceOptions{
		Analyzer: prompt.NewAnalyzer(provider, cfg.AIModel, cwMetrics),
		Limiter:  services.NewRateLimiter(redisClient, cfg.RateLimitWindow, cfg.RateLimitMax),
		Metrics:  cwMetrics,
		Model:    cfg.AIModel,
		Timeout:  cfg.AnalyzeTimeout,
	})

	// Video metadata lookup for catalog management
	videoMeta, err := services.NewVideoMetadataService(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		log.Printf("Failed to initialize video metadata service: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(db, cfg, api.RouterDeps{
		GenerationService: genService,
		EmailService:      services.NewEmailService(cfg),
		VideoMetadata:     videoMeta,
		Metrics:           cwMetrics,
	})

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
