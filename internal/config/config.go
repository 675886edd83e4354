package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Persistence
	DatabaseURL string
	RedisURL    string // optional; rate limiting is disabled when empty

	// Auth
	JWTSecret string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key
	AIModel      string // default model for playlist generation

	// AI pipeline limits
	AnalyzeTimeout  time.Duration // per-request budget for the generative call
	RateLimitWindow time.Duration // fixed window for per-user generation attempts
	RateLimitMax    int           // attempts allowed per window (0 disables)

	// Video metadata
	YouTubeAPIKey string

	// Email
	AWSRegion string
	EmailFrom string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
	CloudWatchEnabled bool   // Feature flag for CloudWatch metrics
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", "postgres://localhost:5432/harmonia?sslmode=disable"),
		RedisURL:          getEnv("REDIS_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		AIModel:           getEnv("AI_MODEL", "gpt-5-mini"),
		AnalyzeTimeout:    getEnvDuration("AI_ANALYZE_TIMEOUT", 30*time.Second),
		RateLimitWindow:   getEnvDuration("AI_RATE_LIMIT_WINDOW", time.Hour),
		RateLimitMax:      getEnvInt("AI_RATE_LIMIT_MAX", 20),
		YouTubeAPIKey:     getEnv("YOUTUBE_API_KEY", ""),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		EmailFrom:         getEnv("EMAIL_FROM", "no-reply@harmonia.app"),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		CloudWatchEnabled: getEnv("CLOUDWATCH_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
