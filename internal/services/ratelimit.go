package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harmonia-app/harmonia-api/internal/logger"
)

// RateLimiter bounds per-user generation attempts with a fixed-window counter
// in Redis. It protects the external generative service from abuse; it is a
// policy concern, not a correctness concern of the pipeline.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

// NewRateLimiter creates a limiter. A nil client or non-positive max disables
// limiting entirely.
func NewRateLimiter(client *redis.Client, window time.Duration, max int) *RateLimiter {
	return &RateLimiter{client: client, window: window, max: max}
}

// Allow checks and consumes one attempt for the user in the current window.
// Redis being unavailable fails open with a warning.
func (l *RateLimiter) Allow(ctx context.Context, userID uint) error {
	if l == nil || l.client == nil || l.max <= 0 {
		return nil
	}

	windowStart := time.Now().Truncate(l.window).Unix()
	key := fmt.Sprintf("ai:ratelimit:%d:%d", userID, windowStart)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		logger.Warn("Rate limiter unavailable, failing open", logger.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}

	if count > int64(l.max) {
		return &RateLimitedError{Limit: l.max}
	}
	return nil
}
