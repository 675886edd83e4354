package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmonia-app/harmonia-api/internal/models"
)

const (
	minPromptLength   = 3
	maxPromptLength   = 500
	maxCommentLength  = 1000
	minFeedbackRating = 1
	maxFeedbackRating = 5
)

// RequestTracker persists generation requests and enforces their lifecycle
// state machine. Every mutation is written through immediately.
type RequestTracker struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRequestTracker creates a tracker backed by the given database
func NewRequestTracker(db *gorm.DB) *RequestTracker {
	return &RequestTracker{db: db, now: time.Now}
}

// Create validates the prompt, normalizes it and persists a new request in
// the pending state, owned by the submitting user.
func (t *RequestTracker) Create(ctx context.Context, userID uint, promptText string, kind models.RequestKind) (*models.GenerationRequest, error) {
	trimmed := strings.TrimSpace(promptText)
	if len(trimmed) < minPromptLength {
		return nil, &ValidationError{Field: "prompt_text", Message: fmt.Sprintf("must be at least %d characters", minPromptLength)}
	}
	if len(trimmed) > maxPromptLength {
		return nil, &ValidationError{Field: "prompt_text", Message: fmt.Sprintf("must be at most %d characters", maxPromptLength)}
	}
	if kind == "" {
		kind = models.KindPlaylistGeneration
	}
	if !kind.IsValid() {
		return nil, &ValidationError{Field: "request_kind", Message: "unknown request kind"}
	}

	request := &models.GenerationRequest{
		UserID:     userID,
		Kind:       kind,
		State:      models.StatePending,
		ReuseCount: 1,
	}
	request.SetPrompt(trimmed)

	if err := t.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// Transition advances the request's lifecycle state and persists immediately.
// Transitions are forward-only; moving out of a terminal state returns an
// InvalidTransitionError. Transitioning to failed requires a non-empty reason.
func (t *RequestTracker) Transition(ctx context.Context, request *models.GenerationRequest, target models.LifecycleState, reason string) error {
	if !request.State.CanTransitionTo(target) {
		return &models.InvalidTransitionError{From: request.State, To: target}
	}

	now := t.now()
	switch target {
	case models.StateProcessing:
		request.StartedAt = &now

	case models.StateCompleted, models.StateFailed:
		if request.StartedAt != nil {
			elapsed := now.Sub(*request.StartedAt).Milliseconds()
			if elapsed < 1 {
				elapsed = 1 // sub-millisecond attempts still count as processed
			}
			request.ElapsedMillis = elapsed
		}
		if target == models.StateFailed {
			if strings.TrimSpace(reason) == "" {
				return &ValidationError{Field: "failure_reason", Message: "required when failing a request"}
			}
			request.FailureReason = reason
		}
	}

	request.State = target
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(request).Error
}

// RecordFeedback attaches a rating and optional comment to the request,
// overwriting any prior feedback. Last write wins; no audit trail is kept.
func (t *RequestTracker) RecordFeedback(ctx context.Context, request *models.GenerationRequest, rating int, comment string) error {
	if rating < minFeedbackRating || rating > maxFeedbackRating {
		return &ValidationError{Field: "rating", Message: fmt.Sprintf("must be between %d and %d", minFeedbackRating, maxFeedbackRating)}
	}
	if len(comment) > maxCommentLength {
		return &ValidationError{Field: "comment", Message: fmt.Sprintf("must be at most %d characters", maxCommentLength)}
	}

	now := t.now()
	request.Rating = &rating
	request.FeedbackComment = comment
	request.RatedAt = &now
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(request).Error
}

// MarkReused bumps the reuse counter and last-used timestamp without touching
// the lifecycle state
func (t *RequestTracker) MarkReused(ctx context.Context, request *models.GenerationRequest) error {
	now := t.now()
	request.ReuseCount++
	request.LastUsedAt = &now
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(request).Error
}

// GetOwned loads a request and verifies the caller owns it
func (t *RequestTracker) GetOwned(ctx context.Context, requestID, userID uint) (*models.GenerationRequest, error) {
	var request models.GenerationRequest
	err := t.db.WithContext(ctx).
		Preload("MatchedTracks", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("MatchedTracks.Track").
		First(&request, requestID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "generation request", ID: requestID}
		}
		return nil, err
	}
	if request.UserID != userID {
		return nil, &OwnershipError{Resource: "generation request", ID: requestID}
	}
	return &request, nil
}

// ListByUser returns the user's requests ordered by recency
func (t *RequestTracker) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.GenerationRequest, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := t.db.WithContext(ctx).Model(&models.GenerationRequest{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.GenerationRequest
	err := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// CompletedWithResults returns completed requests that matched at least one
// track, ordered by recency
func (t *RequestTracker) CompletedWithResults(ctx context.Context, limit int) ([]models.GenerationRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	var requests []models.GenerationRequest
	err := t.db.WithContext(ctx).
		Where("state = ?", models.StateCompleted).
		Where("EXISTS (SELECT 1 FROM generation_request_tracks WHERE generation_request_tracks.request_id = generation_requests.id)").
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}
