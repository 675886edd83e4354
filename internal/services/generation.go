package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmonia-app/harmonia-api/internal/logger"
	"github.com/harmonia-app/harmonia-api/internal/matcher"
	"github.com/harmonia-app/harmonia-api/internal/metrics"
	"github.com/harmonia-app/harmonia-api/internal/models"
	"github.com/harmonia-app/harmonia-api/internal/prompt"
)

const maxPlaylistNameLength = 100

// PromptAnalyzer is the analysis step of the pipeline
type PromptAnalyzer interface {
	Analyze(ctx context.Context, promptText string) (*prompt.MatchCriteria, error)
}

// TrackMatcher is the catalog search step of the pipeline
type TrackMatcher interface {
	Match(ctx context.Context, criteria *prompt.MatchCriteria, targetCount int) ([]models.Track, error)
}

// GenerationService runs the AI playlist generation pipeline: analyze the
// prompt, match tracks, track the request lifecycle, optionally materialize a
// playlist. Each invocation is one sequential unit of work; concurrent
// invocations share nothing in process beyond the persisted records.
type GenerationService struct {
	db           *gorm.DB
	tracker      *RequestTracker
	analyzer     PromptAnalyzer
	matcher      TrackMatcher
	materializer *Materializer
	limiter      *RateLimiter
	metrics      *metrics.Client
	model        string
	timeout      time.Duration
}

// GenerationServiceOptions bundles the pipeline collaborators
type GenerationServiceOptions struct {
	Analyzer PromptAnalyzer
	Matcher  TrackMatcher
	Limiter  *RateLimiter
	Metrics  *metrics.Client
	Model    string
	Timeout  time.Duration
}

// NewGenerationService wires the pipeline against a database
func NewGenerationService(db *gorm.DB, opts GenerationServiceOptions) *GenerationService {
	if opts.Matcher == nil {
		opts.Matcher = matcher.New(db)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &GenerationService{
		db:           db,
		tracker:      NewRequestTracker(db),
		analyzer:     opts.Analyzer,
		matcher:      opts.Matcher,
		materializer: NewMaterializer(db),
		limiter:      opts.Limiter,
		metrics:      opts.Metrics,
		model:        opts.Model,
		timeout:      opts.Timeout,
	}
}

// Tracker exposes the lifecycle tracker for callers that need the query surface
func (s *GenerationService) Tracker() *RequestTracker {
	return s.tracker
}

// GenerateInput is one submission of the pipeline
type GenerateInput struct {
	UserID              uint
	PromptText          string
	Kind                models.RequestKind
	DesiredPlaylistName string
	PersistAsPlaylist   bool
}

// GenerateResult is the outcome of one completed pipeline run
type GenerateResult struct {
	Request  *models.GenerationRequest
	Criteria *prompt.MatchCriteria
	Tracks   []models.Track
	Playlist *models.Playlist
}

// Generate runs the full pipeline for one prompt. Validation failures reject
// the call before any record exists. Analysis failures land the record in the
// failed state and propagate; a match-set of any size, including empty, is a
// completed request.
func (s *GenerationService) Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error) {
	if len(input.DesiredPlaylistName) > maxPlaylistNameLength {
		return nil, &ValidationError{Field: "desired_playlist_name", Message: fmt.Sprintf("must be at most %d characters", maxPlaylistNameLength)}
	}

	if err := s.limiter.Allow(ctx, input.UserID); err != nil {
		return nil, err
	}

	request, err := s.tracker.Create(ctx, input.UserID, input.PromptText, input.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.tracker.Transition(ctx, request, models.StateProcessing, ""); err != nil {
		return nil, err
	}

	started := time.Now()

	analyzeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	criteria, err := s.analyzer.Analyze(analyzeCtx, request.PromptText)
	cancel()
	if err != nil {
		s.fail(ctx, request, fmt.Sprintf("prompt analysis failed: %v", err))
		s.recordMetrics(ctx, "failed", time.Since(started))
		return nil, err
	}

	request.ExtractedMoods = datatypes.NewJSONSlice(criteria.Moods)
	request.ExtractedGenres = datatypes.NewJSONSlice(criteria.Genres)
	request.ExtractedKeywords = datatypes.NewJSONSlice(criteria.Keywords)
	request.RawModelOutput = datatypes.JSON(criteria.Raw)
	request.SuggestedTitle = criteria.SuggestedTitle
	request.SuggestedDescription = criteria.SuggestedDescription

	tracks, err := s.matcher.Match(ctx, criteria, matcher.DefaultTargetCount)
	if err != nil {
		s.fail(ctx, request, fmt.Sprintf("track matching failed: %v", err))
		s.recordMetrics(ctx, "failed", time.Since(started))
		return nil, err
	}

	if err := s.storeMatches(ctx, request, tracks); err != nil {
		s.fail(ctx, request, fmt.Sprintf("failed to store matches: %v", err))
		s.recordMetrics(ctx, "failed", time.Since(started))
		return nil, err
	}

	// Few or zero matched tracks is still a completed request: "no content
	// found" is not a pipeline failure.
	if err := s.tracker.Transition(ctx, request, models.StateCompleted, ""); err != nil {
		return nil, err
	}
	s.recordMetrics(ctx, "completed", time.Since(started))

	result := &GenerateResult{Request: request, Criteria: criteria, Tracks: tracks}

	if input.PersistAsPlaylist && len(tracks) > 0 {
		playlist, err := s.materializer.Materialize(ctx, request, tracks, input.UserID, input.DesiredPlaylistName, "")
		if err != nil {
			// Recoverable inconsistency: the request is completed and its
			// matches are stored; only the playlist linkage is missing.
			logger.Error("Playlist materialization failed after completion", err, logger.Fields{
				"request_id_db": request.ID,
				"user_id":       input.UserID,
			})
		} else {
			result.Playlist = playlist
		}
	}

	logger.Info("Generation pipeline finished", logger.Fields{
		"request_id_db": request.ID,
		"user_id":       input.UserID,
		"track_count":   len(tracks),
		"elapsed_ms":    request.ElapsedMillis,
	})
	return result, nil
}

// Regenerate re-runs the pipeline with the stored prompt of a prior request
// owned by the caller. The re-run is a fresh request record; reuse bookkeeping
// lands on the original.
func (s *GenerationService) Regenerate(ctx context.Context, userID, requestID uint, persistAsPlaylist bool) (*GenerateResult, error) {
	original, err := s.tracker.GetOwned(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.tracker.MarkReused(ctx, original); err != nil {
		return nil, err
	}

	return s.Generate(ctx, GenerateInput{
		UserID:            userID,
		PromptText:        original.PromptText,
		Kind:              original.Kind,
		PersistAsPlaylist: persistAsPlaylist,
	})
}

// Rate attaches feedback to a prior request owned by the caller
func (s *GenerationService) Rate(ctx context.Context, userID, requestID uint, rating int, comment string) (*models.GenerationRequest, error) {
	request, err := s.tracker.GetOwned(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.tracker.RecordFeedback(ctx, request, rating, comment); err != nil {
		return nil, err
	}
	return request, nil
}

// fail moves the record to the failed state even when the caller's context is
// already cancelled; a record must never be left stuck in processing.
func (s *GenerationService) fail(ctx context.Context, request *models.GenerationRequest, reason string) {
	failCtx := context.WithoutCancel(ctx)
	if err := s.tracker.Transition(failCtx, request, models.StateFailed, reason); err != nil {
		logger.Error("Failed to mark generation request as failed", err, logger.Fields{
			"request_id_db": request.ID,
			"reason":        reason,
		})
	}
}

func (s *GenerationService) storeMatches(ctx context.Context, request *models.GenerationRequest, tracks []models.Track) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(request).Error; err != nil {
			return err
		}
		if len(tracks) == 0 {
			return nil
		}
		entries := make([]models.GenerationRequestTrack, len(tracks))
		for i, track := range tracks {
			entries[i] = models.GenerationRequestTrack{
				RequestID: request.ID,
				TrackID:   track.ID,
				Position:  i,
			}
		}
		return tx.Create(&entries).Error
	})
}

var sentryMetrics = metrics.NewSentryMetrics()

func (s *GenerationService) recordMetrics(ctx context.Context, outcome string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordGeneration(s.model, outcome, duration)
	}
	sentryMetrics.RecordGeneration(ctx, s.model, outcome, duration)
}
