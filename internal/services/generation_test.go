package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/models"
	"github.com/harmonia-app/harmonia-api/internal/prompt"
)

// stubAnalyzer is a canned-response implementation of the analysis step
type stubAnalyzer struct {
	criteria *prompt.MatchCriteria
	err      error
	calls    int
}

func (a *stubAnalyzer) Analyze(_ context.Context, _ string) (*prompt.MatchCriteria, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.criteria, nil
}

func sunsetCriteria() *prompt.MatchCriteria {
	return &prompt.MatchCriteria{
		Moods:                []string{"relaxing", "calm"},
		Genres:               []string{"ambient"},
		Keywords:             []string{"sunset", "summer"},
		SuggestedTitle:       "Golden Hour",
		SuggestedDescription: "Warm tracks for winding down.",
		Raw:                  json.RawMessage(`{"moods":["relaxing","calm"]}`),
	}
}

func seedSunsetCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	seedCatalogTrack(t, db, "Evening Tide", "ambient", []string{"relaxing"}, 80)
	seedCatalogTrack(t, db, "Golden Skies", "ambient", []string{"calm", "peaceful"}, 75)
	seedCatalogTrack(t, db, "Sunset Drive", "electronic", []string{"energetic"}, 70)
	seedCatalogTrack(t, db, "Summer Rain", "pop", []string{"nostalgic"}, 65)
	seedCatalogTrack(t, db, "Still Water", "ambient", []string{"calm"}, 60)
	seedCatalogTrack(t, db, "Beach Walk", "folk", []string{"relaxing"}, 55)
	seedCatalogTrack(t, db, "Thrash Hour", "metal", []string{"angry"}, 90)
	seedCatalogTrack(t, db, "Focus Grind", "electronic", []string{"motivational"}, 85)
	seedCatalogTrack(t, db, "Country Road", "country", []string{"happy"}, 50)
	seedCatalogTrack(t, db, "Deep Night", "ambient", []string{"melancholic"}, 45)
}

func TestGenerateEndToEnd(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "listener@example.com")
	seedSunsetCatalog(t, db)

	analyzer := &stubAnalyzer{criteria: sunsetCriteria()}
	svc := NewGenerationService(db, GenerationServiceOptions{
		Analyzer: analyzer,
		Model:    "gpt-5-mini",
	})

	result, err := svc.Generate(context.Background(), GenerateInput{
		UserID:            user.ID,
		PromptText:        "relaxing summer sunset",
		PersistAsPlaylist: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	request := result.Request
	assert.Equal(t, models.StateCompleted, request.State)
	assert.Equal(t, "relaxing summer sunset", request.PromptText)
	assert.Greater(t, request.ElapsedMillis, int64(0))
	assert.Equal(t, []string{"relaxing", "calm"}, []string(request.ExtractedMoods))
	assert.Equal(t, "Golden Hour", request.SuggestedTitle)
	assert.NotEmpty(t, result.Tracks)

	// matched tracks are persisted in order
	var entries []models.GenerationRequestTrack
	require.NoError(t, db.Where("request_id = ?", request.ID).Order("position ASC").Find(&entries).Error)
	assert.Len(t, entries, len(result.Tracks))
	for i, entry := range entries {
		assert.Equal(t, i, entry.Position)
		assert.Equal(t, result.Tracks[i].ID, entry.TrackID)
	}

	// playlist was materialized, linked and flagged
	require.NotNil(t, result.Playlist)
	assert.Equal(t, "Golden Hour", result.Playlist.Name)
	assert.True(t, result.Playlist.IsAIGenerated)
	assert.False(t, result.Playlist.IsPublic)
	assert.Equal(t, "relaxing summer sunset", result.Playlist.GeneratedFromPrompt)
	require.NotNil(t, request.ProducedPlaylistID)
	assert.Equal(t, result.Playlist.ID, *request.ProducedPlaylistID)
}

func TestGenerateWithoutPersist(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "listener@example.com")
	seedSunsetCatalog(t, db)

	svc := NewGenerationService(db, GenerationServiceOptions{
		Analyzer: &stubAnalyzer{criteria: sunsetCriteria()},
	})

	result, err := svc.Generate(context.Background(), GenerateInput{
		UserID:     user.ID,
		PromptText: "relaxing summer sunset",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Playlist)

	var playlistCount int64
	require.NoError(t, db.Model(&models.Playlist{}).Count(&playlistCount).Error)
	assert.Zero(t, playlistCount)
}

func TestGenerateEmptyCatalogStillCompletes(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "listener@example.com")

	svc := NewGenerationService(db, GenerationServiceOptions{
		Analyzer: &stubAnalyzer{criteria: sunsetCriteria()},
	})

	result, err := svc.Generate(context.Background(), GenerateInput{
		UserID:            user.ID,
		PromptText:        "relaxing summer sunset",
		PersistAsPlaylist: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StateCompleted, result.Request.State)
	assert.Empty(t, result.Tracks)
	// nothing to materialize from an empty match set
	assert.Nil(t, result.Playlist)
}

func TestGenerateAnalysisFailureMarksRequestFailed(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "listener@example.com")

	analysisErr := &prompt.AnalysisError{Kind: prompt.FailureTransport, Err: errors.New("connection refused")}
	svc := NewGenerationService(db, GenerationServiceOptions{
		Analyzer: &stubAnalyzer{err: analysisErr},
	})

	_, err := svc.Generate(context.Background(), GenerateInput{
		UserID:     user.ID,
		PromptText: "doomed prompt",
	})
	require.Error(t, err)

	var gotErr *prompt.AnalysisError
	require.ErrorAs(t, err, &gotErr)
	assert.Equal(t, prompt.FailureTransport, gotErr.Kind)

	// the record landed in failed with a reason, never stuck in processing
	var stored models.GenerationRequest
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
	assert.Equal(t, models.StateFailed, stored.State)
	assert.Contains(t, stored.FailureReason, "prompt analysis failed")
	assert.Greater(t, stored.ElapsedMillis, int64(0))
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "listener@example.com")

	analyzer := &stubAnalyzer{criteria: sunsetCriteria()}
	svc := NewGenerationService(db, GenerationServiceOptions{Analyzer: analyzer})
	ctx := context.Background()

	var validationErr *ValidationError

	_, err := svc.Generate(ctx, GenerateInput{UserID: user.ID, PromptText: "ab"})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Generate(ctx, GenerateInput{
		UserID:              user.ID,
		PromptText:          "valid prompt",
		DesiredPlaylistName: strings.Repeat("n", 101),
	})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "desired_playlist_name", validationErr.Field)

	// rejected calls never reach the provider and persist nothing
	assert.Zero(t, analyzer.calls)
	var count int64
	require.NoError(t, db.Model(&models.GenerationRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegenerateCreatesFreshRequest(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "listener@example.com")
	seedSunsetCatalog(t, db)

	svc := NewGenerationService(db, GenerationServiceOptions{
		Analyzer: &stubAnalyzer{criteria: sunsetCriteria()},
	})
	ctx := context.Background()

	first, err := svc.Generate(ctx, GenerateInput{
		UserID:     user.ID,
		PromptText: "relaxing summer sunset",
	})
	require.NoError(t, err)

	second, err := svc.Regenerate(ctx, user.ID, first.Request.ID, false)
	require.NoError(t, err)

	assert.NotEqual(t, first.Request.ID, second.Request.ID)
	assert.Equal(t, first.Request.PromptText, second.Request.PromptText)

	// reuse bookkeeping lands on the original
	var original models.GenerationRequest
	require.NoError(t, db.First(&original, first.Request.ID).Error)
	assert.Equal(t, 2, original.ReuseCount)
	assert.NotNil(t, original.LastUsedAt)

	var fresh models.GenerationRequest
	require.NoError(t, db.First(&fresh, second.Request.ID).Error)
	assert.Equal(t, 1, fresh.ReuseCount)
}

func TestRegenerateEnforcesOwnership(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	intruder := seedUser(t, db, "intruder@example.com")

	svc := NewGenerationService(db, GenerationServiceOptions{
		Analyzer: &stubAnalyzer{criteria: sunsetCriteria()},
	})
	ctx := context.Background()

	result, err := svc.Generate(ctx, GenerateInput{UserID: owner.ID, PromptText: "mine alone"})
	require.NoError(t, err)

	var ownershipErr *OwnershipError
	_, err = svc.Regenerate(ctx, intruder.ID, result.Request.ID, false)
	require.ErrorAs(t, err, &ownershipErr)
}

func TestRateRequest(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "listener@example.com")

	svc := NewGenerationService(db, GenerationServiceOptions{
		Analyzer: &stubAnalyzer{criteria: sunsetCriteria()},
	})
	ctx := context.Background()

	result, err := svc.Generate(ctx, GenerateInput{UserID: user.ID, PromptText: "rate this mix"})
	require.NoError(t, err)

	rated, err := svc.Rate(ctx, user.ID, result.Request.ID, 5, "loved it")
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)
	assert.Equal(t, "loved it", rated.FeedbackComment)

	var validationErr *ValidationError
	_, err = svc.Rate(ctx, user.ID, result.Request.ID, 9, "")
	require.ErrorAs(t, err, &validationErr)
}

