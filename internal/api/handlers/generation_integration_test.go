package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/models"
	"github.com/harmonia-app/harmonia-api/internal/prompt"
	"github.com/harmonia-app/harmonia-api/internal/services"
)

type cannedAnalyzer struct {
	criteria *prompt.MatchCriteria
}

func (a *cannedAnalyzer) Analyze(_ context.Context, _ string) (*prompt.MatchCriteria, error) {
	return a.criteria, nil
}

// setupGenerationRouter wires the generation endpoint behind a user already
// resolved into the request context
func setupGenerationRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openTestDB(t)

	user := models.User{Email: "listener@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	track := models.Track{
		Title:      "Evening Tide",
		Artist:     "Low Coast",
		Genre:      "ambient",
		Moods:      datatypes.NewJSONSlice([]string{"relaxing"}),
		Popularity: 80,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&track).Error)

	genService := services.NewGenerationService(db, services.GenerationServiceOptions{
		Analyzer: &cannedAnalyzer{criteria: &prompt.MatchCriteria{
			Moods:          []string{"relaxing"},
			Genres:         []string{"ambient"},
			SuggestedTitle: "Golden Hour",
		}},
	})
	handler := NewGenerationHandler(db, genService)

	router := gin.New()
	authed := router.Group("/api/v1")
	authed.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	})
	authed.POST("/ai/generate", handler.Generate)

	return router, db
}

func postGenerate(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/api/v1/ai/generate", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGeneratePersistsPlaylistByDefault(t *testing.T) {
	router, db := setupGenerationRouter(t)

	// persist_as_playlist omitted: the playlist is created
	w := postGenerate(t, router, `{"prompt_text": "relaxing summer sunset"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Contains(t, response, "playlist")

	var playlist models.Playlist
	require.NoError(t, json.Unmarshal(response["playlist"], &playlist))
	assert.Equal(t, "Golden Hour", playlist.Name)
	assert.True(t, playlist.IsAIGenerated)

	var count int64
	require.NoError(t, db.Model(&models.Playlist{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerateExplicitPersistFalse(t *testing.T) {
	router, db := setupGenerationRouter(t)

	w := postGenerate(t, router, `{"prompt_text": "relaxing summer sunset", "persist_as_playlist": false}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotContains(t, response, "playlist")

	var count int64
	require.NoError(t, db.Model(&models.Playlist{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateRejectsUnknownKind(t *testing.T) {
	router, _ := setupGenerationRouter(t)

	w := postGenerate(t, router, `{"prompt_text": "anything", "request_kind": "fortune_telling"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
