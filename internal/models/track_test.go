package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestHasAnyMood(t *testing.T) {
	track := Track{Moods: datatypes.NewJSONSlice([]string{"calm", "peaceful"})}

	assert.True(t, track.HasAnyMood([]string{"calm"}))
	assert.True(t, track.HasAnyMood([]string{"energetic", "peaceful"}))
	assert.False(t, track.HasAnyMood([]string{"energetic"}))
	assert.False(t, track.HasAnyMood(nil))
}

func TestMatchesKeyword(t *testing.T) {
	track := Track{
		Title:  "Sunset Boulevard",
		Artist: "The Night Owls",
		Tags:   datatypes.NewJSONSlice([]string{"summer", "road-trip"}),
	}

	assert.True(t, track.MatchesKeyword("sunset"))
	assert.True(t, track.MatchesKeyword("OWLS"))
	assert.True(t, track.MatchesKeyword("road"))
	assert.False(t, track.MatchesKeyword("winter"))
	assert.False(t, track.MatchesKeyword(""))
}

func TestRecomputeTags(t *testing.T) {
	tracks := []Track{
		{Genre: "jazz", Moods: datatypes.NewJSONSlice([]string{"calm", "nostalgic"})},
		{Genre: "blues", Moods: datatypes.NewJSONSlice([]string{"calm"})},
		{Genre: "jazz", Moods: datatypes.NewJSONSlice([]string{"romantic"})},
		{Genre: "", Moods: nil},
	}

	var playlist Playlist
	playlist.RecomputeTags(tracks)

	assert.Equal(t, []string{"jazz", "blues"}, []string(playlist.Genres))
	assert.Equal(t, []string{"calm", "nostalgic", "romantic"}, []string(playlist.Moods))
}

func TestVocabularyFilters(t *testing.T) {
	assert.True(t, IsValidMood("calm"))
	assert.False(t, IsValidMood("Calm"))
	assert.True(t, IsValidGenre("hip-hop"))
	assert.False(t, IsValidGenre("vaporwave"))

	assert.Equal(t, []string{"calm", "happy"}, FilterMoods([]string{"calm", "brooding", "happy"}))
	assert.Equal(t, []string{"jazz"}, FilterGenres([]string{"jazz", "shoegaze"}))
	assert.Empty(t, FilterMoods(nil))
}
