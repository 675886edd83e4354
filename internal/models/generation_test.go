package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestKindIsValid(t *testing.T) {
	assert.True(t, KindPlaylistGeneration.IsValid())
	assert.True(t, KindTrackRecommendation.IsValid())
	assert.True(t, KindMoodAnalysis.IsValid())
	assert.False(t, RequestKind("").IsValid())
	assert.False(t, RequestKind("remix").IsValid())
}

func TestLifecycleTransitions(t *testing.T) {
	tests := []struct {
		from    LifecycleState
		to      LifecycleState
		allowed bool
	}{
		{StatePending, StateProcessing, true},
		{StatePending, StateCompleted, true},
		{StatePending, StateFailed, true},
		{StateProcessing, StateCompleted, true},
		{StateProcessing, StateFailed, true},
		{StateProcessing, StatePending, false},
		{StateCompleted, StateProcessing, false},
		{StateCompleted, StateFailed, false},
		{StateFailed, StateCompleted, false},
		{StateFailed, StatePending, false},
		{StateCompleted, StatePending, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestLifecycleIsTerminal(t *testing.T) {
	assert.False(t, StatePending.IsTerminal())
	assert.False(t, StateProcessing.IsTerminal())
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
}

func TestNormalizePrompt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Chill  Vibes!! ", "chill vibes"},
		{"UPBEAT workout MIX", "upbeat workout mix"},
		{"jazz, for (late) nights...", "jazz for late nights"},
		{"  ", ""},
		{"80s синтвейв", "80s синтвейв"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePrompt(tt.in), "input %q", tt.in)
	}
}

func TestNormalizePromptIdempotent(t *testing.T) {
	inputs := []string{
		"Chill  Vibes!! ",
		"Rainy-Day Study Session #2",
		"FOCUS @ work",
	}
	for _, in := range inputs {
		once := NormalizePrompt(in)
		assert.Equal(t, once, NormalizePrompt(once), "input %q", in)
	}
}

func TestSetPrompt(t *testing.T) {
	var r GenerationRequest
	r.SetPrompt("  Relaxing Summer Sunset  ")

	assert.Equal(t, "Relaxing Summer Sunset", r.PromptText)
	assert.Equal(t, "relaxing summer sunset", r.NormalizedPrompt)
}
