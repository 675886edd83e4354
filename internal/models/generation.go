package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestKind classifies what a generation request was submitted for
type RequestKind string

const (
	KindPlaylistGeneration  RequestKind = "playlist_generation"
	KindTrackRecommendation RequestKind = "track_recommendation"
	KindMoodAnalysis        RequestKind = "mood_analysis"
)

// IsValid reports whether the kind is one of the supported request kinds
func (k RequestKind) IsValid() bool {
	switch k {
	case KindPlaylistGeneration, KindTrackRecommendation, KindMoodAnalysis:
		return true
	}
	return false
}

// LifecycleState is the processing status of one generation attempt
type LifecycleState string

const (
	StatePending    LifecycleState = "pending"
	StateProcessing LifecycleState = "processing"
	StateCompleted  LifecycleState = "completed"
	StateFailed     LifecycleState = "failed"
)

// CanTransitionTo enforces the forward-only lifecycle state machine:
// pending -> processing -> {completed, failed}, with the processing step
// optionally skipped. Terminal states have no outgoing transitions.
func (s LifecycleState) CanTransitionTo(target LifecycleState) bool {
	switch s {
	case StatePending:
		return target == StateProcessing || target == StateCompleted || target == StateFailed
	case StateProcessing:
		return target == StateCompleted || target == StateFailed
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted
func (s LifecycleState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// InvalidTransitionError is returned when a lifecycle transition violates the
// state machine. It indicates a programming error, not a caller error.
type InvalidTransitionError struct {
	From LifecycleState
	To   LifecycleState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition: %s -> %s", e.From, e.To)
}

// GenerationRequest is one persisted AI generation attempt
type GenerationRequest struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"` // immutable after creation
	User      User      `gorm:"foreignKey:UserID" json:"-"`

	PromptText       string `gorm:"size:500;not null" json:"prompt_text"`
	NormalizedPrompt string `gorm:"index" json:"normalized_prompt"`

	ExtractedMoods    datatypes.JSONSlice[string] `json:"extracted_moods"`
	ExtractedGenres   datatypes.JSONSlice[string] `json:"extracted_genres"`
	ExtractedKeywords datatypes.JSONSlice[string] `json:"extracted_keywords"`
	RawModelOutput    datatypes.JSON              `json:"-"` // stored for audit/debugging

	SuggestedTitle       string `json:"suggested_title,omitempty"`
	SuggestedDescription string `json:"suggested_description,omitempty"`

	MatchedTracks      []GenerationRequestTrack `gorm:"foreignKey:RequestID" json:"matched_tracks,omitempty"`
	ProducedPlaylistID *uint                    `json:"produced_playlist_id,omitempty"`
	ProducedPlaylist   *Playlist                `gorm:"foreignKey:ProducedPlaylistID" json:"-"`

	Kind  RequestKind    `gorm:"type:varchar(32);not null;index" json:"kind"`
	State LifecycleState `gorm:"type:varchar(16);not null;default:'pending';index" json:"state"`

	StartedAt     *time.Time `json:"-"`
	ElapsedMillis int64      `json:"elapsed_millis"`
	FailureReason string     `json:"failure_reason,omitempty"`

	Rating          *int       `json:"rating,omitempty"`
	FeedbackComment string     `gorm:"size:1000" json:"feedback_comment,omitempty"`
	RatedAt         *time.Time `json:"rated_at,omitempty"`

	ReuseCount int        `gorm:"not null;default:1" json:"reuse_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// GenerationRequestTrack is one matched track on a request, ordered by Position
type GenerationRequestTrack struct {
	ID        uint  `gorm:"primarykey" json:"-"`
	RequestID uint  `gorm:"not null;index" json:"-"`
	TrackID   uint  `gorm:"not null" json:"track_id"`
	Track     Track `gorm:"foreignKey:TrackID" json:"track"`
	Position  int   `gorm:"not null" json:"position"`
}

// SetPrompt trims the prompt and rederives the normalized form
func (r *GenerationRequest) SetPrompt(prompt string) {
	r.PromptText = strings.TrimSpace(prompt)
	r.NormalizedPrompt = NormalizePrompt(r.PromptText)
}

// BeforeSave keeps NormalizedPrompt in sync with PromptText on every write
func (r *GenerationRequest) BeforeSave(_ *gorm.DB) error {
	r.NormalizedPrompt = NormalizePrompt(r.PromptText)
	return nil
}

// NormalizePrompt lowercases the prompt, replaces punctuation with spaces and
// collapses whitespace. Used for grouping near-duplicate prompts in analytics.
// Idempotent: NormalizePrompt(NormalizePrompt(s)) == NormalizePrompt(s).
func NormalizePrompt(prompt string) string {
	var b strings.Builder
	b.Grow(len(prompt))
	for _, r := range strings.ToLower(prompt) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
