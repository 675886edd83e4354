package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/models"
)

// AnalyticsService answers read-only aggregate questions over generation
// requests. It never mutates state.
type AnalyticsService struct {
	db      *gorm.DB
	tracker *RequestTracker
}

// NewAnalyticsService creates the analytics query surface
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db, tracker: NewRequestTracker(db)}
}

// PromptStat is one normalized prompt with its usage weight and rating
type PromptStat struct {
	NormalizedPrompt string   `json:"normalized_prompt"`
	Weight           int64    `json:"weight"` // request count weighted by reuse
	Requests         int64    `json:"requests"`
	AverageRating    *float64 `json:"average_rating,omitempty"`
}

// PopularPrompts returns the most frequent normalized prompts, weighted by
// reuse count, with their average rating
func (s *AnalyticsService) PopularPrompts(ctx context.Context, limit int) ([]PromptStat, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var stats []PromptStat
	err := s.db.WithContext(ctx).
		Model(&models.GenerationRequest{}).
		Select("normalized_prompt, SUM(reuse_count) AS weight, COUNT(*) AS requests, AVG(rating) AS average_rating").
		Where("normalized_prompt <> ''").
		Group("normalized_prompt").
		Order("weight DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

// TagStat is the occurrence count and average rating for one mood or genre
type TagStat struct {
	Value         string   `json:"value"`
	Count         int      `json:"count"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// Distributions holds per-mood and per-genre aggregates among completed
// requests that produced results
type Distributions struct {
	Moods  []TagStat `json:"moods"`
	Genres []TagStat `json:"genres"`
}

// MoodGenreDistributions aggregates extracted moods and genres across
// completed-with-results requests. Extracted values live in JSON columns, so
// the aggregation happens in process over a bounded recent window.
func (s *AnalyticsService) MoodGenreDistributions(ctx context.Context) (*Distributions, error) {
	requests, err := s.tracker.CompletedWithResults(ctx, 1000)
	if err != nil {
		return nil, err
	}

	moods := newTagAggregator()
	genres := newTagAggregator()
	for i := range requests {
		request := &requests[i]
		moods.add(request.ExtractedMoods, request.Rating)
		genres.add(request.ExtractedGenres, request.Rating)
	}

	return &Distributions{
		Moods:  moods.stats(models.Moods),
		Genres: genres.stats(models.Genres),
	}, nil
}

// UserCounters summarizes one user's generation outcomes
type UserCounters struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// SuccessCounters returns per-user generation outcome counts
func (s *AnalyticsService) SuccessCounters(ctx context.Context, userID uint) (*UserCounters, error) {
	counters := &UserCounters{}
	base := s.db.WithContext(ctx).Model(&models.GenerationRequest{}).Where("user_id = ?", userID)

	if err := base.Session(&gorm.Session{}).Count(&counters.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("state = ?", models.StateCompleted).Count(&counters.Completed).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("state = ?", models.StateFailed).Count(&counters.Failed).Error; err != nil {
		return nil, err
	}
	return counters, nil
}

type tagAggregator struct {
	counts  map[string]int
	ratings map[string][]int
}

func newTagAggregator() *tagAggregator {
	return &tagAggregator{
		counts:  make(map[string]int),
		ratings: make(map[string][]int),
	}
}

func (a *tagAggregator) add(values []string, rating *int) {
	for _, value := range values {
		a.counts[value]++
		if rating != nil {
			a.ratings[value] = append(a.ratings[value], *rating)
		}
	}
}

// stats emits aggregates in vocabulary order, skipping unseen values
func (a *tagAggregator) stats(vocabulary []string) []TagStat {
	result := make([]TagStat, 0, len(a.counts))
	for _, value := range vocabulary {
		count, seen := a.counts[value]
		if !seen {
			continue
		}
		stat := TagStat{Value: value, Count: count}
		if ratings := a.ratings[value]; len(ratings) > 0 {
			sum := 0
			for _, r := range ratings {
				sum += r
			}
			avg := float64(sum) / float64(len(ratings))
			stat.AverageRating = &avg
		}
		result = append(result, stat)
	}
	return result
}
