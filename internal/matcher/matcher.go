package matcher

import (
	"context"
	"math/rand/v2"
	"strings"

	"gorm.io/gorm"

	"github.com/harmonia-app/harmonia-api/internal/models"
	"github.com/harmonia-app/harmonia-api/internal/prompt"
)

const (
	// DefaultTargetCount is the number of tracks returned when the caller
	// does not ask for a specific count
	DefaultTargetCount = 20

	primaryCap        = 50  // cap on primary search results
	fallbackThreshold = 10  // fewer primary hits than this triggers the fallback
	fallbackPoolSize  = 20  // combined pool ceiling when falling back
	catalogScanLimit  = 500 // active-catalog window scanned per match
)

// Config controls matcher policy knobs
type Config struct {
	// DedupeFallback removes primary hits from the fallback supplement.
	// Off by default: duplicates in the pool weight selection toward
	// popular tracks.
	DedupeFallback bool
}

// Matcher selects tracks from the catalog for a set of match criteria
type Matcher struct {
	db  *gorm.DB
	cfg Config
}

// New creates a matcher with default policy
func New(db *gorm.DB) *Matcher {
	return &Matcher{db: db}
}

// NewWithConfig creates a matcher with explicit policy
func NewWithConfig(db *gorm.DB, cfg Config) *Matcher {
	return &Matcher{db: db, cfg: cfg}
}

// Match returns up to targetCount active tracks for the criteria. It never
// fails on empty results: whatever the catalog has is returned, even nothing.
//
// Primary search applies a disjunctive filter (mood intersection OR genre
// membership OR keyword substring over tags/title/artist) to the catalog in
// popularity order; when all three criterion slices are empty the filter is
// skipped entirely. If the primary set is thin, the most popular active
// tracks supplement the pool. The final selection is a uniform shuffle of the
// pool truncated to targetCount, so exact order is never meaningful.
func (m *Matcher) Match(ctx context.Context, criteria *prompt.MatchCriteria, targetCount int) ([]models.Track, error) {
	if targetCount <= 0 {
		targetCount = DefaultTargetCount
	}

	candidates, err := m.activeByPopularity(ctx, catalogScanLimit)
	if err != nil {
		return nil, err
	}

	primary := candidates
	if hasCriteria(criteria) {
		primary = filterDisjunctive(candidates, criteria)
	}
	if len(primary) > primaryCap {
		primary = primary[:primaryCap]
	}

	pool := primary
	if len(primary) < fallbackThreshold {
		pool = m.supplementWithPopular(primary, candidates)
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > targetCount {
		pool = pool[:targetCount]
	}
	return pool, nil
}

func (m *Matcher) activeByPopularity(ctx context.Context, limit int) ([]models.Track, error) {
	var tracks []models.Track
	err := m.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("popularity DESC, play_count DESC").
		Limit(limit).
		Find(&tracks).Error
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

// supplementWithPopular tops up a thin primary set with the most popular
// active tracks until the combined pool reaches fallbackPoolSize
func (m *Matcher) supplementWithPopular(primary, candidates []models.Track) []models.Track {
	pool := make([]models.Track, len(primary), fallbackPoolSize)
	copy(pool, primary)

	var inPrimary map[uint]bool
	if m.cfg.DedupeFallback {
		inPrimary = make(map[uint]bool, len(primary))
		for _, track := range primary {
			inPrimary[track.ID] = true
		}
	}

	for _, track := range candidates {
		if len(pool) >= fallbackPoolSize {
			break
		}
		if m.cfg.DedupeFallback && inPrimary[track.ID] {
			continue
		}
		pool = append(pool, track)
	}
	return pool
}

func hasCriteria(criteria *prompt.MatchCriteria) bool {
	if criteria == nil {
		return false
	}
	return len(criteria.Moods) > 0 || len(criteria.Genres) > 0 || len(criteria.Keywords) > 0
}

func filterDisjunctive(candidates []models.Track, criteria *prompt.MatchCriteria) []models.Track {
	matched := make([]models.Track, 0, len(candidates))
	for _, track := range candidates {
		if matchesAny(&track, criteria) {
			matched = append(matched, track)
		}
	}
	return matched
}

func matchesAny(track *models.Track, criteria *prompt.MatchCriteria) bool {
	if track.HasAnyMood(criteria.Moods) {
		return true
	}
	for _, genre := range criteria.Genres {
		if strings.EqualFold(track.Genre, genre) {
			return true
		}
	}
	for _, keyword := range criteria.Keywords {
		if track.MatchesKeyword(keyword) {
			return true
		}
	}
	return false
}
