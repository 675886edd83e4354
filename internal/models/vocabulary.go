package models

// Moods is the closed vocabulary accepted for track moods and analyzer output.
// Values outside this set are dropped at the boundary, never stored.
var Moods = []string{
	"happy", "sad", "energetic", "calm", "romantic", "angry",
	"nostalgic", "peaceful", "uplifting", "melancholic", "relaxing", "motivational",
}

// Genres is the closed vocabulary accepted for track genres and analyzer output.
var Genres = []string{
	"pop", "rock", "jazz", "classical", "electronic", "hip-hop", "country",
	"folk", "blues", "reggae", "metal", "indie", "ambient", "world",
}

var (
	moodSet  = toSet(Moods)
	genreSet = toSet(Genres)
)

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// IsValidMood reports whether the value is part of the mood vocabulary
func IsValidMood(value string) bool {
	return moodSet[value]
}

// IsValidGenre reports whether the value is part of the genre vocabulary
func IsValidGenre(value string) bool {
	return genreSet[value]
}

// FilterMoods drops values outside the mood vocabulary, preserving order
func FilterMoods(values []string) []string {
	return filterBySet(values, moodSet)
}

// FilterGenres drops values outside the genre vocabulary, preserving order
func FilterGenres(values []string) []string {
	return filterBySet(values, genreSet)
}

func filterBySet(values []string, set map[string]bool) []string {
	filtered := make([]string, 0, len(values))
	for _, v := range values {
		if set[v] {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
