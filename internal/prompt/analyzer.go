package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harmonia-app/harmonia-api/internal/llm"
	"github.com/harmonia-app/harmonia-api/internal/logger"
	"github.com/harmonia-app/harmonia-api/internal/metrics"
	"github.com/harmonia-app/harmonia-api/internal/models"
	"github.com/harmonia-app/harmonia-api/internal/observability"
)

// MatchCriteria is the parsed form of the generative model's output. Any of
// the three token slices may be empty; callers must tolerate that.
type MatchCriteria struct {
	Moods                []string `json:"moods"`
	Genres               []string `json:"genres"`
	Keywords             []string `json:"keywords"`
	SuggestedTitle       string   `json:"playlist_title,omitempty"`
	SuggestedDescription string   `json:"description,omitempty"`

	// Raw is the cleaned JSON payload as returned by the model, kept for audit
	Raw json.RawMessage `json:"-"`
}

// FailureKind distinguishes why an analysis attempt failed
type FailureKind string

const (
	// FailureTransport covers an unreachable or timed-out provider
	FailureTransport FailureKind = "transport"
	// FailureParse covers output that could not be parsed into the expected shape
	FailureParse FailureKind = "parse"
)

// AnalysisError is returned when the generative call errors, times out, or
// returns text that cannot be parsed. Parse failures are permanent for the
// attempt; there is no retry inside Analyze.
type AnalysisError struct {
	Kind FailureKind
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("prompt analysis failed (%s): %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Analyzer turns a free-text user prompt into structured match criteria by
// calling a generative text provider and parsing its response.
type Analyzer struct {
	provider llm.Provider
	model    string
	metrics  *metrics.Client
}

// NewAnalyzer creates an analyzer bound to one provider and model
func NewAnalyzer(provider llm.Provider, model string, metricsClient *metrics.Client) *Analyzer {
	return &Analyzer{provider: provider, model: model, metrics: metricsClient}
}

const systemInstruction = `You are a music curation assistant for a streaming service.
Given a listener's playlist request, respond with a single JSON object and nothing else.`

// buildInstruction embeds the literal user prompt and both closed vocabularies
// into the fixed instruction template
func buildInstruction(promptText string) string {
	return fmt.Sprintf(`Analyze this playlist request and extract search criteria.

Request: %q

Respond with one JSON object with exactly these keys:
- "moods": 1-3 moods, chosen ONLY from: %s
- "genres": 1-3 genres, chosen ONLY from: %s
- "keywords": 3-5 short free-text search keywords
- "playlistTitle": a short suggested playlist title
- "description": a one-sentence playlist description

Do not use moods or genres outside the given lists.`,
		promptText,
		strings.Join(models.Moods, ", "),
		strings.Join(models.Genres, ", "))
}

// Analyze sends the prompt to the provider and parses the response. It is pure
// with respect to persisted state; the only side effect is the outbound call.
func (a *Analyzer) Analyze(ctx context.Context, promptText string) (*MatchCriteria, error) {
	trace := observability.GetClient().StartTrace(ctx, "playlist-analysis", map[string]interface{}{
		"prompt_length": len(promptText),
	})
	defer trace.Finish()

	gen := trace.Generation("analyze-prompt", a.model, nil)

	resp, err := a.provider.Complete(ctx, &llm.CompletionRequest{
		Model:        a.model,
		SystemPrompt: systemInstruction,
		UserPrompt:   buildInstruction(promptText),
	})
	if err != nil {
		gen.End("", 0, 0)
		return nil, &AnalysisError{Kind: FailureTransport, Err: err}
	}
	gen.End(resp.Text, resp.InputTokens, resp.OutputTokens)
	a.metrics.RecordTokenUsage(a.model, resp.TotalTokens, resp.InputTokens, resp.OutputTokens)

	criteria, err := ParseCriteria(resp.Text)
	if err != nil {
		logger.Warn("Analyzer returned unparseable output", logger.Fields{
			"model":  a.model,
			"output": truncate(resp.Text, 200),
		})
		return nil, &AnalysisError{Kind: FailureParse, Err: err}
	}

	return criteria, nil
}

// ParseCriteria parses raw model output into MatchCriteria. The output may
// wrap the JSON object in Markdown code fencing; fences are stripped before
// the structural parse. Missing or non-array fields coerce to empty slices,
// and mood/genre values outside the vocabularies are dropped.
func ParseCriteria(raw string) (*MatchCriteria, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model output")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("model output is not a JSON object: %w", err)
	}

	criteria := &MatchCriteria{
		Moods:                models.FilterMoods(lowerAll(toStringSlice(payload["moods"]))),
		Genres:               models.FilterGenres(lowerAll(toStringSlice(payload["genres"]))),
		Keywords:             toStringSlice(payload["keywords"]),
		SuggestedTitle:       toString(payload["playlistTitle"]),
		SuggestedDescription: toString(payload["description"]),
		Raw:                  json.RawMessage(cleaned),
	}
	return criteria, nil
}

// stripCodeFences removes leading/trailing Markdown fence markup such as
// ```json ... ``` around the payload
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		// drop an optional language tag on the opening fence
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			firstLine := strings.TrimSpace(s[:idx])
			if firstLine != "" && !strings.HasPrefix(firstLine, "{") {
				s = s[idx+1:]
			}
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func toStringSlice(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return []string{}
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				result = append(result, s)
			}
		}
	}
	return result
}

func toString(value interface{}) string {
	s, _ := value.(string)
	return strings.TrimSpace(s)
}

func lowerAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
