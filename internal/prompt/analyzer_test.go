package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmonia-app/harmonia-api/internal/llm"
	"github.com/harmonia-app/harmonia-api/internal/metrics"
)

// stubProvider is a test implementation of the llm.Provider interface
type stubProvider struct {
	response *llm.CompletionResponse
	err      error
	lastReq  *llm.CompletionRequest
}

func (p *stubProvider) Name() string {
	return "stub"
}

func (p *stubProvider) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func TestParseCriteria(t *testing.T) {
	raw := `{
		"moods": ["calm", "relaxing"],
		"genres": ["ambient"],
		"keywords": ["sunset", "summer", "beach"],
		"playlistTitle": "Golden Hour",
		"description": "Easy listening for warm evenings."
	}`

	criteria, err := ParseCriteria(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"calm", "relaxing"}, criteria.Moods)
	assert.Equal(t, []string{"ambient"}, criteria.Genres)
	assert.Equal(t, []string{"sunset", "summer", "beach"}, criteria.Keywords)
	assert.Equal(t, "Golden Hour", criteria.SuggestedTitle)
	assert.Equal(t, "Easy listening for warm evenings.", criteria.SuggestedDescription)
	assert.NotEmpty(t, criteria.Raw)
}

func TestParseCriteriaStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"moods\": [\"happy\"], \"genres\": [\"pop\"], \"keywords\": [\"party\"]}\n```"

	criteria, err := ParseCriteria(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"happy"}, criteria.Moods)
	assert.Equal(t, []string{"pop"}, criteria.Genres)
}

func TestParseCriteriaDropsUnknownVocabulary(t *testing.T) {
	raw := `{"moods": ["Calm", "brooding"], "genres": ["JAZZ", "shoegaze"], "keywords": ["rain"]}`

	criteria, err := ParseCriteria(raw)
	require.NoError(t, err)

	// casing is normalized before the vocabulary check; unknown values drop
	assert.Equal(t, []string{"calm"}, criteria.Moods)
	assert.Equal(t, []string{"jazz"}, criteria.Genres)
}

func TestParseCriteriaToleratesMissingFields(t *testing.T) {
	criteria, err := ParseCriteria(`{"playlistTitle": "Untitled"}`)
	require.NoError(t, err)

	assert.Empty(t, criteria.Moods)
	assert.Empty(t, criteria.Genres)
	assert.Empty(t, criteria.Keywords)
}

func TestParseCriteriaRejectsBadInput(t *testing.T) {
	_, err := ParseCriteria("")
	assert.Error(t, err)

	_, err = ParseCriteria("the model felt chatty today")
	assert.Error(t, err)

	_, err = ParseCriteria(`["not", "an", "object"]`)
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```{\"a\": 1}```", `{"a": 1}`},
		{`{"a": 1}`, `{"a": 1}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in), "input %q", tt.in)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	provider := &stubProvider{
		response: &llm.CompletionResponse{
			Text:         `{"moods": ["relaxing"], "genres": ["ambient"], "keywords": ["sunset"], "playlistTitle": "Dusk"}`,
			InputTokens:  120,
			OutputTokens: 40,
		},
	}
	analyzer := NewAnalyzer(provider, "gpt-5-mini", nil)

	criteria, err := analyzer.Analyze(context.Background(), "relaxing summer sunset")
	require.NoError(t, err)

	assert.Equal(t, []string{"relaxing"}, criteria.Moods)
	assert.Equal(t, "Dusk", criteria.SuggestedTitle)

	require.NotNil(t, provider.lastReq)
	assert.Equal(t, "gpt-5-mini", provider.lastReq.Model)
	assert.Contains(t, provider.lastReq.UserPrompt, `"relaxing summer sunset"`)
	assert.Contains(t, provider.lastReq.UserPrompt, "hip-hop")
}

func TestAnalyzeWithMetricsClient(t *testing.T) {
	provider := &stubProvider{
		response: &llm.CompletionResponse{
			Text:         `{"moods": ["calm"], "genres": ["jazz"], "keywords": ["late night"]}`,
			TotalTokens:  160,
			InputTokens:  120,
			OutputTokens: 40,
		},
	}
	cwMetrics, err := metrics.NewClient(context.Background(), "test", false)
	require.NoError(t, err)
	analyzer := NewAnalyzer(provider, "gpt-5-mini", cwMetrics)

	criteria, err := analyzer.Analyze(context.Background(), "late night jazz")
	require.NoError(t, err)
	assert.Equal(t, []string{"calm"}, criteria.Moods)
}

func TestAnalyzeTransportFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	analyzer := NewAnalyzer(provider, "gpt-5-mini", nil)

	_, err := analyzer.Analyze(context.Background(), "anything")
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, FailureTransport, analysisErr.Kind)
}

func TestAnalyzeParseFailure(t *testing.T) {
	provider := &stubProvider{
		response: &llm.CompletionResponse{Text: "sorry, I can't produce JSON right now"},
	}
	analyzer := NewAnalyzer(provider, "gpt-5-mini", nil)

	_, err := analyzer.Analyze(context.Background(), "anything")
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, FailureParse, analysisErr.Kind)
}
