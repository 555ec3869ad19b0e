package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum-letter/config"
	"forum-letter/models"
	"forum-letter/pipeline"
)

type fakeGenerator struct {
	text string
	err  error
	reqs []Request
}

func (f *fakeGenerator) Provider() string { return "fake" }

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &Response{
		Text:         f.text,
		ModelVersion: "fake-001",
		Usage:        TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}, nil
}

type memRecorder struct {
	mu   sync.Mutex
	logs []models.AILog
}

func (m *memRecorder) RecordAICall(ctx context.Context, log models.AILog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func TestExtractJSON(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "plain object", input: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "fenced", input: "```json\n[{\"a\":1}]\n```", want: `[{"a":1}]`, ok: true},
		{name: "bare fence", input: "```\n{\"a\":2}\n```", want: `{"a":2}`, ok: true},
		{name: "prose around", input: "Here you go:\n{\"a\":3}\nThanks!", want: `{"a":3}`, ok: true},
		{name: "no json", input: "sorry, I can't", ok: false},
		{name: "broken json", input: `{"a":`, ok: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, ok := ExtractJSON(testCase.input)
			assert.Equal(t, testCase.ok, ok)
			if testCase.ok {
				assert.JSONEq(t, testCase.want, string(got))
			}
		})
	}
}

func TestParseScoreRecordsCoercesFields(t *testing.T) {
	raw := []byte(`[
		{"reddit_id": "abc", "category": "news", "relevance_score": "0.8", "quality_score": 0.6,
		 "tool_tags": "claude_code, mcp", "summary": "s", "key_insight": "k"},
		{"external_id": 42, "category": null, "relevance_score": "high", "tags": ["cursor"]},
		{"category": "news"},
		"junk"
	]`)

	records, err := ParseScoreRecords(raw)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "abc", first.ExternalID)
	assert.Equal(t, "news", *first.Category)
	assert.InDelta(t, 0.8, *first.RelevanceScore, 1e-9)
	assert.InDelta(t, 0.6, *first.QualityScore, 1e-9)
	assert.Equal(t, []string{"claude_code", "mcp"}, first.Tags)
	assert.Equal(t, "s", *first.Summary)
	assert.Equal(t, "k", *first.KeyInsight)

	second := records[1]
	assert.Equal(t, "42", second.ExternalID)
	assert.Nil(t, second.Category)
	assert.Nil(t, second.RelevanceScore)
	assert.Nil(t, second.QualityScore)
	assert.Equal(t, []string{"cursor"}, second.Tags)
	assert.Nil(t, second.Summary)
}

func TestParseScoreRecordsWrappedAndMalformed(t *testing.T) {
	records, err := ParseScoreRecords([]byte(`{"posts":[{"external_id":"x"}]}`))
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = ParseScoreRecords([]byte(`{"hello":"world"}`))
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseScoreRecords([]byte(`[{"category":"news"}]`))
	assert.ErrorIs(t, err, ErrMalformedResponse)

	records, err = ParseScoreRecords([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseDraft(t *testing.T) {
	raw := []byte(`{
		"edition_title": "  Agents Everywhere ",
		"sections": {
			"top_story": {"intro": "Big news.", "items": [
				{"reddit_id": "a", "headline": "H", "blurb": "B"},
				{"headline": "no id"}
			]},
			"tools": {"items": [{"external_id": "b", "headline": "H2"}]},
			"broken": "nope"
		},
		"section_intros": {"tools": "Tools intro.", "top_story": "ignored"}
	}`)

	draft, err := ParseDraft(raw)
	require.NoError(t, err)
	assert.Equal(t, "Agents Everywhere", draft.Title)
	assert.Equal(t, "Big news.", draft.Sections["top_story"].Intro)
	assert.Equal(t, pipeline.DraftCopy{Headline: "H", Blurb: "B"}, draft.Sections["top_story"].Items["a"])
	assert.Len(t, draft.Sections["top_story"].Items, 1)
	assert.Equal(t, "Tools intro.", draft.Sections["tools"].Intro)
	assert.Equal(t, "H2", draft.Sections["tools"].Items["b"].Headline)
	assert.Empty(t, draft.Sections["tools"].Items["b"].Blurb)
	assert.NotContains(t, draft.Sections, "broken")
	assert.Equal(t, "  Agents Everywhere ", draft.Raw["edition_title"])
}

func TestParseDraftMissingTitle(t *testing.T) {
	draft, err := ParseDraft([]byte(`{"sections": {}}`))
	require.NoError(t, err)
	assert.Empty(t, draft.Title)

	_, err = ParseDraft([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClientCallTaggedFailures(t *testing.T) {
	testCases := []struct {
		name       string
		gen        *fakeGenerator
		quota      *QuotaLimiter
		wantReason Reason
		wantLogs   int
	}{
		{
			name:       "transport",
			gen:        &fakeGenerator{err: errors.New("503")},
			wantReason: ReasonTransport,
			wantLogs:   1,
		},
		{
			name:       "malformed",
			gen:        &fakeGenerator{text: "I refuse"},
			wantReason: ReasonMalformed,
			wantLogs:   1,
		},
		{
			name:       "empty",
			gen:        &fakeGenerator{text: "   "},
			wantReason: ReasonEmpty,
			wantLogs:   1,
		},
		{
			name:       "quota",
			gen:        &fakeGenerator{text: "{}"},
			quota:      exhaustedQuota(),
			wantReason: ReasonQuota,
			wantLogs:   0,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			rec := &memRecorder{}
			c := NewClient(testCase.gen, testCase.quota, rec)

			_, err := c.Call(context.Background(), "test", Request{Model: "m"})
			require.Error(t, err)
			assert.Equal(t, testCase.wantReason, ReasonOf(err))
			assert.Len(t, rec.logs, testCase.wantLogs)
		})
	}
}

func exhaustedQuota() *QuotaLimiter {
	q := NewQuotaLimiter(config.QuotaConfig{RequestsPerDay: 1})
	_, _ = q.WaitAndReserve(context.Background())
	return q
}

func TestClientCallRecordsSuccess(t *testing.T) {
	rec := &memRecorder{}
	gen := &fakeGenerator{text: "```json\n{\"ok\":true}\n```"}
	c := NewClient(gen, nil, rec)

	raw, err := c.Call(context.Background(), StageSynthesis, Request{System: "sys", Prompt: "p", Model: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	require.Len(t, rec.logs, 1)
	log := rec.logs[0]
	assert.Equal(t, StageSynthesis, log.Stage)
	assert.Equal(t, "fake", log.Provider)
	assert.Equal(t, "m", log.ModelName)
	assert.Equal(t, "fake-001", log.ModelVersion)
	assert.Equal(t, int64(15), log.TotalTokens)
	assert.Nil(t, log.ErrorMessage)
	assert.True(t, strings.HasPrefix(log.InputPrompt, "sys"))
}

func TestClientCallSpendsDailyQuota(t *testing.T) {
	q := NewQuotaLimiter(config.QuotaConfig{RequestsPerDay: 2})
	c := NewClient(&fakeGenerator{text: `{"ok":true}`}, q, nil)

	_, err := c.Call(context.Background(), StageCategorization, Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Remaining())

	_, err = c.Call(context.Background(), StageCategorization, Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, 0, q.Remaining())

	_, err = c.Call(context.Background(), StageCategorization, Request{Model: "m"})
	assert.Equal(t, ReasonQuota, ReasonOf(err))
}

func TestScoringClientScoreBatch(t *testing.T) {
	gen := &fakeGenerator{text: `[{"external_id":"b","category":"community"},{"external_id":"a","category":"news"}]`}
	s := NewScoringClient(NewClient(gen, nil, nil))

	items := []models.Item{
		{ExternalID: "a", Title: "A", TopComments: []models.Comment{{Author: "u", Body: "c", Score: 3}}},
		{ExternalID: "b", Title: "B"},
	}
	records, err := s.ScoreBatch(context.Background(), pipeline.ScoreRequest{Items: items, Model: "m", MaxTokens: 100})
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Len(t, gen.reqs, 1)
	assert.Equal(t, 100, gen.reqs[0].MaxTokens)
	assert.Equal(t, CATEGORIZATION_SYSTEM_INSTRUCTION, gen.reqs[0].System)
	assert.Contains(t, gen.reqs[0].Prompt, `"external_id": "a"`)
	assert.Contains(t, gen.reqs[0].Prompt, `"top_comments"`)

	anns := pipeline.Reconcile(items, records)
	require.Len(t, anns, 2)
	assert.Equal(t, models.CategoryNews, anns[0].Category)
	assert.Equal(t, models.CategoryCommunity, anns[1].Category)
}

func TestScoringClientMalformedIsBatchFailure(t *testing.T) {
	s := NewScoringClient(NewClient(&fakeGenerator{text: `{"nothing": true}`}, nil, nil))
	_, err := s.ScoreBatch(context.Background(), pipeline.ScoreRequest{Items: []models.Item{{ExternalID: "a"}}})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, ReasonMalformed, ReasonOf(err))
}

func TestDraftingClientPrompt(t *testing.T) {
	gen := &fakeGenerator{text: `{"edition_title":"T","sections":{}}`}
	d := NewDraftingClient(NewClient(gen, nil, nil))

	draft, err := d.Draft(context.Background(), pipeline.DraftRequest{
		Cadence: models.CadenceWeekly,
		Sections: []pipeline.DraftSection{
			{Key: "top_story", Title: "Top Story", Description: "the best", MaxItems: 1,
				Items: []pipeline.DraftItem{{ExternalID: "a", Title: "A"}}},
			{Key: "tools", Title: "Tools", Description: "tools", MaxItems: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "T", draft.Title)

	prompt := gen.reqs[0].Prompt
	assert.Contains(t, prompt, "- Top Story (top_story): the best [max 1 items]")
	assert.Contains(t, prompt, "- Tools (tools): tools [max 5 items]")
	assert.Contains(t, prompt, `"top_story"`)
	assert.NotContains(t, prompt, `"tools": [`)
}

func TestQuotaLimiterDailyLimitResets(t *testing.T) {
	q := NewQuotaLimiter(config.QuotaConfig{RequestsPerDay: 2})
	day := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return day }

	for i := 0; i < 2; i++ {
		ok, err := q.WaitAndReserve(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := q.WaitAndReserve(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, q.Remaining())

	day = day.Add(24 * time.Hour)
	assert.Equal(t, 2, q.Remaining())
	ok, err = q.WaitAndReserve(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQuotaLimiterPerMinuteHonoursContext(t *testing.T) {
	q := NewQuotaLimiter(config.QuotaConfig{RequestsPerMinute: 1})
	ok, err := q.WaitAndReserve(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err = q.WaitAndReserve(ctx)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestNilQuotaLimiterAllowsEverything(t *testing.T) {
	var q *QuotaLimiter
	ok, err := q.WaitAndReserve(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -1, q.Remaining())
}
