package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"forum-letter/models"
	"forum-letter/pipeline"
	"forum-letter/repositories"
)

var testSections = []pipeline.Section{
	{Key: "top_story", Title: "Top Story"},
	{Key: "news", Title: "News"},
	{Key: "tools_integrations", Title: "Tools"},
}

func entry(order int, section, source string, tags ...string) models.EditionEntry {
	return models.EditionEntry{
		EditionItem: models.EditionItem{
			ID:           primitive.NewObjectID(),
			Section:      section,
			DisplayOrder: order,
			Headline:     "headline",
		},
		Item: models.Item{Source: source, Title: "title"},
		Annotation: &models.Annotation{
			Category:       models.CategoryNews,
			RelevanceScore: 0.8,
			QualityScore:   0.6,
			Tags:           tags,
		},
	}
}

func testEdition() *models.Edition {
	return &models.Edition{
		ID:      primitive.NewObjectID(),
		Title:   "Weekly",
		Cadence: models.CadenceDaily,
		Metadata: models.EditionMetadata{
			SectionIntros: map[string]string{"news": "What happened"},
		},
	}
}

func TestBuildEditionView(t *testing.T) {
	entries := []models.EditionEntry{
		entry(3, "tools_integrations", "cursor", "cursor", "mcp"),
		entry(1, "news", "ClaudeAI", "claude-code"),
		entry(0, "top_story", "ClaudeAI"),
		entry(2, "news", "LocalLLaMA", "ollama"),
		entry(4, "retired_section", "ClaudeAI"),
	}

	tests := []struct {
		name         string
		filter       EditionFilter
		wantSections []string
		wantItems    int
	}{
		{"no filter", EditionFilter{}, []string{"top_story", "news", "tools_integrations"}, 4},
		{"source", EditionFilter{Sources: []string{"ClaudeAI"}}, []string{"top_story", "news"}, 2},
		{"tag", EditionFilter{Tags: []string{"mcp", "ollama"}}, []string{"news", "tools_integrations"}, 2},
		{"source and tag", EditionFilter{Sources: []string{"cursor"}, Tags: []string{"ollama"}}, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := BuildEditionView(testEdition(), append([]models.EditionEntry(nil), entries...), testSections, tt.filter)

			keys := []string{}
			n := 0
			for _, s := range view.Sections {
				keys = append(keys, s.Key)
				n += len(s.Items)
			}
			assert.Equal(t, tt.wantSections, keys)
			assert.Equal(t, tt.wantItems, n)

			assert.Equal(t, []string{"ClaudeAI", "LocalLLaMA", "cursor"}, view.Facets.Sources)
			assert.Equal(t, []string{"claude-code", "cursor", "mcp", "ollama"}, view.Facets.Tags)
		})
	}
}

func TestBuildEditionViewOrderAndIntro(t *testing.T) {
	entries := []models.EditionEntry{entry(2, "news", "b"), entry(1, "news", "a")}
	view := BuildEditionView(testEdition(), entries, testSections, EditionFilter{})

	require.Len(t, view.Sections, 1)
	news := view.Sections[0]
	assert.Equal(t, "News", news.Title)
	assert.Equal(t, "What happened", news.Intro)
	assert.Equal(t, []int{1, 2}, []int{news.Items[0].DisplayOrder, news.Items[1].DisplayOrder})
	assert.InDelta(t, 1.4, news.Items[0].CombinedScore, 1e-9)
}

type fakeReader struct {
	editions []models.Edition
	entries  map[primitive.ObjectID][]models.EditionEntry
}

func (f *fakeReader) LatestEdition(ctx context.Context) (*models.Edition, error) {
	if len(f.editions) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &f.editions[0], nil
}

func (f *fakeReader) FindEdition(ctx context.Context, id primitive.ObjectID) (*models.Edition, error) {
	for i := range f.editions {
		if f.editions[i].ID == id {
			return &f.editions[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeReader) ListEditions(ctx context.Context, page, pageSize int) ([]models.Edition, int64, error) {
	start := (page - 1) * pageSize
	if start > len(f.editions) {
		start = len(f.editions)
	}
	end := min(start+pageSize, len(f.editions))
	return f.editions[start:end], int64(len(f.editions)), nil
}

func (f *fakeReader) EditionEntries(ctx context.Context, id primitive.ObjectID) ([]models.EditionEntry, error) {
	return f.entries[id], nil
}

func TestEditionServiceArchive(t *testing.T) {
	r := &fakeReader{}
	for i := 0; i < 5; i++ {
		r.editions = append(r.editions, models.Edition{ID: primitive.NewObjectID(), Title: "e"})
	}
	svc := NewEditionService(r, testSections, 2)

	p1, err := svc.Archive(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Page)
	assert.Len(t, p1.Data, 2)
	assert.True(t, p1.HasNext)
	assert.Equal(t, int64(5), p1.Total)

	p3, err := svc.Archive(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, p3.Data, 1)
	assert.False(t, p3.HasNext)
}

func TestEditionServiceLookups(t *testing.T) {
	svc := NewEditionService(&fakeReader{}, testSections, 20)

	_, err := svc.Latest(context.Background(), EditionFilter{})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = svc.GetByID(context.Background(), "not-an-id", EditionFilter{})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.GetByID(context.Background(), primitive.NewObjectID().Hex(), EditionFilter{})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

type blockingRunner struct {
	release chan struct{}
	started chan models.Cadence
}

func (r *blockingRunner) Run(ctx context.Context, cadence models.Cadence) (*pipeline.Report, error) {
	r.started <- cadence
	<-r.release
	return nil, errors.New("stopped")
}

type fakeRequester struct {
	gotID      string
	gotCadence models.Cadence
}

func (f *fakeRequester) PublishEditionRequested(ctx context.Context, requestID string, cadence models.Cadence, requestedBy string) (string, error) {
	f.gotID, f.gotCadence = requestID, cadence
	return requestID, nil
}

func TestPipelineServiceLocal(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{}), started: make(chan models.Cadence, 1)}
	svc := NewPipelineService(runner, nil)

	res, err := svc.Trigger(context.Background(), "weekly", "req-1", "test")
	require.NoError(t, err)
	assert.Equal(t, "local", res.Mode)
	assert.Equal(t, "req-1", res.RequestID)
	assert.Equal(t, models.CadenceWeekly, <-runner.started)
	assert.True(t, svc.Running())

	_, err = svc.Trigger(context.Background(), "daily", "", "test")
	assert.ErrorIs(t, err, pipeline.ErrRunInProgress)

	close(runner.release)
	assert.Eventually(t, func() bool { return !svc.Running() }, time.Second, 10*time.Millisecond)
}

func TestPipelineServiceKafka(t *testing.T) {
	req := &fakeRequester{}
	svc := NewPipelineService(nil, req)

	res, err := svc.Trigger(context.Background(), "", "", "test")
	require.NoError(t, err)
	assert.Equal(t, "kafka", res.Mode)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, res.RequestID, req.gotID)
	assert.Equal(t, models.CadenceDaily, req.gotCadence)

	_, err = svc.Trigger(context.Background(), "hourly", "", "test")
	assert.ErrorIs(t, err, ErrInvalidCadence)
}
