package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum-letter/config"
	"forum-letter/models"
)

func keys(cands []models.Candidate) []string {
	out := []string{}
	for _, c := range cands {
		out = append(out, c.Item.ExternalID)
	}
	return out
}

func scoredStore(t *testing.T, scored map[string]struct {
	cat   models.Category
	score float64
}) *memStore {
	t.Helper()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	i := 0
	for id := range scored {
		store.addItem(item(id, base.Add(time.Duration(i)*time.Second)))
		i++
	}
	for id, s := range scored {
		store.annotate(id, s.cat, s.score, 0)
	}
	return store
}

func TestSelectWorkedExample(t *testing.T) {
	store := scoredStore(t, map[string]struct {
		cat   models.Category
		score float64
	}{
		"A": {models.CategoryNews, 0.9},
		"B": {models.CategoryToolsIntegrations, 0.8},
		"C": {models.CategoryNews, 0.7},
		"D": {models.CategoryToolsIntegrations, 0.6},
	})
	sections := []Section{
		{Key: "top_story", Categories: []models.Category{models.CategoryNews}, MaxItems: 1, Priority: 1},
		{Key: "tools", Categories: []models.Category{models.CategoryToolsIntegrations}, MaxItems: 2},
	}

	sel, err := NewSelector(store, sections, false).Select(context.Background())
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, "top_story", sel[0].Section.Key)
	assert.Equal(t, []string{"A"}, keys(sel[0].Candidates))
	assert.Equal(t, "tools", sel[1].Section.Key)
	assert.Equal(t, []string{"B", "D"}, keys(sel[1].Candidates))
	assert.Equal(t, 3, Total(sel))
}

func TestAssignTopSectionFilledFirstButOrderPreserved(t *testing.T) {
	cands := []models.Candidate{
		cand("n1", models.CategoryNews, 0.9, 0),
		cand("n2", models.CategoryNews, 0.8, 1),
	}
	sections := []Section{
		{Key: "news", Categories: []models.Category{models.CategoryNews}, MaxItems: 5},
		{Key: "top", Categories: []models.Category{models.CategoryNews}, MaxItems: 1, Priority: 10},
	}

	sel := Assign(cands, sections)
	assert.Equal(t, "news", sel[0].Section.Key)
	assert.Equal(t, []string{"n2"}, keys(sel[0].Candidates))
	assert.Equal(t, "top", sel[1].Section.Key)
	assert.Equal(t, []string{"n1"}, keys(sel[1].Candidates))
}

func TestAssignNeverPlacesSkipOrUnmatched(t *testing.T) {
	cands := []models.Candidate{
		cand("skip", models.CategorySkip, 1, 0),
		cand("community", models.CategoryCommunity, 0.9, 1),
		cand("news", models.CategoryNews, 0.1, 2),
	}
	sections := []Section{
		{Key: "all", Categories: []models.Category{models.CategoryNews, models.CategorySkip}, MaxItems: 5},
	}

	sel := Assign(cands, sections)
	assert.Equal(t, []string{"news"}, keys(sel[0].Candidates))
}

func TestAssignDisjointAndBounded(t *testing.T) {
	var cands []models.Candidate
	cats := []models.Category{models.CategoryNews, models.CategoryToolsIntegrations, models.CategoryCommunity}
	for i := 0; i < 30; i++ {
		cands = append(cands, cand(string(rune('a'+i%26))+string(rune('0'+i/26)), cats[i%3], float64(i%7)/7, i))
	}
	sections := []Section{
		{Key: "top", Categories: cats, MaxItems: 1, Priority: 1},
		{Key: "news", Categories: []models.Category{models.CategoryNews}, MaxItems: 4},
		{Key: "mixed", Categories: cats, MaxItems: 6},
		{Key: "community", Categories: []models.Category{models.CategoryCommunity}, MaxItems: 3},
		{Key: "empty", Categories: []models.Category{models.CategoryQuickLinks}, MaxItems: 3},
	}

	sel := Assign(cands, sections)
	seen := map[string]string{}
	capacity := 0
	for _, s := range sel {
		capacity += s.Section.MaxItems
		assert.LessOrEqual(t, len(s.Candidates), s.Section.MaxItems)
		for _, c := range s.Candidates {
			prev, dup := seen[c.Item.ExternalID]
			assert.False(t, dup, "%s placed in %s and %s", c.Item.ExternalID, prev, s.Section.Key)
			seen[c.Item.ExternalID] = s.Section.Key
		}
	}
	assert.LessOrEqual(t, Total(sel), min(len(cands), capacity))
	assert.Empty(t, sel[4].Candidates)
	assert.NotNil(t, sel[4].Candidates)
}

func TestAssignWithinSectionBestFirst(t *testing.T) {
	cands := []models.Candidate{
		cand("low", models.CategoryNews, 0.1, 0),
		cand("high", models.CategoryNews, 0.9, 1),
		cand("mid", models.CategoryNews, 0.5, 2),
	}
	sel := Assign(cands, []Section{{Key: "news", Categories: []models.Category{models.CategoryNews}, MaxItems: 3}})
	assert.Equal(t, []string{"high", "mid", "low"}, keys(sel[0].Candidates))
}

func TestRankTieBreak(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id string, created time.Time) models.Candidate {
		return models.Candidate{
			Item:       models.Item{ExternalID: id, CreatedAt: created},
			Annotation: models.Annotation{Category: models.CategoryNews, RelevanceScore: 0.4, QualityScore: 0.4},
		}
	}
	cands := []models.Candidate{
		mk("zz", base),
		mk("late", base.Add(time.Hour)),
		mk("aa", base),
		{
			Item:       models.Item{ExternalID: "top", CreatedAt: base.Add(2 * time.Hour)},
			Annotation: models.Annotation{RelevanceScore: 0.5, QualityScore: 0.5},
		},
	}

	Rank(cands)
	assert.Equal(t, []string{"top", "aa", "zz", "late"}, keys(cands))
}

func TestSelectExcludePublishedPassesFilter(t *testing.T) {
	store := newMemStore(items(2, "p")...)
	store.annotate("p000", models.CategoryNews, 0.9, 0.9)
	store.annotate("p001", models.CategoryNews, 0.1, 0.1)
	id := store.items[0].ID
	store.items[0].PublishedEditionID = &id

	sections := []Section{{Key: "news", Categories: []models.Category{models.CategoryNews}, MaxItems: 5}}

	sel, err := NewSelector(store, sections, true).Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p001"}, keys(sel[0].Candidates))

	sel, err = NewSelector(store, sections, false).Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p000", "p001"}, keys(sel[0].Candidates))
}

func TestSectionsFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
sections:
  - key: top_story
    title: Top
    categories: [news]
    priority: 1
  - key: tools
    categories: [tools_integrations]
`))
	require.NoError(t, err)

	sections := SectionsFromConfig(cfg.Sections)
	require.Len(t, sections, 2)
	assert.Equal(t, Section{Key: "top_story", Title: "Top", Categories: []models.Category{models.CategoryNews}, MaxItems: 1, Priority: 1}, sections[0])
	assert.Equal(t, 5, sections[1].MaxItems)
}

func cand(id string, cat models.Category, score float64, minute int) models.Candidate {
	it := item(id, time.Date(2025, 1, 1, 0, minute, 0, 0, time.UTC))
	return models.Candidate{
		Item:       it,
		Annotation: models.Annotation{ItemID: it.ID, Category: cat, RelevanceScore: score, Summary: "summary of " + id},
	}
}
