package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"forum-letter/models"
)

// memStore is an in-memory Store with the same uniqueness rules as the
// Mongo store.
type memStore struct {
	mu          sync.Mutex
	items       []models.Item
	annotations map[primitive.ObjectID]models.Annotation
	editions    []models.Edition
	edItems     map[primitive.ObjectID][]models.EditionItem
	saveErr     error
}

func newMemStore(items ...models.Item) *memStore {
	s := &memStore{
		annotations: map[primitive.ObjectID]models.Annotation{},
		edItems:     map[primitive.ObjectID][]models.EditionItem{},
	}
	for _, it := range items {
		s.addItem(it)
	}
	return s
}

func (s *memStore) addItem(it models.Item) *models.Item {
	if it.ID.IsZero() {
		it.ID = primitive.NewObjectID()
	}
	if it.IngestedAt.IsZero() {
		it.IngestedAt = time.Now()
	}
	s.items = append(s.items, it)
	return &s.items[len(s.items)-1]
}

func (s *memStore) annotate(externalID string, cat models.Category, relevance, quality float64) {
	for _, it := range s.items {
		if it.ExternalID == externalID {
			s.annotations[it.ID] = models.Annotation{
				ID:             primitive.NewObjectID(),
				ItemID:         it.ID,
				Category:       cat,
				RelevanceScore: relevance,
				QualityScore:   quality,
				Summary:        "summary of " + externalID,
				Tags:           []string{},
			}
			return
		}
	}
	panic("unknown item " + externalID)
}

func (s *memStore) PendingItems(ctx context.Context) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Item
	for _, it := range s.items {
		if _, ok := s.annotations[it.ID]; !ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *memStore) SaveAnnotations(ctx context.Context, anns []models.Annotation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	n := 0
	for _, a := range anns {
		if _, dup := s.annotations[a.ItemID]; dup {
			continue
		}
		a.ID = primitive.NewObjectID()
		s.annotations[a.ItemID] = a
		n++
	}
	return n, nil
}

func (s *memStore) RankedCandidates(ctx context.Context, filter CandidateFilter) ([]models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Candidate
	for _, it := range s.items {
		a, ok := s.annotations[it.ID]
		if !ok || a.Category == models.CategorySkip {
			continue
		}
		if filter.ExcludePublished && it.PublishedEditionID != nil {
			continue
		}
		out = append(out, models.Candidate{Item: it, Annotation: a})
	}
	Rank(out)
	return out, nil
}

func (s *memStore) SaveEdition(ctx context.Context, e *models.Edition, items []models.EditionItem, opts SaveEditionOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = primitive.NewObjectID()
	seen := map[int]bool{}
	for i := range items {
		if seen[items[i].DisplayOrder] {
			return fmt.Errorf("duplicate display order %d", items[i].DisplayOrder)
		}
		seen[items[i].DisplayOrder] = true
		items[i].EditionID = e.ID
	}
	s.editions = append(s.editions, *e)
	s.edItems[e.ID] = append([]models.EditionItem(nil), items...)
	if opts.MarkPublished {
		for _, ei := range items {
			for j := range s.items {
				if s.items[j].ID == ei.ItemID && s.items[j].PublishedEditionID == nil {
					id := e.ID
					s.items[j].PublishedEditionID = &id
				}
			}
		}
	}
	return nil
}

func (s *memStore) annotationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.annotations)
}

// fakeScorer annotates every item with the scores in byID (or news/0.5),
// failing the calls whose 1-based index is in failOn.
type fakeScorer struct {
	calls   int
	failOn  map[int]bool
	byID    map[string]ScoreRecord
	omit    map[string]bool
	reverse bool
	batches [][]string
	onCall  func(call int)
}

var errConnector = errors.New("connector exploded")

func (f *fakeScorer) ScoreBatch(ctx context.Context, req ScoreRequest) ([]ScoreRecord, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ExternalID)
	}
	f.batches = append(f.batches, ids)
	if f.failOn[f.calls] {
		return nil, errConnector
	}
	var out []ScoreRecord
	for _, it := range req.Items {
		if f.omit[it.ExternalID] {
			continue
		}
		if rec, ok := f.byID[it.ExternalID]; ok {
			rec.ExternalID = it.ExternalID
			out = append(out, rec)
			continue
		}
		out = append(out, ScoreRecord{
			ExternalID:     it.ExternalID,
			Category:       strPtr("news"),
			RelevanceScore: floatPtr(0.5),
			QualityScore:   floatPtr(0.5),
			Summary:        strPtr("summary " + it.ExternalID),
		})
	}
	if f.reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

type fakeDrafter struct {
	draft *Draft
	err   error
	req   DraftRequest
	calls int
}

func (f *fakeDrafter) Draft(ctx context.Context, req DraftRequest) (*Draft, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

type fakeIngester struct {
	run   *models.IngestRun
	err   error
	store *memStore
	add   []models.Item
	calls int
}

func (f *fakeIngester) Run(ctx context.Context) (*models.IngestRun, error) {
	f.calls++
	for _, it := range f.add {
		f.store.addItem(it)
	}
	return f.run, f.err
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func item(externalID string, created time.Time) models.Item {
	return models.Item{
		ID:         primitive.NewObjectID(),
		ExternalID: externalID,
		Source:     "ClaudeAI",
		Title:      "title " + externalID,
		Body:       "body " + externalID,
		CreatedAt:  created,
	}
}

func items(n int, prefix string) []models.Item {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Item, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, item(fmt.Sprintf("%s%03d", prefix, i), base.Add(time.Duration(i)*time.Minute)))
	}
	return out
}
