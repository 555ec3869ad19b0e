package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"forum-letter/logger"
	"forum-letter/models"
	"forum-letter/pipeline"
)

// Store groups the repositories behind the pipeline and ingest contracts.
type Store struct {
	Items        *ItemRepository
	Annotations  *AnnotationRepository
	Editions     *EditionRepository
	EditionItems *EditionItemRepository
	IngestRuns   *IngestRunRepository
	AILogs       *AILogRepository
	Sources      *SourceRepository
}

var _ pipeline.Store = (*Store)(nil)

func NewStore(d *mongo.Database) *Store {
	return &Store{
		Items:        NewItemRepository(d),
		Annotations:  NewAnnotationRepository(d),
		Editions:     NewEditionRepository(d),
		EditionItems: NewEditionItemRepository(d),
		IngestRuns:   NewIngestRunRepository(d),
		AILogs:       NewAILogRepository(d),
		Sources:      NewSourceRepository(d),
	}
}

func (s *Store) PendingItems(ctx context.Context) ([]models.Item, error) {
	return s.Items.Pending(ctx)
}

func (s *Store) SaveAnnotations(ctx context.Context, anns []models.Annotation) (int, error) {
	n, err := s.Annotations.InsertMany(ctx, anns)
	if errors.Is(err, ErrAlreadyAnnotated) {
		logger.WarnWithFields("annotations skipped", logger.Fields{
			"batch":   len(anns),
			"written": n,
			"error":   err.Error(),
		})
		return n, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) RankedCandidates(ctx context.Context, filter pipeline.CandidateFilter) ([]models.Candidate, error) {
	return s.Annotations.Ranked(ctx, filter.ExcludePublished)
}

// SaveEdition writes the edition, then its items, then the published
// markers. A failed step removes what was already written, so no partial
// edition stays visible.
func (s *Store) SaveEdition(ctx context.Context, e *models.Edition, items []models.EditionItem, opts pipeline.SaveEditionOptions) error {
	e.ID = primitive.NewObjectID()
	for i := range items {
		items[i].EditionID = e.ID
	}
	if e.Metadata.SectionIntros == nil {
		e.Metadata.SectionIntros = map[string]string{}
	}
	return saveEdition(ctx, mongoEditionWrites{s: s}, e, items, opts.MarkPublished)
}

// ExistingExternalIDs, InsertItem, StartIngestRun, FinishIngestRun and
// RecordSourceRun back the ingester.

func (s *Store) ExistingExternalIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.Items.ExistingExternalIDs(ctx, ids)
}

func (s *Store) InsertItem(ctx context.Context, it *models.Item) error {
	return s.Items.Insert(ctx, it)
}

func (s *Store) StartIngestRun(ctx context.Context, run *models.IngestRun) error {
	return s.IngestRuns.Start(ctx, run)
}

func (s *Store) FinishIngestRun(ctx context.Context, run *models.IngestRun) error {
	return s.IngestRuns.Finish(ctx, run)
}

func (s *Store) RecordSourceRun(ctx context.Context, src models.Source, at time.Time, runErr error) error {
	if _, err := s.Sources.UpsertByName(ctx, &src); err != nil {
		return err
	}
	return s.Sources.RecordRun(ctx, src.Name, at, runErr)
}

// RecordAICall backs the LLM call recorder.
func (s *Store) RecordAICall(ctx context.Context, log models.AILog) error {
	return s.AILogs.Insert(ctx, log)
}

func (s *Store) LatestEdition(ctx context.Context) (*models.Edition, error) {
	return s.Editions.Latest(ctx)
}

func (s *Store) FindEdition(ctx context.Context, id primitive.ObjectID) (*models.Edition, error) {
	return s.Editions.FindByID(ctx, id)
}

func (s *Store) ListEditions(ctx context.Context, page, pageSize int) ([]models.Edition, int64, error) {
	return s.Editions.List(ctx, page, pageSize)
}

func (s *Store) EditionEntries(ctx context.Context, id primitive.ObjectID) ([]models.EditionEntry, error) {
	return s.EditionItems.Entries(ctx, id)
}

func (s *Store) MarkEditionSent(ctx context.Context, id primitive.ObjectID) error {
	return s.Editions.MarkSent(ctx, id)
}

// PendingCount, CategoryCounts, LatestIngestRun, ListSources and RecentAICalls
// back the status summary.

func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	return s.Items.CountPending(ctx)
}

func (s *Store) CategoryCounts(ctx context.Context) (map[models.Category]int64, error) {
	return s.Annotations.CountByCategory(ctx)
}

func (s *Store) LatestIngestRun(ctx context.Context) (*models.IngestRun, error) {
	return s.IngestRuns.Latest(ctx)
}

func (s *Store) ListSources(ctx context.Context) ([]models.Source, error) {
	return s.Sources.List(ctx)
}

func (s *Store) RecentAICalls(ctx context.Context, limit int64) ([]models.AILog, error) {
	return s.AILogs.Recent(ctx, "", limit)
}
