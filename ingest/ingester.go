package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forum-letter/logger"
	"forum-letter/models"
	"forum-letter/repositories"
)

// Sink is where the ingester stores items and its run record.
type Sink interface {
	ExistingExternalIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// InsertItem fails with repositories.ErrDuplicateExternalID on a clash.
	InsertItem(ctx context.Context, it *models.Item) error
	StartIngestRun(ctx context.Context, run *models.IngestRun) error
	FinishIngestRun(ctx context.Context, run *models.IngestRun) error
}

// SourceRecorder keeps per-source status; optional.
type SourceRecorder interface {
	RecordSourceRun(ctx context.Context, src models.Source, at time.Time, err error) error
}

type Ingester struct {
	sources  []Source
	sink     Sink
	enricher *Enricher
	recorder SourceRecorder
}

func NewIngester(sources []Source, sink Sink, enricher *Enricher, recorder SourceRecorder) *Ingester {
	return &Ingester{sources: sources, sink: sink, enricher: enricher, recorder: recorder}
}

// Run fetches every source, stores the items not seen before and returns
// the completed run. A failing source is recorded in run.Errors and does not
// stop the others.
func (in *Ingester) Run(ctx context.Context) (*models.IngestRun, error) {
	run := &models.IngestRun{StartedAt: time.Now().UTC()}
	if err := in.sink.StartIngestRun(ctx, run); err != nil {
		return nil, fmt.Errorf("start ingest run: %w", err)
	}

	var all []models.Item
	for _, src := range in.sources {
		items, err := src.Fetch(ctx)
		in.recordSource(ctx, src, err)
		if err != nil {
			logger.ErrorWithFields("source fetch failed", logger.Fields{
				"source": src.Name(),
				"kind":   src.Kind(),
				"error":  err.Error(),
			})
			run.Errors = append(run.Errors, models.SourceError{Source: src.Name(), Error: err.Error()})
			continue
		}
		all = append(all, items...)
		run.SourcesScraped = append(run.SourcesScraped, src.Name())
	}
	run.TotalItems = len(all)

	fresh, err := in.unseen(ctx, all)
	if err != nil {
		run.Errors = append(run.Errors, models.SourceError{Source: "store", Error: err.Error()})
	}
	for i := range fresh {
		it := &fresh[i]
		it.IngestRunID = run.ID
		in.enricher.Enrich(ctx, it)
		if err := in.sink.InsertItem(ctx, it); err != nil {
			if errors.Is(err, repositories.ErrDuplicateExternalID) {
				continue
			}
			run.Errors = append(run.Errors, models.SourceError{
				Source: it.Source,
				Error:  fmt.Sprintf("insert %s: %v", it.ExternalID, err),
			})
			continue
		}
		run.NewItems++
	}

	if err := in.sink.FinishIngestRun(ctx, run); err != nil {
		return run, fmt.Errorf("finish ingest run: %w", err)
	}
	logger.InfoWithFields("ingest complete", logger.Fields{
		"total":   run.TotalItems,
		"new":     run.NewItems,
		"errors":  len(run.Errors),
		"sources": run.SourcesScraped,
	})
	return run, nil
}

// unseen drops repeats within the batch (first wins) and items already stored.
func (in *Ingester) unseen(ctx context.Context, all []models.Item) ([]models.Item, error) {
	seen := make(map[string]bool, len(all))
	unique := make([]models.Item, 0, len(all))
	ids := make([]string, 0, len(all))
	for _, it := range all {
		if it.ExternalID == "" || seen[it.ExternalID] {
			continue
		}
		seen[it.ExternalID] = true
		unique = append(unique, it)
		ids = append(ids, it.ExternalID)
	}

	existing, err := in.sink.ExistingExternalIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check existing items: %w", err)
	}
	fresh := unique[:0]
	for _, it := range unique {
		if !existing[it.ExternalID] {
			fresh = append(fresh, it)
		}
	}
	return fresh, nil
}

func (in *Ingester) recordSource(ctx context.Context, src Source, fetchErr error) {
	if in.recorder == nil {
		return
	}
	rec := models.Source{Name: src.Name(), Kind: src.Kind(), Enabled: true}
	switch s := src.(type) {
	case *FeedSource:
		rec.URL = s.URL
	case *RedditSource:
		rec.URL = "https://reddit.com/r/" + s.Subreddit
	}
	if err := in.recorder.RecordSourceRun(ctx, rec, time.Now().UTC(), fetchErr); err != nil {
		logger.Log.Warnf("record source %s: %v", src.Name(), err)
	}
}
