package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"forum-letter/logger"
	"forum-letter/models"
)

const DefaultBatchSize = 50

type CategorizerOptions struct {
	BatchSize int
	Model     string
	MaxTokens int
}

// Categorizer annotates pending items in fixed-size batches.
type Categorizer struct {
	store  CategorizerStore
	scorer Scorer
	opts   CategorizerOptions
}

func NewCategorizer(store CategorizerStore, scorer Scorer, opts CategorizerOptions) *Categorizer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Categorizer{store: store, scorer: scorer, opts: opts}
}

// CategorizePending scores every pending item and returns the number of
// annotations created. A failed batch is logged and skipped; its items stay
// pending. Store failures and cancellation abort.
func (c *Categorizer) CategorizePending(ctx context.Context) (int, error) {
	pending, err := c.store.PendingItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("load pending items: %w", err)
	}
	if len(pending) == 0 {
		logger.Log.Info("no pending items to categorize")
		return 0, nil
	}

	batches := chunk(pending, c.opts.BatchSize)
	logger.InfoWithFields("categorization started", logger.Fields{
		"pending": len(pending),
		"batches": len(batches),
	})

	total := 0
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("categorization stopped before batch %d/%d: %w", i+1, len(batches), err)
		}
		n, err := c.categorizeBatch(ctx, i+1, len(batches), batch)
		if err != nil {
			return total, err
		}
		total += n
	}

	logger.InfoWithFields("categorization finished", logger.Fields{
		"pending":   len(pending),
		"annotated": total,
	})
	return total, nil
}

func (c *Categorizer) categorizeBatch(ctx context.Context, num, of int, batch []models.Item) (int, error) {
	records, err := c.scorer.ScoreBatch(ctx, ScoreRequest{
		Items:     batch,
		Model:     c.opts.Model,
		MaxTokens: c.opts.MaxTokens,
	})
	if err != nil {
		logger.ErrorWithFields("categorization batch failed, skipping", logger.Fields{
			"batch": num,
			"of":    of,
			"items": len(batch),
			"error": err.Error(),
		})
		return 0, nil
	}

	anns := Reconcile(batch, records)
	saved, err := c.store.SaveAnnotations(ctx, anns)
	if err != nil {
		return 0, fmt.Errorf("save annotations for batch %d: %w", num, err)
	}
	logger.InfoWithFields("categorization batch committed", logger.Fields{
		"batch":     num,
		"of":        of,
		"items":     len(batch),
		"returned":  len(records),
		"annotated": saved,
	})
	return saved, nil
}

// Reconcile maps connector records back to the batch by external id and
// returns one annotation per matched item, in batch order. Items with no
// matching record are logged and left out. When the connector repeats an
// id, the first record wins.
func Reconcile(batch []models.Item, records []ScoreRecord) []models.Annotation {
	byID := make(map[string]ScoreRecord, len(records))
	for _, rec := range records {
		id := strings.TrimSpace(rec.ExternalID)
		if id == "" {
			continue
		}
		if _, dup := byID[id]; !dup {
			byID[id] = rec
		}
	}

	anns := make([]models.Annotation, 0, len(batch))
	for _, it := range batch {
		rec, ok := byID[it.ExternalID]
		if !ok {
			logger.Log.Warnf("no annotation returned for item %s, leaving pending", it.ExternalID)
			continue
		}
		anns = append(anns, annotationFromRecord(it, rec))
	}
	return anns
}

func annotationFromRecord(it models.Item, rec ScoreRecord) models.Annotation {
	a := models.Annotation{
		ItemID:   it.ID,
		Category: models.CategorySkip,
		Tags:     []string{},
	}
	if rec.Category != nil {
		cat, ok := models.ParseCategory(strings.ToLower(strings.TrimSpace(*rec.Category)))
		if !ok {
			logger.Log.Warnf("unknown category %q for item %s, using skip", *rec.Category, it.ExternalID)
		}
		a.Category = cat
	}
	if rec.RelevanceScore != nil {
		a.RelevanceScore = clampScore(*rec.RelevanceScore)
	}
	if rec.QualityScore != nil {
		a.QualityScore = clampScore(*rec.QualityScore)
	}
	for _, t := range rec.Tags {
		if t = strings.TrimSpace(t); t != "" {
			a.Tags = append(a.Tags, t)
		}
	}
	if rec.Summary != nil {
		a.Summary = *rec.Summary
	}
	if rec.KeyInsight != nil {
		a.KeyInsight = *rec.KeyInsight
	}
	return a
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func chunk[T any](s []T, size int) [][]T {
	var out [][]T
	for size < len(s) {
		out = append(out, s[:size:size])
		s = s[size:]
	}
	if len(s) > 0 {
		out = append(out, s)
	}
	return out
}
