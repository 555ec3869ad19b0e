package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forum-letter/logger"
	"forum-letter/models"
)

// ErrSynthesisFailed wraps any drafter failure. It aborts the run.
var ErrSynthesisFailed = errors.New("pipeline: synthesis failed")

type SynthesizerOptions struct {
	Model             string
	MaxTokens         int
	FallbackTitle     string
	EmptyTitle        string
	BodyTruncateChars int
	MarkPublished     bool
}

type Synthesizer struct {
	selector *Selector
	drafter  Drafter
	store    EditionWriter
	opts     SynthesizerOptions
	now      func() time.Time
}

func NewSynthesizer(selector *Selector, drafter Drafter, store EditionWriter, opts SynthesizerOptions) *Synthesizer {
	if opts.FallbackTitle == "" {
		opts.FallbackTitle = "AI Coding Newsletter"
	}
	if opts.EmptyTitle == "" {
		opts.EmptyTitle = "No posts available"
	}
	if opts.BodyTruncateChars <= 0 {
		opts.BodyTruncateChars = 300
	}
	return &Synthesizer{selector: selector, drafter: drafter, store: store, opts: opts, now: time.Now}
}

// Synthesize selects items, asks the drafter for copy and persists one
// edition. An empty selection still yields a persisted placeholder edition.
func (s *Synthesizer) Synthesize(ctx context.Context, cadence models.Cadence) (*models.Edition, error) {
	selection, err := s.selector.Select(ctx)
	if err != nil {
		return nil, err
	}

	if Total(selection) == 0 {
		edition := &models.Edition{
			Title:     s.opts.EmptyTitle,
			Cadence:   cadence,
			ItemCount: 0,
			CreatedAt: s.now(),
		}
		if err := s.store.SaveEdition(ctx, edition, nil, SaveEditionOptions{}); err != nil {
			return nil, fmt.Errorf("save empty edition: %w", err)
		}
		logger.Log.Warn("no items selected, saved placeholder edition")
		return edition, nil
	}

	draft, err := s.drafter.Draft(ctx, s.draftRequest(cadence, selection))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	if draft == nil {
		draft = &Draft{}
	}

	edition, items := s.assemble(cadence, selection, draft)
	if err := s.store.SaveEdition(ctx, edition, items, SaveEditionOptions{MarkPublished: s.opts.MarkPublished}); err != nil {
		return nil, fmt.Errorf("save edition: %w", err)
	}

	logger.InfoWithFields("edition synthesized", logger.Fields{
		"edition_id": edition.ID.Hex(),
		"title":      edition.Title,
		"cadence":    string(cadence),
		"items":      edition.ItemCount,
	})
	return edition, nil
}

func (s *Synthesizer) draftRequest(cadence models.Cadence, selection []SectionSelection) DraftRequest {
	req := DraftRequest{
		Cadence:   cadence,
		Model:     s.opts.Model,
		MaxTokens: s.opts.MaxTokens,
		Sections:  make([]DraftSection, 0, len(selection)),
	}
	for _, sel := range selection {
		ds := DraftSection{
			Key:         sel.Section.Key,
			Title:       sel.Section.Title,
			Description: sel.Section.Description,
			MaxItems:    sel.Section.MaxItems,
			Items:       make([]DraftItem, 0, len(sel.Candidates)),
		}
		for _, c := range sel.Candidates {
			ds.Items = append(ds.Items, DraftItem{
				ExternalID:  c.Item.ExternalID,
				Source:      c.Item.Source,
				Title:       c.Item.Title,
				Body:        truncateRunes(c.Item.Body, s.opts.BodyTruncateChars),
				Score:       c.Item.Score,
				NumComments: c.Item.NumComments,
				Permalink:   c.Item.Permalink,
				URL:         c.Item.URL,
				Category:    c.Annotation.Category,
				Tags:        c.Annotation.Tags,
				Summary:     c.Annotation.Summary,
				KeyInsight:  c.Annotation.KeyInsight,
			})
		}
		req.Sections = append(req.Sections, ds)
	}
	return req
}

// assemble numbers edition items across sections in configuration order and
// falls back to the item title and annotation summary for missing copy.
func (s *Synthesizer) assemble(cadence models.Cadence, selection []SectionSelection, draft *Draft) (*models.Edition, []models.EditionItem) {
	title := draft.Title
	if title == "" {
		title = s.opts.FallbackTitle
	}
	edition := &models.Edition{
		Title:     title,
		Cadence:   cadence,
		CreatedAt: s.now(),
		Metadata: models.EditionMetadata{
			ModelName:     s.opts.Model,
			SectionIntros: map[string]string{},
			Raw:           draft.Raw,
		},
	}

	var items []models.EditionItem
	order := 0
	for _, sel := range selection {
		res := draft.Sections[sel.Section.Key]
		if res.Intro != "" {
			edition.Metadata.SectionIntros[sel.Section.Key] = res.Intro
		}
		for _, c := range sel.Candidates {
			cp := res.Items[c.Item.ExternalID]
			if cp.Headline == "" {
				cp.Headline = c.Item.Title
			}
			if cp.Blurb == "" {
				cp.Blurb = c.Annotation.Summary
			}
			items = append(items, models.EditionItem{
				ItemID:       c.Item.ID,
				Section:      sel.Section.Key,
				DisplayOrder: order,
				Headline:     cp.Headline,
				Blurb:        cp.Blurb,
			})
			order++
		}
	}
	edition.ItemCount = len(items)
	return edition, items
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
