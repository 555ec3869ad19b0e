// Package pipeline turns pending forum items into a newsletter edition:
// batch categorization, section selection and synthesis, sequenced by the
// Orchestrator.
package pipeline

import (
	"context"

	"forum-letter/models"
)

// CategorizerStore is what the Categorizer needs from the item store.
type CategorizerStore interface {
	// PendingItems returns items without an annotation in a stable order.
	PendingItems(ctx context.Context) ([]models.Item, error)
	// SaveAnnotations commits one batch and returns how many were created.
	// Annotations for items annotated in the meantime are skipped, not counted.
	SaveAnnotations(ctx context.Context, anns []models.Annotation) (int, error)
}

type CandidateFilter struct {
	ExcludePublished bool
}

// CandidateSource returns annotated items whose category is not skip,
// ranked by relevance+quality descending.
type CandidateSource interface {
	RankedCandidates(ctx context.Context, filter CandidateFilter) ([]models.Candidate, error)
}

type SaveEditionOptions struct {
	// MarkPublished sets published_edition_id on every placed item.
	MarkPublished bool
}

// EditionWriter persists an edition with its items as one unit. It assigns
// the edition ID and sets EditionID on every item.
type EditionWriter interface {
	SaveEdition(ctx context.Context, e *models.Edition, items []models.EditionItem, opts SaveEditionOptions) error
}

// Store is the full item store contract.
type Store interface {
	CategorizerStore
	CandidateSource
	EditionWriter
}

// ScoreRecord is one annotation as returned by the scoring connector after
// decoding. Nil fields were absent from the response.
type ScoreRecord struct {
	ExternalID     string
	Category       *string
	RelevanceScore *float64
	QualityScore   *float64
	Tags           []string
	Summary        *string
	KeyInsight     *string
}

type ScoreRequest struct {
	Items     []models.Item
	Model     string
	MaxTokens int
}

// Scorer annotates one batch. A non-nil error fails the whole batch.
type Scorer interface {
	ScoreBatch(ctx context.Context, req ScoreRequest) ([]ScoreRecord, error)
}

type DraftItem struct {
	ExternalID  string          `json:"external_id"`
	Source      string          `json:"source"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	Score       int             `json:"score"`
	NumComments int             `json:"num_comments"`
	Permalink   string          `json:"permalink"`
	URL         string          `json:"url,omitempty"`
	Category    models.Category `json:"category"`
	Tags        []string        `json:"tags"`
	Summary     string          `json:"summary"`
	KeyInsight  string          `json:"key_insight"`
}

type DraftSection struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	MaxItems    int         `json:"max_items"`
	Items       []DraftItem `json:"items"`
}

type DraftRequest struct {
	Cadence   models.Cadence
	Sections  []DraftSection
	Model     string
	MaxTokens int
}

type DraftCopy struct {
	Headline string
	Blurb    string
}

type DraftSectionResult struct {
	Intro string
	// Items is keyed by external id.
	Items map[string]DraftCopy
}

// Draft is the decoded synthesis response. Empty fields were absent.
type Draft struct {
	Title    string
	Sections map[string]DraftSectionResult
	Raw      map[string]any
}

// Drafter writes headlines and blurbs for a grouped selection. A non-nil
// error aborts the run.
type Drafter interface {
	Draft(ctx context.Context, req DraftRequest) (*Draft, error)
}

// Ingester collects new items and records an IngestRun.
type Ingester interface {
	Run(ctx context.Context) (*models.IngestRun, error)
}
