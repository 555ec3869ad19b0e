package dto

import (
	"time"

	"forum-letter/models"
)

// EditionItemDTO flattens an EditionItem with its Item and Annotation.
type EditionItemDTO struct {
	ID            string   `json:"id"`
	DisplayOrder  int      `json:"display_order"`
	Headline      string   `json:"headline"`
	Blurb         string   `json:"blurb"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Permalink     string   `json:"permalink"`
	Source        string   `json:"source"`
	Author        string   `json:"author"`
	Score         int      `json:"score"`
	NumComments   int      `json:"num_comments"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags"`
	KeyInsight    string   `json:"key_insight,omitempty"`
	CombinedScore float64  `json:"combined_score"`
}

func NewEditionItemDTO(e models.EditionEntry) EditionItemDTO {
	out := EditionItemDTO{
		ID:           e.ID.Hex(),
		DisplayOrder: e.DisplayOrder,
		Headline:     e.Headline,
		Blurb:        e.Blurb,
		Title:        e.Item.Title,
		URL:          e.Item.URL,
		Permalink:    e.Item.Permalink,
		Source:       e.Item.Source,
		Author:       e.Item.Author,
		Score:        e.Item.Score,
		NumComments:  e.Item.NumComments,
		Tags:         []string{},
	}
	if a := e.Annotation; a != nil {
		out.Category = string(a.Category)
		out.KeyInsight = a.KeyInsight
		out.CombinedScore = a.CombinedScore()
		if len(a.Tags) > 0 {
			out.Tags = a.Tags
		}
	}
	return out
}

type SectionDTO struct {
	Key   string           `json:"key"`
	Title string           `json:"title"`
	Intro string           `json:"intro,omitempty"`
	Items []EditionItemDTO `json:"items"`
}

// FacetsDTO lists the distinct values the edition can be filtered by.
type FacetsDTO struct {
	Sources []string `json:"sources"`
	Tags    []string `json:"tags"`
}

// FilterDTO echoes the filters applied to the response.
type FilterDTO struct {
	Sources []string `json:"sources,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type EditionDTO struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Cadence   string       `json:"cadence"`
	Body      string       `json:"body,omitempty"`
	ItemCount int          `json:"item_count"`
	Sent      bool         `json:"sent"`
	CreatedAt time.Time    `json:"created_at"`
	Sections  []SectionDTO `json:"sections"`
	Facets    FacetsDTO    `json:"facets"`
	Filter    FilterDTO    `json:"filter"`
}

// EditionSummaryDTO is an archive row.
type EditionSummaryDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Cadence   string    `json:"cadence"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEditionSummaryDTO(e models.Edition) EditionSummaryDTO {
	return EditionSummaryDTO{
		ID:        e.ID.Hex(),
		Title:     e.Title,
		Cadence:   string(e.Cadence),
		ItemCount: e.ItemCount,
		CreatedAt: e.CreatedAt,
	}
}
