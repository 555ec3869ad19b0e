package services

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"forum-letter/dto"
	"forum-letter/models"
	"forum-letter/pipeline"
)

// ErrInvalidID is returned for a malformed edition id.
var ErrInvalidID = errors.New("invalid edition id")

// EditionReader is the read side of the store used by the web view.
type EditionReader interface {
	LatestEdition(ctx context.Context) (*models.Edition, error)
	FindEdition(ctx context.Context, id primitive.ObjectID) (*models.Edition, error)
	ListEditions(ctx context.Context, page, pageSize int) ([]models.Edition, int64, error)
	EditionEntries(ctx context.Context, id primitive.ObjectID) ([]models.EditionEntry, error)
}

// EditionFilter keeps items whose source is in Sources (if any) and that
// carry at least one of Tags (if any).
type EditionFilter struct {
	Sources []string
	Tags    []string
}

func (f EditionFilter) match(it dto.EditionItemDTO) bool {
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, it.Source) {
		return false
	}
	if len(f.Tags) == 0 {
		return true
	}
	for _, t := range it.Tags {
		if slices.Contains(f.Tags, t) {
			return true
		}
	}
	return false
}

// EditionService encapsulates edition reads and DTO mapping
type EditionService struct {
	reader   EditionReader
	sections []pipeline.Section
	perPage  int
}

func NewEditionService(reader EditionReader, sections []pipeline.Section, perPage int) *EditionService {
	if perPage <= 0 {
		perPage = 20
	}
	return &EditionService{reader: reader, sections: sections, perPage: perPage}
}

// Latest returns the newest edition; repositories.ErrNotFound when there is none.
func (s *EditionService) Latest(ctx context.Context, f EditionFilter) (*dto.EditionDTO, error) {
	e, err := s.reader.LatestEdition(ctx)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, e, f)
}

// GetByID loads an edition by its ObjectID hex.
func (s *EditionService) GetByID(ctx context.Context, hexID string, f EditionFilter) (*dto.EditionDTO, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, ErrInvalidID
	}
	e, err := s.reader.FindEdition(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, e, f)
}

// Archive lists editions newest first.
func (s *EditionService) Archive(ctx context.Context, page int) (*dto.Pagination[dto.EditionSummaryDTO], error) {
	if page <= 0 {
		page = 1
	}
	rows, total, err := s.reader.ListEditions(ctx, page, s.perPage)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EditionSummaryDTO, 0, len(rows))
	for _, e := range rows {
		out = append(out, dto.NewEditionSummaryDTO(e))
	}
	return &dto.Pagination[dto.EditionSummaryDTO]{
		Data:     out,
		Page:     page,
		PageSize: s.perPage,
		Total:    total,
		HasNext:  int64(page*s.perPage) < total,
	}, nil
}

func (s *EditionService) view(ctx context.Context, e *models.Edition, f EditionFilter) (*dto.EditionDTO, error) {
	entries, err := s.reader.EditionEntries(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return BuildEditionView(e, entries, s.sections, f), nil
}

// BuildEditionView groups entries by section in configured order. Facets are
// computed before filtering; sections left empty by the filter are dropped.
// Sections no longer configured are not shown.
func BuildEditionView(e *models.Edition, entries []models.EditionEntry, sections []pipeline.Section, f EditionFilter) *dto.EditionDTO {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DisplayOrder < entries[j].DisplayOrder
	})

	sources := map[string]bool{}
	tags := map[string]bool{}
	bySection := map[string][]dto.EditionItemDTO{}
	for _, entry := range entries {
		it := dto.NewEditionItemDTO(entry)
		if it.Source != "" {
			sources[it.Source] = true
		}
		for _, t := range it.Tags {
			tags[t] = true
		}
		if f.match(it) {
			bySection[entry.Section] = append(bySection[entry.Section], it)
		}
	}

	out := &dto.EditionDTO{
		ID:        e.ID.Hex(),
		Title:     e.Title,
		Cadence:   string(e.Cadence),
		Body:      e.Body,
		ItemCount: e.ItemCount,
		Sent:      e.Sent,
		CreatedAt: e.CreatedAt,
		Sections:  []dto.SectionDTO{},
		Facets:    dto.FacetsDTO{Sources: slices.Sorted(maps.Keys(sources)), Tags: slices.Sorted(maps.Keys(tags))},
		Filter:    dto.FilterDTO{Sources: f.Sources, Tags: f.Tags},
	}
	for _, sec := range sections {
		items := bySection[sec.Key]
		if len(items) == 0 {
			continue
		}
		out.Sections = append(out.Sections, dto.SectionDTO{
			Key:   sec.Key,
			Title: sec.Title,
			Intro: e.Metadata.SectionIntros[sec.Key],
			Items: items,
		})
	}
	return out
}
