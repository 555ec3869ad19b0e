package pipeline

import (
	"context"
	"fmt"
	"sort"

	"forum-letter/config"
	"forum-letter/models"
)

// Section is a capacity-bounded grouping rule for an edition.
type Section struct {
	Key         string
	Title       string
	Description string
	Categories  []models.Category
	MaxItems    int
	Priority    int
}

func (s Section) accepts(c models.Category) bool {
	for _, x := range s.Categories {
		if x == c {
			return true
		}
	}
	return false
}

// SectionsFromConfig keeps configuration order.
func SectionsFromConfig(cfgs []config.SectionConfig) []Section {
	out := make([]Section, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, Section{
			Key:         c.Key,
			Title:       c.Title,
			Description: c.Description,
			Categories:  c.Categories,
			MaxItems:    c.MaxItems,
			Priority:    c.Priority,
		})
	}
	return out
}

// SectionSelection is one section with its chosen candidates, best first.
type SectionSelection struct {
	Section    Section
	Candidates []models.Candidate
}

// Total counts the candidates across all sections.
func Total(sel []SectionSelection) int {
	n := 0
	for _, s := range sel {
		n += len(s.Candidates)
	}
	return n
}

type Selector struct {
	store            CandidateSource
	sections         []Section
	excludePublished bool
}

func NewSelector(store CandidateSource, sections []Section, excludePublished bool) *Selector {
	return &Selector{store: store, sections: sections, excludePublished: excludePublished}
}

func (s *Selector) Sections() []Section { return s.sections }

// Select loads the ranked candidates and assigns them to sections.
func (s *Selector) Select(ctx context.Context) ([]SectionSelection, error) {
	cands, err := s.store.RankedCandidates(ctx, CandidateFilter{ExcludePublished: s.excludePublished})
	if err != nil {
		return nil, fmt.Errorf("load ranked candidates: %w", err)
	}
	return Assign(cands, s.sections), nil
}

// Assign distributes candidates over sections without overlap. Sections with
// the highest priority are filled first, the rest in the given order; the
// result always follows the given order. Skip-category candidates are never
// placed.
func Assign(cands []models.Candidate, sections []Section) []SectionSelection {
	ranked := make([]models.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Annotation.Category != models.CategorySkip {
			ranked = append(ranked, c)
		}
	}
	Rank(ranked)

	out := make([]SectionSelection, len(sections))
	for i, sec := range sections {
		out[i] = SectionSelection{Section: sec, Candidates: []models.Candidate{}}
	}
	if len(sections) == 0 {
		return out
	}

	top := sections[0].Priority
	for _, sec := range sections[1:] {
		if sec.Priority > top {
			top = sec.Priority
		}
	}
	order := make([]int, 0, len(sections))
	for i, sec := range sections {
		if sec.Priority == top {
			order = append(order, i)
		}
	}
	for i, sec := range sections {
		if sec.Priority != top {
			order = append(order, i)
		}
	}

	used := make(map[string]bool)
	for _, idx := range order {
		sec := sections[idx]
		for _, c := range ranked {
			if len(out[idx].Candidates) >= sec.MaxItems {
				break
			}
			if used[c.Item.ExternalID] || !sec.accepts(c.Annotation.Category) {
				continue
			}
			used[c.Item.ExternalID] = true
			out[idx].Candidates = append(out[idx].Candidates, c)
		}
	}
	return out
}

// Rank sorts by combined score descending, then item creation time, then
// external id, so the order never depends on the store.
func Rank(cands []models.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		sa, sb := a.Annotation.CombinedScore(), b.Annotation.CombinedScore()
		if sa != sb {
			return sa > sb
		}
		if !a.Item.CreatedAt.Equal(b.Item.CreatedAt) {
			return a.Item.CreatedAt.Before(b.Item.CreatedAt)
		}
		return a.Item.ExternalID < b.Item.ExternalID
	})
}
