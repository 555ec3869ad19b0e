package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"forum-letter/models"
	"forum-letter/pipeline"
)

const StageCategorization = "categorization"

type scoringComment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
}

type scoringPost struct {
	ExternalID  string           `json:"external_id"`
	Source      string           `json:"source"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Score       int              `json:"score"`
	NumComments int              `json:"num_comments"`
	TopComments []scoringComment `json:"top_comments"`
}

// ScoringClient implements pipeline.Scorer on top of a Client.
type ScoringClient struct {
	client *Client
}

var _ pipeline.Scorer = (*ScoringClient)(nil)

func NewScoringClient(client *Client) *ScoringClient {
	return &ScoringClient{client: client}
}

func (s *ScoringClient) ScoreBatch(ctx context.Context, req pipeline.ScoreRequest) ([]pipeline.ScoreRecord, error) {
	prompt, err := scoringPrompt(req.Items)
	if err != nil {
		return nil, callError(StageCategorization, ReasonMalformed, err)
	}
	raw, err := s.client.Call(ctx, StageCategorization, Request{
		System:    CATEGORIZATION_SYSTEM_INSTRUCTION,
		Prompt:    prompt,
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	records, err := ParseScoreRecords(raw)
	if err != nil {
		return nil, callError(StageCategorization, ReasonMalformed, err)
	}
	return records, nil
}

func scoringPrompt(items []models.Item) (string, error) {
	posts := make([]scoringPost, 0, len(items))
	for _, it := range items {
		p := scoringPost{
			ExternalID:  it.ExternalID,
			Source:      it.Source,
			Title:       it.Title,
			Body:        it.Body,
			Score:       it.Score,
			NumComments: it.NumComments,
			TopComments: make([]scoringComment, 0, len(it.TopComments)),
		}
		for _, c := range it.TopComments {
			p.TopComments = append(p.TopComments, scoringComment(c))
		}
		posts = append(posts, p)
	}
	b, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return "", err
	}
	return "Posts:\n" + string(b), nil
}

// ParseScoreRecords decodes a scoring response. It accepts a bare array or
// an object wrapping the array under "posts", "results" or "annotations".
// Elements without an id are dropped; other fields are coerced and left nil
// when missing or of an unusable type.
func ParseScoreRecords(raw []byte) ([]pipeline.ScoreRecord, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		obj, ok := decodeFields(raw)
		if !ok {
			return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedResponse)
		}
		list, ok = obj.array("posts", "results", "annotations", "items")
		if !ok {
			return nil, fmt.Errorf("%w: no annotation array in object", ErrMalformedResponse)
		}
	}

	records := make([]pipeline.ScoreRecord, 0, len(list))
	for _, el := range list {
		f, ok := decodeFields(el)
		if !ok {
			continue
		}
		id, ok := f.str("external_id", "reddit_id", "id")
		if !ok || strings.TrimSpace(id) == "" {
			continue
		}
		rec := pipeline.ScoreRecord{ExternalID: strings.TrimSpace(id)}
		if v, ok := f.str("category"); ok {
			rec.Category = &v
		}
		if v, ok := f.float("relevance_score", "relevance"); ok {
			rec.RelevanceScore = &v
		}
		if v, ok := f.float("quality_score", "quality"); ok {
			rec.QualityScore = &v
		}
		if v, ok := f.stringList("tags", "tool_tags"); ok {
			rec.Tags = v
		}
		if v, ok := f.str("summary"); ok {
			rec.Summary = &v
		}
		if v, ok := f.str("key_insight"); ok {
			rec.KeyInsight = &v
		}
		records = append(records, rec)
	}
	if len(list) > 0 && len(records) == 0 {
		return nil, fmt.Errorf("%w: no element carried an id", ErrMalformedResponse)
	}
	return records, nil
}
