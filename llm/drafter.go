package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"forum-letter/pipeline"
)

const StageSynthesis = "synthesis"

// DraftingClient implements pipeline.Drafter on top of a Client.
type DraftingClient struct {
	client *Client
}

var _ pipeline.Drafter = (*DraftingClient)(nil)

func NewDraftingClient(client *Client) *DraftingClient {
	return &DraftingClient{client: client}
}

func (d *DraftingClient) Draft(ctx context.Context, req pipeline.DraftRequest) (*pipeline.Draft, error) {
	prompt, err := draftPrompt(req)
	if err != nil {
		return nil, callError(StageSynthesis, ReasonMalformed, err)
	}
	raw, err := d.client.Call(ctx, StageSynthesis, Request{
		System:    SYNTHESIS_SYSTEM_INSTRUCTION,
		Prompt:    prompt,
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	draft, err := ParseDraft(raw)
	if err != nil {
		return nil, callError(StageSynthesis, ReasonMalformed, err)
	}
	return draft, nil
}

func draftPrompt(req pipeline.DraftRequest) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cadence: %s\n\nSections to fill (in order):\n", req.Cadence)
	grouped := make(map[string][]pipeline.DraftItem, len(req.Sections))
	for _, s := range req.Sections {
		fmt.Fprintf(&sb, "- %s (%s): %s [max %d items]\n", s.Title, s.Key, s.Description, s.MaxItems)
		if len(s.Items) > 0 {
			grouped[s.Key] = s.Items
		}
	}
	b, err := json.MarshalIndent(grouped, "", "  ")
	if err != nil {
		return "", err
	}
	sb.WriteString("\nPosts grouped by section:\n")
	sb.Write(b)
	return sb.String(), nil
}

// ParseDraft decodes a synthesis response. Missing or mistyped fields are
// left empty so the caller can fall back to source data.
func ParseDraft(raw []byte) (*pipeline.Draft, error) {
	root, ok := decodeFields(raw)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}

	draft := &pipeline.Draft{Sections: map[string]pipeline.DraftSectionResult{}}
	if err := json.Unmarshal(raw, &draft.Raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if title, ok := root.str("edition_title", "title"); ok {
		draft.Title = strings.TrimSpace(title)
	}

	intros, _ := root.object("section_intros")
	sections, _ := root.object("sections")
	for key, rawSection := range sections {
		sf, ok := decodeFields(rawSection)
		if !ok {
			continue
		}
		res := pipeline.DraftSectionResult{Items: map[string]pipeline.DraftCopy{}}
		if intro, ok := sf.str("intro"); ok {
			res.Intro = strings.TrimSpace(intro)
		}
		items, _ := sf.array("items")
		for _, rawItem := range items {
			itf, ok := decodeFields(rawItem)
			if !ok {
				continue
			}
			id, ok := itf.str("external_id", "reddit_id", "id")
			if !ok || id == "" {
				continue
			}
			headline, _ := itf.str("headline")
			blurb, _ := itf.str("blurb")
			res.Items[strings.TrimSpace(id)] = pipeline.DraftCopy{
				Headline: strings.TrimSpace(headline),
				Blurb:    strings.TrimSpace(blurb),
			}
		}
		draft.Sections[key] = res
	}
	for key := range intros {
		if intro, ok := intros.str(key); ok && draft.Sections[key].Intro == "" {
			res := draft.Sections[key]
			res.Intro = strings.TrimSpace(intro)
			draft.Sections[key] = res
		}
	}
	return draft, nil
}
