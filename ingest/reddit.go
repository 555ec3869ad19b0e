package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"forum-letter/logger"
	"forum-letter/models"
)

const deletedAuthor = "[deleted]"

// RedditSource reads one subreddit listing ("hot" or "top" of the day)
// and the best top-level comments of every post.
type RedditSource struct {
	Subreddit string
	Sort      string
	Limit     int
	Limits    Limits
	Client    *http.Client
	BaseURL   string
	UserAgent string
}

func (s *RedditSource) Name() string { return s.Subreddit }
func (s *RedditSource) Kind() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

type redditComment struct {
	Author   string `json:"author"`
	Body     string `json:"body"`
	Score    int    `json:"score"`
	Stickied bool   `json:"stickied"`
}

func (s *RedditSource) Fetch(ctx context.Context) ([]models.Item, error) {
	sort := s.Sort
	if sort != "top" {
		sort = "hot"
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(s.Limit))
	q.Set("raw_json", "1")
	if sort == "top" {
		q.Set("t", "day")
	}
	endpoint := fmt.Sprintf("%s/r/%s/%s.json?%s", s.BaseURL, url.PathEscape(s.Subreddit), sort, q.Encode())

	var listing redditListing
	if err := s.getJSON(ctx, endpoint, &listing); err != nil {
		return nil, fmt.Errorf("r/%s listing: %w", s.Subreddit, err)
	}

	now := time.Now().UTC()
	var items []models.Item
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var p redditPost
		if err := json.Unmarshal(child.Data, &p); err != nil {
			return nil, fmt.Errorf("r/%s decode post: %w", s.Subreddit, err)
		}
		if p.Stickied || p.ID == "" {
			continue
		}

		comments, err := s.topComments(ctx, p.ID)
		if err != nil {
			logger.Log.Warnf("r/%s: comments for %s unavailable: %v", s.Subreddit, p.ID, err)
			comments = []models.Comment{}
		}

		items = append(items, models.Item{
			ExternalID:  p.ID,
			Source:      s.Subreddit,
			Title:       p.Title,
			Body:        Truncate(p.Selftext, s.Limits.BodyMaxChars),
			URL:         p.URL,
			Permalink:   "https://reddit.com" + p.Permalink,
			Author:      authorOrDeleted(p.Author),
			Score:       p.Score,
			NumComments: p.NumComments,
			TopComments: comments,
			CreatedAt:   time.Unix(int64(p.CreatedUTC), 0).UTC(),
			IngestedAt:  now,
		})
	}
	logger.Log.Infof("found %d posts from r/%s", len(items), s.Subreddit)
	return items, nil
}

func (s *RedditSource) topComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if s.Limits.MaxComments <= 0 {
		return []models.Comment{}, nil
	}
	q := url.Values{}
	q.Set("sort", "best")
	q.Set("limit", strconv.Itoa(s.Limits.MaxComments*2))
	q.Set("depth", "1")
	q.Set("raw_json", "1")
	endpoint := fmt.Sprintf("%s/comments/%s.json?%s", s.BaseURL, url.PathEscape(postID), q.Encode())

	var listings []redditListing
	if err := s.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, err
	}
	comments := []models.Comment{}
	if len(listings) < 2 {
		return comments, nil
	}
	for _, child := range listings[1].Data.Children {
		if len(comments) >= s.Limits.MaxComments {
			break
		}
		if child.Kind != "t1" {
			continue
		}
		var c redditComment
		if err := json.Unmarshal(child.Data, &c); err != nil {
			return nil, err
		}
		if c.Stickied {
			continue
		}
		comments = append(comments, models.Comment{
			Author: authorOrDeleted(c.Author),
			Body:   Truncate(c.Body, s.Limits.CommentMaxChars),
			Score:  c.Score,
		})
	}
	return comments, nil
}

func (s *RedditSource) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func authorOrDeleted(a string) string {
	if a == "" {
		return deletedAuthor
	}
	return a
}
