// Package ingest collects candidate items from forums and feeds.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"forum-letter/config"
	"forum-letter/models"
)

// Source yields candidate items. Items carry no ID yet.
type Source interface {
	Name() string
	Kind() string
	Fetch(ctx context.Context) ([]models.Item, error)
}

type Limits struct {
	MaxComments     int
	BodyMaxChars    int
	CommentMaxChars int
}

func LimitsFromConfig(c config.PostLimitsConfig) Limits {
	return Limits{
		MaxComments:     c.MaxCommentsPerPost,
		BodyMaxChars:    c.BodyMaxChars,
		CommentMaxChars: c.CommentMaxChars,
	}
}

// Truncate cuts s to max runes and marks the cut with "...".
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

const redditTokenURL = "https://www.reddit.com/api/v1/access_token"

// NewRedditHTTPClient returns an app-only OAuth client when credentials are
// set, a plain client otherwise, and the matching API base URL.
func NewRedditHTTPClient(ctx context.Context, creds config.RedditCredentials, timeout time.Duration) (*http.Client, string) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return &http.Client{Timeout: timeout}, "https://www.reddit.com"
	}
	cc := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     redditTokenURL,
	}
	client := cc.Client(ctx)
	client.Timeout = timeout
	return client, "https://oauth.reddit.com"
}

// BuildSources creates a Source per enabled entry in cfg.Sources.
func BuildSources(ctx context.Context, cfg *config.AppConfig) ([]Source, error) {
	limits := LimitsFromConfig(cfg.PostLimits)
	redditClient, redditBase := NewRedditHTTPClient(ctx, cfg.Reddit, 30*time.Second)
	feedClient := &http.Client{Timeout: 30 * time.Second}

	var sources []Source
	for _, sc := range cfg.Sources {
		if !sc.IsEnabled() {
			continue
		}
		switch sc.Kind {
		case "reddit":
			sources = append(sources, &RedditSource{
				Subreddit: sc.Name,
				Sort:      sc.Sort,
				Limit:     sc.Limit,
				Limits:    limits,
				Client:    redditClient,
				BaseURL:   redditBase,
				UserAgent: cfg.Reddit.UserAgent,
			})
		case "rss":
			sources = append(sources, &FeedSource{
				SourceName: sc.Name,
				URL:        sc.URL,
				Limit:      sc.Limit,
				Limits:     limits,
				Client:     feedClient,
			})
		default:
			return nil, fmt.Errorf("unknown source kind %q for %s", sc.Kind, sc.Name)
		}
	}
	return sources, nil
}
