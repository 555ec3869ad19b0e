package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"forum-letter/models"
)

// FeedSource reads an RSS or Atom feed.
type FeedSource struct {
	SourceName string
	URL        string
	Limit      int
	Limits     Limits
	Client     *http.Client
}

func (s *FeedSource) Name() string { return s.SourceName }
func (s *FeedSource) Kind() string { return "rss" }

func (s *FeedSource) Fetch(ctx context.Context) ([]models.Item, error) {
	fp := gofeed.NewParser()
	if s.Client != nil {
		fp.Client = s.Client
	}

	feed, err := fp.ParseURLWithContext(s.URL, ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var items []models.Item
	for _, fi := range feed.Items {
		if s.Limit > 0 && len(items) >= s.Limit {
			break
		}
		var published time.Time
		if fi.PublishedParsed != nil {
			published = *fi.PublishedParsed
		} else if fi.UpdatedParsed != nil {
			published = *fi.UpdatedParsed
		} else {
			published = now
		}

		content := fi.Content
		if content == "" {
			content = fi.Description
		}
		author := ""
		if fi.Author != nil {
			author = fi.Author.Name
		}

		items = append(items, models.Item{
			ExternalID:  feedItemID(s.URL, fi),
			Source:      s.SourceName,
			Title:       fi.Title,
			Body:        Truncate(StripHTML(content), s.Limits.BodyMaxChars),
			URL:         fi.Link,
			Permalink:   fi.Link,
			Author:      authorOrDeleted(author),
			TopComments: []models.Comment{},
			CreatedAt:   published.UTC(),
			IngestedAt:  now,
		})
	}
	return items, nil
}

// feedItemID derives a stable external id from the feed URL and the entry's
// GUID (or link when the feed has none).
func feedItemID(feedURL string, fi *gofeed.Item) string {
	key := fi.GUID
	if key == "" {
		key = fi.Link
	}
	sum := sha1.Sum([]byte(feedURL + "\x00" + key))
	return "rss_" + hex.EncodeToString(sum[:])[:16]
}
