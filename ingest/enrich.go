package ingest

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"forum-letter/config"
	"forum-letter/logger"
	"forum-letter/models"
)

// Enricher fills the body of link posts from the linked article.
type Enricher struct {
	Fetcher      PageFetcher
	BodyMaxChars int
}

// NewEnricher returns nil when enrichment is disabled.
func NewEnricher(cfg config.EnrichmentConfig, bodyMaxChars int) *Enricher {
	if !cfg.Enabled {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	var fetcher PageFetcher = &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
	if cfg.RenderJS {
		fetcher = NewChromeRenderer(timeout)
	}
	return &Enricher{Fetcher: fetcher, BodyMaxChars: bodyMaxChars}
}

var mediaHosts = []string{"reddit.com", "redd.it", "youtube.com", "youtu.be", "imgur.com", "x.com", "twitter.com"}

// Eligible reports whether it is a link post whose target is worth reading.
func (e *Enricher) Eligible(it *models.Item) bool {
	if strings.TrimSpace(it.Body) != "" || it.URL == "" {
		return false
	}
	u, err := url.Parse(it.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range mediaHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return false
		}
	}
	return true
}

// Enrich replaces an empty body with the linked article text. Failures
// leave the item untouched.
func (e *Enricher) Enrich(ctx context.Context, it *models.Item) {
	if e == nil || e.Fetcher == nil || !e.Eligible(it) {
		return
	}
	page, err := e.Fetcher.FetchHTML(ctx, it.URL)
	if err != nil {
		logger.Log.Debugf("enrich %s: fetch %s: %v", it.ExternalID, it.URL, err)
		return
	}
	text, err := ExtractArticle(page, it.URL)
	if err != nil {
		logger.Log.Debugf("enrich %s: extract: %v", it.ExternalID, err)
		return
	}
	it.Body = Truncate(text, e.BodyMaxChars)
}
