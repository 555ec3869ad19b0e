package ingest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/advancedlogic/GoOse/pkg/goose"
	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// ErrNoContent is returned when no strategy produced text.
var ErrNoContent = errors.New("ingest: no readable content")

// minArticleChars is the shortest extraction accepted before trying the next strategy.
const minArticleChars = 80

type extractFunc func(htmlStr, pageURL string) (string, error)

// ExtractArticle returns the main text of an HTML page, trying readability,
// trafilatura and goose in that order and falling back to stripped markup.
func ExtractArticle(htmlStr, pageURL string) (string, error) {
	strategies := []struct {
		name string
		fn   extractFunc
	}{
		{"readability", extractWithReadability},
		{"trafilatura", extractWithTrafilatura},
		{"goose", extractWithGoose},
	}

	var errs []error
	for _, st := range strategies {
		text, err := st.fn(htmlStr, pageURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
			continue
		}
		text = normalizeWhitespace(text)
		if len([]rune(text)) >= minArticleChars {
			return text, nil
		}
	}

	if text := StripHTML(htmlStr); text != "" {
		return text, nil
	}
	errs = append(errs, ErrNoContent)
	return "", errors.Join(errs...)
}

func extractWithReadability(htmlStr, pageURL string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}
	var u *url.URL
	if pageURL != "" {
		u, _ = url.Parse(pageURL)
	}
	article, err := readability.FromDocument(doc, u)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

func extractWithTrafilatura(htmlStr, pageURL string) (string, error) {
	opts := trafilatura.Options{}
	if pageURL != "" {
		opts.OriginalURL, _ = url.Parse(pageURL)
	}
	article, err := trafilatura.Extract(strings.NewReader(htmlStr), opts)
	if err != nil {
		return "", err
	}
	if article == nil {
		return "", ErrNoContent
	}
	return article.ContentText, nil
}

func extractWithGoose(htmlStr, pageURL string) (string, error) {
	g := goose.New()
	article, err := g.ExtractFromRawHTML(htmlStr, pageURL)
	if err != nil {
		return "", err
	}
	if article == nil {
		return "", ErrNoContent
	}
	return article.CleanedText, nil
}

// StripHTML removes all markup and collapses whitespace.
func StripHTML(raw string) string {
	p := bluemonday.StrictPolicy()
	return normalizeWhitespace(html.UnescapeString(p.Sanitize(raw)))
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
