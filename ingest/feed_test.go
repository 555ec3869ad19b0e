package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Blog</title>
<item><title>First</title><link>https://blog.example.com/1</link><guid>g-1</guid>
<description><![CDATA[<p>Hello <b>world</b> &amp; friends</p>]]></description>
<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>
<item><title>Second</title><link>https://blog.example.com/2</link>
<description>plain</description></item>
<item><title>Third</title><link>https://blog.example.com/3</link></item>
</channel></rss>`

func TestFeedSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssXML))
	}))
	defer srv.Close()

	src := &FeedSource{SourceName: "blog", URL: srv.URL, Limit: 2, Client: srv.Client()}
	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, "Hello world & friends", items[0].Body)
	assert.Equal(t, "blog", items[0].Source)
	assert.Equal(t, 2006, items[0].CreatedAt.Year())
	assert.True(t, strings.HasPrefix(items[0].ExternalID, "rss_"))
	assert.Len(t, items[0].ExternalID, len("rss_")+16)
	assert.NotEqual(t, items[0].ExternalID, items[1].ExternalID)

	again, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, items[0].ExternalID, again[0].ExternalID, "ids are stable across fetches")
}
