package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/checkmate/internal/sources"
)

func newsLink(target string) string {
	payload := []byte{0x08, 0x13, 0x22}
	if len(target) < 128 {
		payload = append(payload, byte(len(target)))
	} else {
		payload = append(payload, byte(len(target)&0x7f|0x80), byte(len(target)>>7))
	}
	payload = append(payload, target...)
	payload = append(payload, 0xd2, 0x01, 0x00)
	return "https://news.google.com/rss/articles/" + base64.RawURLEncoding.EncodeToString(payload) + "?oc=5"
}

func TestDecodeNewsURL(t *testing.T) {
	long := "https://www.bbc.co.uk/news/articles/" + strings.Repeat("x", 150)

	tests := []struct {
		name   string
		link   string
		want   string
		wantOK bool
	}{
		{"short url", newsLink("https://www.bbc.co.uk/news/uk-1"), "https://www.bbc.co.uk/news/uk-1", true},
		{"long url", newsLink(long), long, true},
		{"publisher link untouched", "https://www.reuters.com/world/a", "https://www.reuters.com/world/a", true},
		{"opaque id", "https://news.google.com/rss/articles/AU_yqLNotAUrl?oc=5", "", false},
		{"no article path", "https://news.google.com/topics/abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeNewsURL(tt.link)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("DecodeNewsURL = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSplitHeadline(t *testing.T) {
	title, publisher := splitHeadline("Small boat crossings hit record - BBC News")
	if title != "Small boat crossings hit record" || publisher != "BBC News" {
		t.Errorf("got %q, %q", title, publisher)
	}

	title, publisher = splitHeadline("No publisher here")
	if title != "No publisher here" || publisher != "" {
		t.Errorf("got %q, %q", title, publisher)
	}
}

func TestNewsFeed_Search(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>search</title>
<item><title>Crossings hit record - BBC News</title><link>%s</link><pubDate>Mon, 01 Jul 2024 10:00:00 GMT</pubDate></item>
<item><title>Blog post - Some Blog</title><link>https://someblog.example/post</link></item>
<item><title>Opaque - Reuters</title><link>https://news.google.com/rss/articles/AU_yqLopaque</link></item>
<item><title>Direct link</title><link>https://www.reuters.com/world/direct</link></item>
<item><title>Over limit - BBC News</title><link>https://www.bbc.co.uk/news/over</link></item>
</channel></rss>`, newsLink("https://www.bbc.co.uk/news/uk-1"))
	}))
	defer server.Close()

	unwrap := func(ctx context.Context, link string) (string, error) {
		return "https://www.reuters.com/world/unwrapped", nil
	}
	feed := NewNewsFeed(server.URL+"/rss/search", "CheckMate", nil, unwrap)
	allow := sources.NewAllowList([]string{"bbc.co.uk", "reuters.com"})

	got, err := feed.Search(context.Background(), "boat crossings", allow, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []Candidate{
		{Title: "Crossings hit record", URL: "https://www.bbc.co.uk/news/uk-1", Snippet: "Crossings hit record", Publisher: "BBC News", Date: "Mon, 01 Jul 2024 10:00:00 GMT"},
		{Title: "Opaque", URL: "https://www.reuters.com/world/unwrapped", Snippet: "Opaque", Publisher: "Reuters"},
		{Title: "Direct link", URL: "https://www.reuters.com/world/direct", Snippet: "Direct link", Publisher: "reuters.com"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(gotQuery, "site:bbc.co.uk OR site:reuters.com") {
		t.Errorf("query not restricted: %q", gotQuery)
	}
}

func TestCustomSearch_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/customsearch/v1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("cx") != "engine" || q.Get("num") != "5" {
			t.Errorf("unexpected params %v", q)
		}
		if !strings.HasPrefix(q.Get("q"), "crime doubled (site:") {
			t.Errorf("unexpected q %q", q.Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"title": "Report PDF", "link": "https://www.bbc.co.uk/report.pdf", "fileFormat": "PDF/Adobe Acrobat"},
			{"title": "Crime figures", "link": "https://www.bbc.co.uk/news/crime", "snippet": "short",
			 "pagemap": {"metatags": [{"og:description": "Crime figures explained", "og:site_name": "BBC News", "article:published_time": "2024-02-01"}]}},
			{"title": "Elsewhere", "link": "https://example.com/crime", "snippet": "x"}
		]}`))
	}))
	defer server.Close()

	cs, err := NewCustomSearch(context.Background(), CustomSearchConfig{APIKey: "k", EngineID: "engine", Endpoint: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewCustomSearch failed: %v", err)
	}

	got, err := cs.Search(context.Background(), "crime doubled", sources.NewAllowList([]string{"bbc.co.uk"}), 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []Candidate{{
		Title:     "Crime figures",
		URL:       "https://www.bbc.co.uk/news/crime",
		Snippet:   "Crime figures explained",
		Publisher: "BBC News",
		Date:      "2024-02-01",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestNewCustomSearch_MissingConfig(t *testing.T) {
	if _, err := NewCustomSearch(context.Background(), CustomSearchConfig{APIKey: "k"}); err == nil {
		t.Error("expected error without engine id")
	}
}
