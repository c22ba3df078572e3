package search

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/checkmate/internal/sources"
)

// Unwrapper resolves a redirector link to the article it points at
type Unwrapper func(ctx context.Context, link string) (string, error)

// NewsFeed searches a news aggregator RSS endpoint (Google News search by
// default). Aggregator links are decoded or followed to the publisher URL.
type NewsFeed struct {
	parser  *gofeed.Parser
	feedURL string
	unwrap  Unwrapper
}

// NewNewsFeed creates a feed searcher. client and unwrap may be nil.
func NewNewsFeed(feedURL, userAgent string, client *http.Client, unwrap Unwrapper) *NewsFeed {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	if client != nil {
		parser.Client = client
	}

	return &NewsFeed{parser: parser, feedURL: feedURL, unwrap: unwrap}
}

// Name returns the searcher name
func (n *NewsFeed) Name() string {
	return "newsfeed"
}

// Search returns up to limit feed items whose resolved URL is allowed
func (n *NewsFeed) Search(ctx context.Context, query string, allow *sources.AllowList, limit int) ([]Candidate, error) {
	if limit <= 0 {
		return []Candidate{}, nil
	}

	feedURL, err := n.queryURL(allow.Restrict(query))
	if err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("news feed: %w", err)
	}

	candidates := make([]Candidate, 0, limit)
	for _, item := range feed.Items {
		if len(candidates) == limit {
			break
		}
		if item == nil || item.Link == "" {
			continue
		}

		link, ok := DecodeNewsURL(item.Link)
		if !ok {
			if n.unwrap == nil {
				continue
			}
			if link, err = n.unwrap(ctx, item.Link); err != nil {
				continue
			}
		}
		if allow.Len() > 0 && !allow.Allows(link) {
			continue
		}

		title, publisher := splitHeadline(item.Title)
		if publisher == "" {
			publisher = sources.PublisherName(link)
		}

		candidates = append(candidates, Candidate{
			Title:     title,
			URL:       link,
			Snippet:   title,
			Publisher: publisher,
			Date:      item.Published,
		})
	}

	return candidates, nil
}

func (n *NewsFeed) queryURL(query string) (string, error) {
	u, err := url.Parse(n.feedURL)
	if err != nil {
		return "", fmt.Errorf("parse feed URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	if q.Get("hl") == "" {
		q.Set("hl", "en-GB")
		q.Set("gl", "GB")
		q.Set("ceid", "GB:en")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// splitHeadline separates an aggregator title "Headline - Publisher"
func splitHeadline(title string) (string, string) {
	title = strings.TrimSpace(title)
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

// DecodeNewsURL extracts the publisher URL embedded in a Google News
// article link. Links to other hosts are returned unchanged. The second
// result is false when the link is an aggregator link without an embedded
// URL and must be followed instead.
func DecodeNewsURL(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(u.Hostname()), "news.google.com") {
		return link, true
	}

	idx := strings.Index(u.Path, "/articles/")
	if idx < 0 {
		return "", false
	}
	id := strings.TrimRight(u.Path[idx+len("/articles/"):], "=/")

	data, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", false
	}

	// The id is a protobuf message; the URL field is length-prefixed
	// with a one- or two-byte varint.
	start := bytes.Index(data, []byte("http"))
	if start < 1 {
		return "", false
	}
	n := int(data[start-1])
	if start >= 2 && data[start-2]&0x80 != 0 {
		n = int(data[start-2]&0x7f) | n<<7
	}
	end := start + n
	if end > len(data) {
		end = len(data)
	}

	decoded := string(data[start:end])
	parsed, err := url.Parse(decoded)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	return decoded, true
}
