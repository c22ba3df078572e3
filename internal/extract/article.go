package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Article is the readable content of a news page
type Article struct {
	URL         string
	Title       string
	Description string
	Publisher   string
	Date        string
	Lang        string
	Text        string
}

// ParseArticle pulls title, metadata and body text out of an article page
func ParseArticle(htmlContent, pageURL string) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse article: %w", err)
	}

	a := &Article{
		URL:         pageURL,
		Title:       firstNonEmpty(metaContent(doc, "og:title"), doc.Find("title").First().Text(), doc.Find("h1").First().Text()),
		Description: firstNonEmpty(metaContent(doc, "description"), metaContent(doc, "og:description"), metaContent(doc, "twitter:description")),
		Publisher:   metaContent(doc, "og:site_name"),
		Date: firstNonEmpty(
			metaContent(doc, "article:published_time"),
			metaContent(doc, "date"),
			metaContent(doc, "pubdate"),
			attr(doc.Find("time[datetime]").First(), "datetime"),
		),
		Lang: normalizeLang(attr(doc.Find("html").First(), "lang")),
		Text: bodyText(doc),
	}

	a.Title = CollapseWhitespace(a.Title)
	a.Description = CollapseWhitespace(a.Description)
	return a, nil
}

// metaContent reads <meta name=...> or <meta property=...>
func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[name="%s"], meta[property="%s"]`, key, key)).First()
	return strings.TrimSpace(attr(sel, "content"))
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}

// bodyText joins paragraph text, preferring the <article> element when the
// page has one.
func bodyText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, iframe, nav, footer, aside").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 || strings.TrimSpace(root.Text()) == "" {
		root = doc.Find("body")
	}

	var paragraphs []string
	root.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := CollapseWhitespace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return CollapseWhitespace(root.Text())
	}
	return strings.Join(paragraphs, "\n")
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

// Origin returns scheme://host of a URL
func Origin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
