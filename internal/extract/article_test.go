package extract

import (
	"strings"
	"testing"
)

const samplePage = `<!doctype html>
<html lang="en-GB">
<head>
  <title>Fallback title</title>
  <meta property="og:title" content="Small boat crossings hit record">
  <meta name="description" content="Figures show 10,000 people crossed the Channel this year.">
  <meta property="og:site_name" content="BBC News">
  <meta property="article:published_time" content="2024-06-01T09:00:00Z">
  <script>window.tracking = true;</script>
</head>
<body>
  <nav><p>Home</p></nav>
  <article>
    <h1>Small boat crossings hit record</h1>
    <p>More than   10,000 people have crossed.</p>
    <p>The Home Office confirmed the figure.</p>
  </article>
  <footer><p>Copyright</p></footer>
</body>
</html>`

func TestParseArticle(t *testing.T) {
	a, err := ParseArticle(samplePage, "https://www.bbc.co.uk/news/uk-1")
	if err != nil {
		t.Fatalf("ParseArticle failed: %v", err)
	}

	if a.Title != "Small boat crossings hit record" {
		t.Errorf("Title = %q", a.Title)
	}
	if !strings.HasPrefix(a.Description, "Figures show 10,000") {
		t.Errorf("Description = %q", a.Description)
	}
	if a.Publisher != "BBC News" {
		t.Errorf("Publisher = %q", a.Publisher)
	}
	if a.Date != "2024-06-01T09:00:00Z" {
		t.Errorf("Date = %q", a.Date)
	}
	if a.Lang != "en" {
		t.Errorf("Lang = %q", a.Lang)
	}
	if a.Text != "More than 10,000 people have crossed.\nThe Home Office confirmed the figure." {
		t.Errorf("Text = %q", a.Text)
	}
}

func TestParseArticle_Fallbacks(t *testing.T) {
	page := `<html><head><title> Only title </title></head><body><div>Loose body text</div></body></html>`
	a, err := ParseArticle(page, "https://example.com/a")
	if err != nil {
		t.Fatalf("ParseArticle failed: %v", err)
	}
	if a.Title != "Only title" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Text != "Loose body text" {
		t.Errorf("Text = %q", a.Text)
	}
	if a.Description != "" || a.Publisher != "" {
		t.Errorf("expected empty metadata, got %q / %q", a.Description, a.Publisher)
	}
}

func TestOrigin(t *testing.T) {
	cases := map[string]string{
		"https://www.bbc.co.uk/news/uk-1?x=1": "https://www.bbc.co.uk",
		"http://example.com":                  "http://example.com",
		"not a url":                           "",
	}
	for in, want := range cases {
		if got := Origin(in); got != want {
			t.Errorf("Origin(%q) = %q, want %q", in, got, want)
		}
	}
}
