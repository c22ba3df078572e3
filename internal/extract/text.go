package extract

import (
	"strings"

	"github.com/ppiankov/checkmate/internal/model"
	"golang.org/x/net/html"
)

// StripHTML returns the text content of an HTML fragment, skipping
// script and style bodies. Plain text passes through unchanged.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	var buf strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if isHiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				buf.Write(z.Text())
			}
		}
	}
}

func isHiddenTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "iframe":
		return true
	}
	return false
}

// StripNonASCII drops every rune outside the 7-bit ASCII range
func StripNonASCII(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// CollapseWhitespace replaces runs of whitespace with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanExtract prepares a quoted passage for output: markup and non-ASCII
// characters are removed and an empty result becomes "None".
func CleanExtract(s string) string {
	if model.IsNone(s) {
		return model.None
	}
	return model.OrNone(CollapseWhitespace(StripNonASCII(StripHTML(s))))
}
