// Package sources decides which publishers the web search resolver may cite.
package sources

import (
	"net/url"
	"strings"
)

// AllowList matches URLs against a set of publisher domains. A domain also
// admits its subdomains, so "bbc.co.uk" matches "www.bbc.co.uk".
type AllowList struct {
	domains []string
	exact   map[string]bool
}

// NewAllowList creates an allow-list from domains. Entries are lowercased
// and stripped of scheme, "www." and trailing slashes; blanks and
// duplicates are dropped.
func NewAllowList(domains []string) *AllowList {
	a := &AllowList{exact: make(map[string]bool)}

	for _, d := range domains {
		d = normalizeDomain(d)
		if d == "" || a.exact[d] {
			continue
		}
		a.exact[d] = true
		a.domains = append(a.domains, d)
	}

	return a
}

// Domains returns the normalised domains in configuration order
func (a *AllowList) Domains() []string {
	out := make([]string, len(a.domains))
	copy(out, a.domains)
	return out
}

// Len returns the number of domains
func (a *AllowList) Len() int {
	return len(a.domains)
}

// Allows reports whether rawURL is hosted by an allowed publisher
func (a *AllowList) Allows(rawURL string) bool {
	return a.Publisher(rawURL) != ""
}

// Publisher returns the allow-list domain that admits rawURL, or "" when
// none does. Subdomains resolve to their listed parent (news.bbc.co.uk
// gives bbc.co.uk).
func (a *AllowList) Publisher(rawURL string) string {
	host := Hostname(rawURL)
	if host == "" {
		return ""
	}

	if a.exact[host] {
		return host
	}

	for _, d := range a.domains {
		if strings.HasSuffix(host, "."+d) {
			return d
		}
	}

	return ""
}

// SiteQuery builds the search-operator restriction for the allow-list,
// e.g. "site:apnews.com OR site:reuters.com"
func (a *AllowList) SiteQuery() string {
	parts := make([]string, len(a.domains))
	for i, d := range a.domains {
		parts[i] = "site:" + d
	}
	return strings.Join(parts, " OR ")
}

// Restrict appends the allow-list restriction to a query
func (a *AllowList) Restrict(query string) string {
	if len(a.domains) == 0 {
		return query
	}
	return query + " (" + a.SiteQuery() + ")"
}

// Hostname returns the lowercased host of rawURL without port or "www."
func Hostname(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// PublisherName is the fallback publisher label for a URL: its host
// without "www."
func PublisherName(rawURL string) string {
	return Hostname(rawURL)
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if strings.Contains(d, "://") {
		return Hostname(d)
	}
	d = strings.TrimSuffix(d, "/")
	return strings.TrimPrefix(d, "www.")
}
