// Package search resolves claims by searching the web for coverage and
// asking a generative reviewer what each article says about the claim.
package search

import (
	"context"

	"github.com/ppiankov/checkmate/internal/extract"
	"github.com/ppiankov/checkmate/internal/llm"
	"github.com/ppiankov/checkmate/internal/sources"
)

// Candidate is a search hit before its page is fetched
type Candidate struct {
	Title     string
	URL       string
	Snippet   string
	Publisher string
	Date      string
}

// Searcher finds candidate articles on allowed publishers
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, allow *sources.AllowList, limit int) ([]Candidate, error)
}

// ArticleFetcher downloads and parses article pages
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, rawURL string) (*extract.Article, error)
}

// Reviewer judges an article against a claim
type Reviewer interface {
	Review(ctx context.Context, claim, articleText string) (llm.ArticleReview, error)
}
