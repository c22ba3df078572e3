package registry

import (
	"context"
	"fmt"

	"google.golang.org/api/factchecktools/v1alpha1"
	"google.golang.org/api/option"
)

// RawClaim is one claim as returned by the registry
type RawClaim struct {
	Text      string
	Claimant  string
	ClaimDate string
	Reviews   []RawReview
}

// RawReview is one publisher's review of a RawClaim
type RawReview struct {
	PublisherName string
	PublisherSite string
	URL           string
	Title         string
	TextualRating string
	LanguageCode  string
	ReviewDate    string
}

// Searcher queries a claim-review registry
type Searcher interface {
	Search(ctx context.Context, query string) ([]RawClaim, error)
}

// FactCheckTools queries the Google Fact Check Tools claims:search endpoint
type FactCheckTools struct {
	svc      *factchecktools.Service
	language string
	pageSize int64
}

// FactCheckConfig configures the registry client
type FactCheckConfig struct {
	APIKey   string
	Endpoint string // optional override of the API base URL
	Language string
	PageSize int
}

// NewFactCheckTools creates a registry client
func NewFactCheckTools(ctx context.Context, cfg FactCheckConfig) (*FactCheckTools, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("fact check API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := factchecktools.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create fact check service: %w", err)
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}

	return &FactCheckTools{svc: svc, language: cfg.Language, pageSize: int64(cfg.PageSize)}, nil
}

// Search returns the registry claims matching query in registry order
func (f *FactCheckTools) Search(ctx context.Context, query string) ([]RawClaim, error) {
	call := f.svc.Claims.Search().Query(query).PageSize(f.pageSize).Context(ctx)
	if f.language != "" {
		call = call.LanguageCode(f.language)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("claims search: %w", err)
	}

	claims := make([]RawClaim, 0, len(resp.Claims))
	for _, c := range resp.Claims {
		if c == nil {
			continue
		}
		raw := RawClaim{Text: c.Text, Claimant: c.Claimant, ClaimDate: c.ClaimDate}
		for _, r := range c.ClaimReview {
			if r == nil {
				continue
			}
			review := RawReview{
				URL:           r.Url,
				Title:         r.Title,
				TextualRating: r.TextualRating,
				LanguageCode:  r.LanguageCode,
				ReviewDate:    r.ReviewDate,
			}
			if r.Publisher != nil {
				review.PublisherName = r.Publisher.Name
				review.PublisherSite = r.Publisher.Site
			}
			raw.Reviews = append(raw.Reviews, review)
		}
		claims = append(claims, raw)
	}

	return claims, nil
}
