package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/ppiankov/checkmate/internal/sources"
)

// maxCustomSearchResults is the API's per-request ceiling
const maxCustomSearchResults = 10

// CustomSearch queries a Google Programmable Search engine
type CustomSearch struct {
	svc *customsearch.Service
	cx  string
}

// CustomSearchConfig configures the web search client
type CustomSearchConfig struct {
	APIKey   string
	EngineID string
	Endpoint string // optional override of the API base URL
}

// NewCustomSearch creates a web search client
func NewCustomSearch(ctx context.Context, cfg CustomSearchConfig) (*CustomSearch, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, fmt.Errorf("search API key and engine id are required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}

	return &CustomSearch{svc: svc, cx: cfg.EngineID}, nil
}

// Name returns the searcher name
func (c *CustomSearch) Name() string {
	return "customsearch"
}

// Search returns up to limit allowed hits. Document results (PDF, DOC)
// carry a fileFormat and are skipped.
func (c *CustomSearch) Search(ctx context.Context, query string, allow *sources.AllowList, limit int) ([]Candidate, error) {
	if limit <= 0 {
		return []Candidate{}, nil
	}
	num := limit
	if num > maxCustomSearchResults {
		num = maxCustomSearchResults
	}

	resp, err := c.svc.Cse.List().Cx(c.cx).Q(allow.Restrict(query)).Num(int64(num)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("custom search: %w", err)
	}

	candidates := make([]Candidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.FileFormat != "" {
			continue
		}
		if allow.Len() > 0 && !allow.Allows(item.Link) {
			continue
		}

		meta := firstMetatags(item.Pagemap)
		candidates = append(candidates, Candidate{
			Title:     strings.TrimSpace(item.Title),
			URL:       item.Link,
			Snippet:   firstNonBlank(meta["og:description"], item.Snippet),
			Publisher: meta["og:site_name"],
			Date:      meta["article:published_time"],
		})
		if len(candidates) == limit {
			break
		}
	}

	return candidates, nil
}

// firstMetatags reads pagemap.metatags[0], keeping string values only
func firstMetatags(raw []byte) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}

	var pm struct {
		Metatags []map[string]any `json:"metatags"`
	}
	if err := json.Unmarshal(raw, &pm); err != nil || len(pm.Metatags) == 0 {
		return out
	}

	for k, v := range pm.Metatags[0] {
		if s, ok := v.(string); ok {
			out[k] = strings.TrimSpace(s)
		}
	}
	return out
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
