// Package registry resolves claims against a structured fact-check registry.
package registry

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/checkmate/internal/embed"
	"github.com/ppiankov/checkmate/internal/extract"
	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/score"
	"github.com/ppiankov/checkmate/internal/sources"
)

// Resolver maps registry hits onto evidence
type Resolver struct {
	searcher Searcher
	sim      *embed.Service
	rank     bool
	logger   *log.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithSimilarity ranks hits by similarity to the claim before truncating
func WithSimilarity(sim *embed.Service) Option {
	return func(r *Resolver) {
		r.sim = sim
		r.rank = sim != nil
	}
}

// NewResolver creates a registry resolver
func NewResolver(searcher Searcher, logger *log.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		searcher: searcher,
		logger:   logging.OrDiscard(logger).WithPrefix("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Method identifies the evidence this resolver produces
func (r *Resolver) Method() model.Method {
	return model.MethodFactCheckRegistry
}

// Resolve queries the registry once with the claim text
func (r *Resolver) Resolve(ctx context.Context, claim model.Claim) model.Outcome {
	raw, err := r.searcher.Search(ctx, claim.Text)
	if err != nil {
		r.logger.Warn("registry search failed", "err", err)
		return model.Failed(err)
	}
	if len(raw) == 0 {
		return model.NotFound()
	}

	evidence := make([]model.EvidenceSource, len(raw))
	for i, c := range raw {
		evidence[i] = toEvidence(c)
	}

	if !r.rank {
		return model.Found(score.Truncate(evidence, model.MaxEvidence))
	}

	texts := make([]string, len(evidence))
	for i, e := range evidence {
		texts[i] = e.MatchedText
	}
	scores, err := r.sim.Similarities(ctx, claim.Text, texts)
	if err != nil {
		// Registry order is still a valid answer without scores.
		r.logger.Warn("registry similarity scoring failed", "err", err)
		return model.Found(score.Truncate(evidence, model.MaxEvidence))
	}
	for i := range evidence {
		evidence[i].Similarity = model.Similarity(scores[i])
	}

	return model.Found(score.Rank(evidence, model.MaxEvidence))
}

func toEvidence(c RawClaim) model.EvidenceSource {
	reviews := make([]model.Review, 0, len(c.Reviews))
	for _, r := range c.Reviews {
		reviews = append(reviews, toReview(r))
	}

	return model.EvidenceSource{
		Method:         model.MethodFactCheckRegistry,
		MatchedText:    strings.TrimSpace(c.Text),
		Speaker:        model.Speaker(c.Claimant),
		PublishingDate: c.ClaimDate,
		Review:         reviews,
	}
}

func toReview(r RawReview) model.Review {
	name := strings.TrimSpace(r.PublisherName)
	if name == "" {
		name = sources.PublisherName(r.URL)
	}

	site := strings.TrimSpace(r.PublisherSite)
	publisherURL := extract.Origin(r.URL)
	if site != "" {
		publisherURL = site
		if !strings.Contains(site, "://") {
			publisherURL = "https://" + site
		}
	}

	return model.NormalizeReview(model.Review{
		Publisher:    model.Publisher{Name: name, URL: publisherURL},
		URL:          r.URL,
		Title:        r.Title,
		Rating:       NormalizeRating(r.TextualRating),
		LanguageCode: r.LanguageCode,
		Extract:      model.None,
	})
}
