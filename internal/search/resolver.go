package search

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/checkmate/internal/embed"
	"github.com/ppiankov/checkmate/internal/extract"
	"github.com/ppiankov/checkmate/internal/llm"
	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/score"
	"github.com/ppiankov/checkmate/internal/sources"
)

// DefaultRelevanceThreshold is the similarity (0-100) a fallback article
// needs when its review carries no verdict
const DefaultRelevanceThreshold = 40

// Config tunes the web search resolver
type Config struct {
	AllowList          *sources.AllowList
	SearchLimit        int
	FeedLimit          int
	RelevanceThreshold float64
	ArticleWorkers     int
	Language           string // used when a page does not declare one
}

// Resolver searches allowed publishers and reviews what they say
type Resolver struct {
	primary  Searcher
	fallback Searcher
	fetcher  ArticleFetcher
	reviewer Reviewer
	sim      *embed.Service
	cfg      Config
	logger   *log.Logger
}

// NewResolver creates a web search resolver. fallback may be nil.
func NewResolver(primary, fallback Searcher, fetcher ArticleFetcher, reviewer Reviewer, sim *embed.Service, cfg Config, logger *log.Logger) *Resolver {
	if cfg.AllowList == nil {
		cfg.AllowList = sources.NewAllowList(model.DefaultPublisherDomains)
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = 5
	}
	if cfg.RelevanceThreshold <= 0 {
		cfg.RelevanceThreshold = DefaultRelevanceThreshold
	}
	if cfg.ArticleWorkers <= 0 {
		cfg.ArticleWorkers = 5
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}

	return &Resolver{
		primary:  primary,
		fallback: fallback,
		fetcher:  fetcher,
		reviewer: reviewer,
		sim:      sim,
		cfg:      cfg,
		logger:   logging.OrDiscard(logger).WithPrefix("search"),
	}
}

// Method identifies the evidence this resolver produces
func (r *Resolver) Method() model.Method {
	return model.MethodWebSearchReview
}

// reviewed is one candidate after fetch, review and scoring
type reviewed struct {
	candidate  Candidate
	article    *extract.Article
	review     llm.ArticleReview
	similarity *float64
}

// Resolve runs the primary search, then the fallback feed when no primary
// article yields evidence. Failure of every search path is reported as Failed.
// When the claim cannot be embedded the search still runs and evidence
// carries no similarity.
func (r *Resolver) Resolve(ctx context.Context, claim model.Claim) model.Outcome {
	claimVec, err := r.sim.Embed(ctx, claim.Text)
	if err != nil {
		r.logger.Warn("claim embedding failed, scoring skipped", "err", err)
		claimVec = nil
	}

	var kept []reviewed

	candidates, primaryErr := r.primary.Search(ctx, claim.Text, r.cfg.AllowList, r.cfg.SearchLimit)
	if primaryErr != nil {
		r.logger.Warn("primary search failed", "searcher", r.primary.Name(), "err", primaryErr)
	} else {
		for _, item := range r.reviewAll(ctx, claim.Text, claimVec, candidates) {
			if !item.review.Empty() {
				kept = append(kept, item)
			}
		}
	}

	if len(kept) == 0 && r.fallback != nil {
		candidates, fallbackErr := r.fallback.Search(ctx, claim.Text, r.cfg.AllowList, r.cfg.FeedLimit)
		if fallbackErr != nil {
			r.logger.Warn("fallback search failed", "searcher", r.fallback.Name(), "err", fallbackErr)
			if primaryErr != nil {
				return model.Failed(errors.Join(primaryErr, fallbackErr))
			}
			return model.NotFound()
		}
		r.logger.Debug("using fallback feed", "candidates", len(candidates))

		for _, item := range r.reviewAll(ctx, claim.Text, claimVec, candidates) {
			relevant := item.similarity != nil && *item.similarity > r.cfg.RelevanceThreshold
			if relevant || !model.IsNone(item.review.Summary) {
				kept = append(kept, item)
			}
		}
	} else if primaryErr != nil {
		return model.Failed(primaryErr)
	}

	evidence := make([]model.EvidenceSource, len(kept))
	for i, item := range kept {
		evidence[i] = r.toEvidence(item)
	}

	return model.Found(score.Rank(evidence, model.MaxEvidence))
}

// reviewAll fetches and reviews candidates concurrently, then scores them
// in one embedding batch. Output keeps candidate order; failed or empty
// articles are dropped.
func (r *Resolver) reviewAll(ctx context.Context, claim string, claimVec []float32, candidates []Candidate) []reviewed {
	slots := make([]*reviewed, len(candidates))

	var g errgroup.Group
	g.SetLimit(r.cfg.ArticleWorkers)

	for i, c := range candidates {
		g.Go(func() error {
			article, err := r.fetcher.FetchArticle(ctx, c.URL)
			if err != nil {
				r.logger.Warn("article fetch failed", "url", c.URL, "err", err)
				return nil
			}
			if strings.TrimSpace(article.Text) == "" {
				r.logger.Debug("article has no body text", "url", c.URL)
				return nil
			}

			review, err := r.reviewer.Review(ctx, claim, article.Text)
			if err != nil {
				r.logger.Warn("article review failed", "url", c.URL, "err", err)
			}

			slots[i] = &reviewed{candidate: c, article: article, review: review}
			return nil
		})
	}
	_ = g.Wait()

	var out []reviewed
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	if len(out) == 0 || len(claimVec) == 0 {
		return out
	}

	texts := make([]string, len(out))
	for i, item := range out {
		texts[i] = firstNonBlank(item.article.Description, item.candidate.Snippet, item.article.Title, item.candidate.Title)
	}
	vectors, err := r.sim.EmbedBatch(ctx, texts)
	if err != nil {
		r.logger.Warn("article similarity failed", "err", err)
		return out
	}
	for i, s := range embed.ScoreAgainst(claimVec, vectors) {
		out[i].similarity = model.Similarity(s)
	}

	return out
}

func (r *Resolver) toEvidence(item reviewed) model.EvidenceSource {
	a, c := item.article, item.candidate

	pageURL := firstNonBlank(a.URL, c.URL)
	title := firstNonBlank(a.Title, c.Title)
	lang := firstNonBlank(a.Lang, r.cfg.Language)
	publisher := firstNonBlank(a.Publisher, c.Publisher, sources.PublisherName(pageURL))

	return model.EvidenceSource{
		Method:         model.MethodWebSearchReview,
		MatchedText:    title,
		Speaker:        model.Speaker(item.review.Speaker),
		Similarity:     item.similarity,
		PublishingDate: firstNonBlank(a.Date, c.Date),
		Review: []model.Review{model.NormalizeReview(model.Review{
			Publisher:    model.Publisher{Name: publisher, URL: extract.Origin(pageURL)},
			URL:          pageURL,
			Title:        title,
			Rating:       item.review.Summary,
			LanguageCode: lang,
			Extract:      extract.CleanExtract(item.review.Extract),
		})},
	}
}
