// Package claimdb matches a claim against the database of previously
// fact-checked claims by embedding similarity.
package claimdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/checkmate/internal/embed"
	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/store"
)

// ErrPersistence marks a failed embedding write-back. The resolver aborts
// instead of matching against a partially cached database.
var ErrPersistence = errors.New("claim database persistence failed")

// DefaultThreshold is the minimum cosine similarity for a match
const DefaultThreshold = 0.60

// embedChunkSize bounds one embedding request for stored claims, well under
// the provider's per-request input limit
const embedChunkSize = 512

// Resolver finds the closest stored claim above a similarity threshold
type Resolver struct {
	store     store.ClaimStore
	embedder  *embed.Service
	threshold float64
	locks     *keyedMutex
	logger    *log.Logger
}

// NewResolver creates a resolver. A threshold <= 0 uses DefaultThreshold.
func NewResolver(s store.ClaimStore, embedder *embed.Service, threshold float64, logger *log.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{
		store:     s,
		embedder:  embedder,
		threshold: threshold,
		locks:     newKeyedMutex(),
		logger:    logging.OrDiscard(logger).WithPrefix("claimdb"),
	}
}

// Method identifies the resolver
func (r *Resolver) Method() model.Method {
	return model.MethodClaimDatabase
}

// Resolve returns at most one evidence entry for the closest stored claim
func (r *Resolver) Resolve(ctx context.Context, claim model.Claim) model.Outcome {
	records, err := r.store.Scan(ctx)
	if err != nil {
		return model.Failed(fmt.Errorf("scan claim database: %w", err))
	}
	if len(records) == 0 {
		return model.NotFound()
	}

	claimVec, err := r.embedder.Embed(ctx, claim.Text)
	if err != nil {
		return model.Failed(fmt.Errorf("embed claim: %w", err))
	}

	if err := r.fillEmbeddings(ctx, records); err != nil {
		return model.Failed(err)
	}

	best, bestIdx := bestMatch(claimVec, records)
	if bestIdx < 0 || best < r.threshold {
		r.logger.Debug("no match above threshold", "best", best, "threshold", r.threshold)
		return model.NotFound()
	}

	matched := records[bestIdx]
	full, err := r.store.Get(ctx, matched.ID)
	if err != nil {
		return model.Failed(fmt.Errorf("load matched claim %s: %w", matched.ID, err))
	}

	return model.Found([]model.EvidenceSource{toEvidence(*full, embed.Percent(best))})
}

// fillEmbeddings embeds records that have no stored vector in chunks and
// writes each chunk back before requesting the next, so a failure part way
// through still leaves earlier chunks stored for the next call.
func (r *Resolver) fillEmbeddings(ctx context.Context, records []store.Record) error {
	var missing []int
	for i, rec := range records {
		if !rec.HasEmbedding() {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	for start := 0; start < len(missing); start += embedChunkSize {
		chunk := missing[start:min(start+embedChunkSize, len(missing))]

		texts := make([]string, len(chunk))
		for j, i := range chunk {
			texts[j] = records[i].Claim
		}

		vectors, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed stored claims %d-%d of %d: %w", start, start+len(chunk), len(missing), err)
		}

		for j, i := range chunk {
			if err := r.persist(ctx, records[i].ID, vectors[j]); err != nil {
				return err
			}
			records[i].Embedding = vectors[j]
		}
	}

	r.logger.Debug("cached missing embeddings", "count", len(missing))
	return nil
}

func (r *Resolver) persist(ctx context.Context, id string, vector []float32) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	if err := r.store.UpdateEmbedding(ctx, id, vector); err != nil {
		return fmt.Errorf("%w: record %s: %v", ErrPersistence, id, err)
	}
	return nil
}

// bestMatch returns the highest cosine similarity and its index. Ties keep
// the first record.
func bestMatch(vector []float32, records []store.Record) (float64, int) {
	best, bestIdx := 0.0, -1
	for i, rec := range records {
		sim := embed.CosineSimilarity(vector, rec.Embedding)
		if bestIdx < 0 || sim > best {
			best, bestIdx = sim, i
		}
	}
	return best, bestIdx
}

func toEvidence(rec store.Record, similarity float64) model.EvidenceSource {
	reviews := make([]model.Review, 0, len(rec.Reviews))
	for _, rv := range rec.Reviews {
		reviews = append(reviews, model.NormalizeReview(rv))
	}

	return model.EvidenceSource{
		Method:         model.MethodClaimDatabase,
		MatchedText:    rec.Claim,
		Speaker:        model.Speaker(rec.Speaker),
		Similarity:     model.Similarity(similarity),
		PublishingDate: rec.Date,
		Review:         reviews,
	}
}
