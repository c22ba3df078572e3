package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/checkmate/internal/cache"
)

// CachedEmbedder is a read-through cache in front of another embedder
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	name  string
	ttl   time.Duration
}

// NewCachedEmbedder wraps next. name must identify the model and dimensions
// so vectors from different models never collide.
func NewCachedEmbedder(next Embedder, c cache.Cache, name string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: c, name: name, ttl: ttl}
}

// Embed returns a cached vector or embeds and stores it
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch only sends the texts that miss the cache, then merges results
// back into input order.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		var v []float32
		if cache.GetJSON(e.cache, e.key(text), &v) && len(v) > 0 {
			vectors[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := e.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(fresh), len(missing))
	}

	for j, v := range fresh {
		vectors[missingIdx[j]] = v
		_ = cache.SetJSON(e.cache, e.key(missing[j]), v, e.ttl)
	}

	return vectors, nil
}

func (e *CachedEmbedder) key(text string) string {
	return cache.Key("embed", e.name, text)
}
