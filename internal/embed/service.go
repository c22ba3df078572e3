package embed

import (
	"context"
	"fmt"
)

// Service scores text against text on the 0-100 scale
type Service struct {
	embedder Embedder
}

// NewService wraps an embedder
func NewService(embedder Embedder) *Service {
	return &Service{embedder: embedder}
}

// Embedder returns the underlying embedder
func (s *Service) Embedder() Embedder {
	return s.embedder
}

// Embed normalises text and embeds it
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, Normalize(text))
}

// EmbedBatch normalises texts and embeds them in one call
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = Normalize(t)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(vectors), len(texts))
	}
	return vectors, nil
}

// Similarity scores two texts
func (s *Service) Similarity(ctx context.Context, a, b string) (float64, error) {
	scores, err := s.Similarities(ctx, a, []string{b})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// Similarities scores text against each candidate with a single batch call
func (s *Service) Similarities(ctx context.Context, text string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	vectors, err := s.EmbedBatch(ctx, append([]string{text}, candidates...))
	if err != nil {
		return nil, err
	}

	return ScoreAgainst(vectors[0], vectors[1:]), nil
}

// ScoreAgainst scores a precomputed vector against candidate vectors
func ScoreAgainst(vector []float32, candidates [][]float32) []float64 {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = Percent(CosineSimilarity(vector, c))
	}
	return scores
}
