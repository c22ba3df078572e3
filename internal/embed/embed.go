// Package embed turns text into vectors and compares them.
package embed

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ErrEmbedding wraps every failure from an embedding backend
var ErrEmbedding = errors.New("embedding failed")

// Embedder generates vector embeddings from text.
// EmbedBatch must return one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Normalize collapses newlines and runs of whitespace into single spaces.
// Embeddings are sensitive to the exact token sequence, so every text is
// normalised before it is sent.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// Mismatched or zero-length vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Percent rescales a cosine similarity to 0-100, rounded to 2 decimals.
// Opposed vectors score 0.
func Percent(cos float64) float64 {
	if cos <= 0 {
		return 0
	}
	return math.Round(min(cos, 1)*100*100) / 100
}
