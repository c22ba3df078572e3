// Package store persists previously fact-checked claims and their embeddings.
package store

import (
	"context"
	"errors"

	"github.com/ppiankov/checkmate/internal/model"
)

// ErrNotFound is returned by Get for an unknown id
var ErrNotFound = errors.New("claim record not found")

// Record is a fact-checked claim as stored in the database
type Record struct {
	ID        string         `json:"id" dynamodbav:"id"`
	Claim     string         `json:"claim" dynamodbav:"claim"`
	Speaker   string         `json:"speaker,omitempty" dynamodbav:"speaker,omitempty"`
	Date      string         `json:"date,omitempty" dynamodbav:"date,omitempty"`
	Reviews   []model.Review `json:"reviews,omitempty" dynamodbav:"reviews,omitempty"`
	Embedding []float32      `json:"embedding,omitempty" dynamodbav:"embedding,omitempty"`
}

// HasEmbedding reports whether the record carries a precomputed vector
func (r Record) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// ClaimStore is the persistent claim database. Scan returns every record
// with at least id, claim and embedding populated. Get returns the full record.
type ClaimStore interface {
	Scan(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Writer seeds the store
type Writer interface {
	Put(ctx context.Context, record Record) error
}

// ReadWriter is a store that can also be seeded
type ReadWriter interface {
	ClaimStore
	Writer
}
