package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/checkmate/internal/model"
)

// MemoryStore keeps records in process. Scan order is insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]Record
}

// NewMemoryStore creates a store seeded with records
func NewMemoryStore(records ...Record) *MemoryStore {
	s := &MemoryStore{records: make(map[string]Record)}
	for _, r := range records {
		_ = s.Put(context.Background(), r)
	}
	return s
}

// Put inserts or replaces a record
func (s *MemoryStore) Put(ctx context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

// Scan returns all records
func (s *MemoryStore) Scan(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneRecord(s.records[id]))
	}
	return out, nil
}

// Get returns one record
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r = cloneRecord(r)
	return &r, nil
}

// UpdateEmbedding stores a vector on an existing record
func (s *MemoryStore) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.Embedding = append([]float32(nil), embedding...)
	s.records[id] = r
	return nil
}

func cloneRecord(r Record) Record {
	r.Embedding = append([]float32(nil), r.Embedding...)
	if r.Reviews != nil {
		reviews := make([]model.Review, len(r.Reviews))
		copy(reviews, r.Reviews)
		r.Reviews = reviews
	}
	return r
}
