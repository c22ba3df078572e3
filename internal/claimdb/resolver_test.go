package claimdb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/checkmate/internal/embed"
	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/store"
)

// vectorEmbedder maps known texts to fixed vectors
type vectorEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	batches int
	err     error
	limit   int // reject batches larger than this when > 0
	failOn  int // fail the n-th batch call when > 0
	largest int
}

func (e *vectorEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (e *vectorEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches++
	e.largest = max(e.largest, len(texts))
	if e.err != nil {
		return nil, e.err
	}
	if e.limit > 0 && len(texts) > e.limit {
		return nil, fmt.Errorf("%d inputs exceeds limit of %d", len(texts), e.limit)
	}
	if e.failOn > 0 && e.batches == e.failOn {
		return nil, errors.New("embedding service unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := e.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

// unit returns a 2D vector with the given cosine against {1, 0}
func unit(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

// recordingStore wraps a MemoryStore to observe and fail writes
type recordingStore struct {
	*store.MemoryStore
	mu        sync.Mutex
	inflight  map[string]int
	overlap   bool
	updates   int
	updateErr error
}

func newRecordingStore(records ...store.Record) *recordingStore {
	return &recordingStore{MemoryStore: store.NewMemoryStore(records...), inflight: make(map[string]int)}
}

func (s *recordingStore) UpdateEmbedding(ctx context.Context, id string, v []float32) error {
	s.mu.Lock()
	s.updates++
	s.inflight[id]++
	if s.inflight[id] > 1 {
		s.overlap = true
	}
	err := s.updateErr
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	s.inflight[id]--
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.MemoryStore.UpdateEmbedding(ctx, id, v)
}

const claimText = "The Earth revolves around the Sun."

func TestResolve_BelowThresholdReturnsEmpty(t *testing.T) {
	// Every stored claim is unrelated, best similarity 0.3
	e := &vectorEmbedder{vectors: map[string][]float32{claimText: {1, 0}}}
	s := store.NewMemoryStore(
		store.Record{ID: "a", Claim: "unrelated a", Embedding: unit(0.3)},
		store.Record{ID: "b", Claim: "unrelated b", Embedding: unit(0.1)},
	)
	r := NewResolver(s, embed.NewService(e), 0.60, nil)

	out := r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status != model.StatusNotFound {
		t.Fatalf("expected not_found, got %v (%v)", out.Status, out.Err)
	}
	if len(out.EvidenceOrEmpty()) != 0 {
		t.Errorf("expected no evidence, got %v", out.Evidence)
	}
}

func TestResolve_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		cos       float64
		wantFound bool
		wantScore float64
	}{
		{"just below", 0.59, false, 0},
		{"above", 0.61, true, 61},
		{"identical", 1, true, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &vectorEmbedder{vectors: map[string][]float32{claimText: {1, 0}}}
			s := store.NewMemoryStore(store.Record{
				ID:        "match",
				Claim:     "stored claim",
				Speaker:   "",
				Date:      "2024-01-02",
				Reviews:   []model.Review{{URL: "https://fullfact.org/x", Rating: "False"}},
				Embedding: unit(tt.cos),
			})
			r := NewResolver(s, embed.NewService(e), 0.60, nil)

			out := r.Resolve(context.Background(), model.NewClaim(claimText))
			if (out.Status == model.StatusFound) != tt.wantFound {
				t.Fatalf("status = %v, wantFound %v", out.Status, tt.wantFound)
			}
			if !tt.wantFound {
				return
			}

			if len(out.Evidence) != 1 {
				t.Fatalf("expected exactly 1 evidence entry, got %d", len(out.Evidence))
			}
			ev := out.Evidence[0]
			if ev.Method != model.MethodClaimDatabase {
				t.Errorf("method = %v", ev.Method)
			}
			if ev.Similarity == nil || *ev.Similarity != tt.wantScore {
				t.Errorf("similarity = %v, want %v", ev.Similarity, tt.wantScore)
			}
			if ev.Speaker != model.UnknownSpeaker {
				t.Errorf("speaker = %q, want unknown", ev.Speaker)
			}
			if ev.PublishingDate != "2024-01-02" {
				t.Errorf("date = %q", ev.PublishingDate)
			}
			if ev.Review[0].Extract != model.None {
				t.Errorf("extract = %q, want None", ev.Review[0].Extract)
			}
		})
	}
}

func TestResolve_TieKeepsFirstRecord(t *testing.T) {
	e := &vectorEmbedder{vectors: map[string][]float32{claimText: {1, 0}}}
	s := store.NewMemoryStore(
		store.Record{ID: "first", Claim: "first claim", Embedding: unit(0.8)},
		store.Record{ID: "second", Claim: "second claim", Embedding: unit(0.8)},
	)
	r := NewResolver(s, embed.NewService(e), 0.60, nil)

	out := r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status != model.StatusFound {
		t.Fatalf("expected found, got %v", out.Status)
	}
	if out.Evidence[0].MatchedText != "first claim" {
		t.Errorf("expected first record to win the tie, got %q", out.Evidence[0].MatchedText)
	}
}

func TestResolve_WritesThroughMissingEmbeddings(t *testing.T) {
	e := &vectorEmbedder{vectors: map[string][]float32{
		claimText:       {1, 0},
		"needs vector":  unit(0.9),
		"needs vector2": unit(0.2),
	}}
	s := newRecordingStore(
		store.Record{ID: "a", Claim: "needs vector"},
		store.Record{ID: "b", Claim: "needs vector2"},
		store.Record{ID: "c", Claim: "has vector", Embedding: unit(0.1)},
	)
	r := NewResolver(s, embed.NewService(e), 0, nil)

	out := r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status != model.StatusFound || out.Evidence[0].MatchedText != "needs vector" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if s.updates != 2 {
		t.Errorf("expected 2 write-backs, got %d", s.updates)
	}
	// claim embedding + one batch for the two missing records
	if e.batches != 2 {
		t.Errorf("expected 2 embedding calls, got %d", e.batches)
	}

	rec, _ := s.Get(context.Background(), "a")
	if !rec.HasEmbedding() {
		t.Error("embedding was not persisted")
	}
}

func TestResolve_PersistenceFailureIsFatal(t *testing.T) {
	e := &vectorEmbedder{vectors: map[string][]float32{claimText: {1, 0}, "x": {1, 0}}}
	s := newRecordingStore(store.Record{ID: "x", Claim: "x"})
	s.updateErr = errors.New("write refused")
	r := NewResolver(s, embed.NewService(e), 0.60, nil)

	out := r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status != model.StatusFailed {
		t.Fatalf("expected failed, got %v", out.Status)
	}
	if !errors.Is(out.Err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", out.Err)
	}
	if len(out.Evidence) != 0 {
		t.Error("no evidence may be returned after a persistence failure")
	}
}

func TestResolve_EmbeddingFailure(t *testing.T) {
	e := &vectorEmbedder{err: embed.ErrEmbedding}
	s := store.NewMemoryStore(store.Record{ID: "x", Claim: "x", Embedding: []float32{1}})
	r := NewResolver(s, embed.NewService(e), 0.60, nil)

	out := r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status != model.StatusFailed || !errors.Is(out.Err, embed.ErrEmbedding) {
		t.Errorf("expected failed with ErrEmbedding, got %v / %v", out.Status, out.Err)
	}
}

func TestResolve_EmptyStore(t *testing.T) {
	e := &vectorEmbedder{}
	r := NewResolver(store.NewMemoryStore(), embed.NewService(e), 0.60, nil)

	out := r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status != model.StatusNotFound {
		t.Errorf("expected not_found, got %v", out.Status)
	}
	if e.batches != 0 {
		t.Error("empty store should not trigger any embedding call")
	}
}

func TestResolve_ConcurrentWritersAreSerialised(t *testing.T) {
	e := &vectorEmbedder{vectors: map[string][]float32{claimText: {1, 0}}}
	s := newRecordingStore(
		store.Record{ID: "shared", Claim: "shared claim"},
	)
	r := NewResolver(s, embed.NewService(e), 0.60, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Resolve(context.Background(), model.NewClaim(claimText))
		}()
	}
	wg.Wait()

	if s.overlap {
		t.Error("two writers updated the same record concurrently")
	}
	if r.locks.size() != 0 {
		t.Errorf("expected lock table to drain, %d entries left", r.locks.size())
	}
}

func unembeddedStore(n int) *store.MemoryStore {
	s := store.NewMemoryStore()
	for i := range n {
		_ = s.Put(context.Background(), store.Record{ID: fmt.Sprintf("c%04d", i), Claim: fmt.Sprintf("stored claim %d", i)})
	}
	return s
}

func countEmbedded(t *testing.T, s store.ClaimStore) int {
	t.Helper()
	records, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, r := range records {
		if r.HasEmbedding() {
			n++
		}
	}
	return n
}

func TestResolve_LargeImportIsEmbeddedInChunks(t *testing.T) {
	e := &vectorEmbedder{vectors: map[string][]float32{claimText: {1, 0}}, limit: 2048}
	s := unembeddedStore(2100)
	r := NewResolver(s, embed.NewService(e), 0.60, nil)

	out := r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status == model.StatusFailed {
		t.Fatalf("resolve failed: %v", out.Err)
	}
	if e.largest > embedChunkSize {
		t.Errorf("largest batch = %d, want <= %d", e.largest, embedChunkSize)
	}
	if got := countEmbedded(t, s); got != 2100 {
		t.Errorf("persisted %d embeddings, want 2100", got)
	}
}

func TestResolve_ChunkFailureKeepsEarlierProgress(t *testing.T) {
	// Batch 1 is the claim itself, batch 2 the first chunk, batch 3 fails
	e := &vectorEmbedder{vectors: map[string][]float32{claimText: {1, 0}}, failOn: 3}
	s := unembeddedStore(embedChunkSize + 10)
	r := NewResolver(s, embed.NewService(e), 0.60, nil)

	out := r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status != model.StatusFailed {
		t.Fatalf("expected failed, got %v", out.Status)
	}
	if got := countEmbedded(t, s); got != embedChunkSize {
		t.Errorf("persisted %d embeddings, want %d from the first chunk", got, embedChunkSize)
	}

	// The next call only needs the remainder
	e.failOn = 0
	out = r.Resolve(context.Background(), model.NewClaim(claimText))
	if out.Status == model.StatusFailed {
		t.Fatalf("second resolve failed: %v", out.Err)
	}
	if e.largest > embedChunkSize {
		t.Errorf("largest batch = %d", e.largest)
	}
	if got := countEmbedded(t, s); got != embedChunkSize+10 {
		t.Errorf("persisted %d embeddings after retry", got)
	}
}
